//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for platforms without the epoll+native-AIO
// combination this core relies on.

package reactor

import "errors"

func newPlatformMultiplexer() (Multiplexer, error) {
	return nil, errors.New("reactor: this platform is not supported")
}
