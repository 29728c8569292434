//go:build !linux

// File: threadctx/wakeup_stub.go
// Author: momentics <momentics@gmail.com>

package threadctx

import "github.com/momentics/hioload-io/api"

func newPlatformWakeupFD() (wakeupFD, error) {
	return nil, api.ErrNotSupported
}
