//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based multiplexer. Level-triggered by construction: the
// event loop is expected to fully drain a ready fd's work each wake
// (message fd) or hand off to a single readiness callback invocation
// (regular fds), matching spec ("epoll-style semantics: level-triggered").

package reactor

import (
	"golang.org/x/sys/unix"
)

type epollMultiplexer struct {
	epfd int
}

func newPlatformMultiplexer() (Multiplexer, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollMultiplexer{epfd: epfd}, nil
}

func toEpollEvents(m EventMask) uint32 {
	var e uint32
	if m&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if m&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func fromEpollEvents(e uint32) EventMask {
	var m EventMask
	if e&unix.EPOLLIN != 0 {
		m |= EventRead
	}
	if e&unix.EPOLLOUT != 0 {
		m |= EventWrite
	}
	if e&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		m |= EventError
	}
	return m
}

func (r *epollMultiplexer) Register(fd int, events EventMask) error {
	ev := unix.EpollEvent{Events: toEpollEvents(events), Fd: int32(fd)}
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (r *epollMultiplexer) Modify(fd int, events EventMask) error {
	ev := unix.EpollEvent{Events: toEpollEvents(events), Fd: int32(fd)}
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (r *epollMultiplexer) Unregister(fd int) error {
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (r *epollMultiplexer) Wait(out []Event, timeoutMs int) (int, error) {
	raw := make([]unix.EpollEvent, len(out))
	n, err := unix.EpollWait(r.epfd, raw, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		out[i] = Event{Fd: int(raw[i].Fd), Events: fromEpollEvents(raw[i].Events)}
	}
	return n, nil
}

func (r *epollMultiplexer) Close() error {
	return unix.Close(r.epfd)
}
