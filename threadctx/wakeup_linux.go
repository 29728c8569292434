//go:build linux

// File: threadctx/wakeup_linux.go
// Author: momentics <momentics@gmail.com>

package threadctx

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

type eventfdWakeup struct {
	fd int
}

func newPlatformWakeupFD() (wakeupFD, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &eventfdWakeup{fd: fd}, nil
}

func (w *eventfdWakeup) FD() int { return w.fd }

func (w *eventfdWakeup) Signal() error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	for {
		_, err := unix.Write(w.fd, buf[:])
		if err == nil {
			return nil
		}
		if err == unix.EAGAIN || err == unix.EINTR {
			continue
		}
		return err
	}
}

func (w *eventfdWakeup) Drain() (uint64, error) {
	var buf [8]byte
	n, err := unix.Read(w.fd, buf[:])
	if err != nil {
		if err == unix.EAGAIN {
			return 0, nil
		}
		return 0, err
	}
	if n < 8 {
		return 0, nil
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func (w *eventfdWakeup) Close() error {
	return unix.Close(w.fd)
}
