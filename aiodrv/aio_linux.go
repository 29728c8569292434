//go:build linux

// File: aiodrv/aio_linux.go
// Author: momentics <momentics@gmail.com>
//
// Raw Linux AIO syscalls (io_setup/io_submit/io_getevents/io_destroy),
// grounded on ojaai-asyncfs's aiocb/aioEvent layout and its
// SYS_IO_SUBMIT / SYS_IO_GETEVENTS RawSyscall usage, generalised with
// IOCB_FLAG_RESFD so completions wake this thread's event fd instead
// of being polled.

package aiodrv

import (
	"errors"
	"unsafe"

	"github.com/momentics/hioload-io/api"
	"golang.org/x/sys/unix"
)

const (
	iocbCmdPread   = uint16(0)
	iocbCmdPwrite  = uint16(1)
	iocbCmdPreadv  = uint16(7)
	iocbCmdPwritev = uint16(8)

	iocbFlagResfd = uint32(1 << 0)
)

// iocb mirrors struct iocb from linux/aio_abi.h (64 bytes).
type iocb struct {
	aioData      uint64
	aioKey       uint32
	aioRWFlags   uint32
	aioLioOpcode uint16
	aioReqPrio   int16
	aioFildes    uint32
	aioBuf       uint64
	aioNbytes    uint64
	aioOffset    int64
	aioReserved2 uint64
	aioFlags     uint32
	aioResfd     uint32
}

// ioEvent mirrors struct io_event from linux/aio_abi.h.
type ioEvent struct {
	data uint64
	obj  uint64
	res  int64
	res2 int64
}

// submissionRequest bundles the raw iocb with whatever Go-managed
// memory must stay alive and unmoved for the duration of the syscall:
// the target buffer, or the iovec array plus the byte slices it points
// into for vector requests.
type submissionRequest struct {
	cb    iocb
	iovs  []unix.Iovec
	pin   []byte   // keeps a contiguous buffer alive/reachable
	pinV  [][]byte // keeps vector buffers alive/reachable
}

func aioSetup(capacity int) (uint64, error) {
	var id uint64
	_, _, errno := unix.RawSyscall(unix.SYS_IO_SETUP, uintptr(capacity), uintptr(unsafe.Pointer(&id)), 0)
	if errno != 0 {
		return 0, errno
	}
	return id, nil
}

func aioDestroy(id uint64) error {
	_, _, errno := unix.RawSyscall(unix.SYS_IO_DESTROY, uintptr(id), 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// aioSubmit submits one request and returns a stable key identifying
// it for completion lookup: the address of the iocb, which the kernel
// echoes back verbatim in io_event.obj.
func aioSubmit(ctxID uint64, req *submissionRequest) (uint64, error) {
	cbPtr := &req.cb
	iocbps := [1]*iocb{cbPtr}
	n, _, errno := unix.RawSyscall(unix.SYS_IO_SUBMIT, uintptr(ctxID), 1, uintptr(unsafe.Pointer(&iocbps[0])))
	if errno != 0 {
		return 0, errno
	}
	if n != 1 {
		return 0, errors.New("aiodrv: io_submit accepted zero requests")
	}
	return uint64(uintptr(unsafe.Pointer(cbPtr))), nil
}

// aioGetEvents performs a non-blocking, zero-minimum poll for up to
// max completions (spec: "non-blocking, zero minimum").
func aioGetEvents(ctxID uint64, max int) ([]ioEvent, error) {
	events := make([]ioEvent, max)
	ts := unix.Timespec{Sec: 0, Nsec: 0}
	n, _, errno := unix.Syscall6(unix.SYS_IO_GETEVENTS, uintptr(ctxID), 0, uintptr(max),
		uintptr(unsafe.Pointer(&events[0])), uintptr(unsafe.Pointer(&ts)), 0)
	if errno != 0 {
		return nil, errno
	}
	return events[:n], nil
}

func isTransientSubmitError(err error) bool {
	errno, ok := err.(unix.Errno)
	if !ok {
		return false
	}
	return errno == unix.EAGAIN || errno == unix.EWOULDBLOCK
}

func openDev(name string, flags int) (int, error) {
	return unix.Open(name, flags|unix.O_CLOEXEC, 0o600)
}

func sysPread(fd int, buf []byte, offset int64) (int, error) {
	return unix.Pread(fd, buf, offset)
}

func sysPwrite(fd int, buf []byte, offset int64) (int, error) {
	return unix.Pwrite(fd, buf, offset)
}

func sysPreadv(fd int, iovs [][]byte, offset int64) (int, error) {
	return unix.Preadv(fd, iovs, offset)
}

func sysPwritev(fd int, iovs [][]byte, offset int64) (int, error) {
	return unix.Pwritev(fd, iovs, offset)
}

func drainEventFD(fd int) error {
	var buf [8]byte
	_, err := unix.Read(fd, buf[:])
	if err != nil {
		if err == unix.EAGAIN {
			return nil
		}
		return err
	}
	return nil
}

func newThreadState(threadNum int) (*threadState, error) {
	ctxID, err := aioSetup(api.MaxOutstandingIO)
	if err != nil {
		return nil, err
	}
	efd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = aioDestroy(ctxID)
		return nil, err
	}
	return newThreadStateBase(threadNum, ctxID, efd), nil
}

func (ts *threadState) close() {
	_ = aioDestroy(ts.aioCtxID)
	_ = unix.Close(ts.eventFD)
}

// prepareRequest fills in req's iocb for a contiguous or vector
// request and returns the request's total byte size.
func prepareRequest(slot *Slot, dir api.Direction, buf []byte, iovs [][]byte, eventFD int) (int, error) {
	req := &submissionRequest{}
	req.cb.aioFildes = uint32(slot.FD)
	req.cb.aioOffset = slot.Offset
	req.cb.aioFlags = iocbFlagResfd
	req.cb.aioResfd = uint32(eventFD)

	switch {
	case buf != nil:
		if len(buf) == 0 {
			return 0, api.ErrInvalidArgument
		}
		req.pin = buf
		req.cb.aioBuf = uint64(uintptr(unsafe.Pointer(&buf[0])))
		req.cb.aioNbytes = uint64(len(buf))
		if dir == api.DirRead {
			req.cb.aioLioOpcode = iocbCmdPread
		} else {
			req.cb.aioLioOpcode = iocbCmdPwrite
		}
		slot.req = req
		return len(buf), nil
	case len(iovs) > 0:
		req.pinV = iovs
		req.iovs = make([]unix.Iovec, len(iovs))
		total := 0
		for i, v := range iovs {
			if len(v) == 0 {
				continue
			}
			req.iovs[i].Base = &v[0]
			req.iovs[i].SetLen(len(v))
			total += len(v)
		}
		req.cb.aioBuf = uint64(uintptr(unsafe.Pointer(&req.iovs[0])))
		req.cb.aioNbytes = uint64(len(req.iovs))
		if dir == api.DirRead {
			req.cb.aioLioOpcode = iocbCmdPreadv
		} else {
			req.cb.aioLioOpcode = iocbCmdPwritev
		}
		slot.req = req
		return total, nil
	default:
		return 0, api.ErrInvalidArgument
	}
}
