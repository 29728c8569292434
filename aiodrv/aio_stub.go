//go:build !linux

// File: aiodrv/aio_stub.go
// Author: momentics <momentics@gmail.com>

package aiodrv

import "github.com/momentics/hioload-io/api"

type submissionRequest struct{}

type ioEvent struct {
	data uint64
	obj  uint64
	res  int64
	res2 int64
}

func newThreadState(threadNum int) (*threadState, error) {
	return nil, api.ErrNotSupported
}

func (ts *threadState) close() {}

func prepareRequest(slot *Slot, dir api.Direction, buf []byte, iovs [][]byte, eventFD int) (int, error) {
	return 0, api.ErrNotSupported
}

func aioSubmit(ctxID uint64, req *submissionRequest) (uint64, error) {
	return 0, api.ErrNotSupported
}

func aioGetEvents(ctxID uint64, max int) ([]ioEvent, error) {
	return nil, api.ErrNotSupported
}

func isTransientSubmitError(err error) bool { return false }

func drainEventFD(fd int) error { return api.ErrNotSupported }

func openDev(name string, flags int) (int, error) { return -1, api.ErrNotSupported }

func sysPread(fd int, buf []byte, offset int64) (int, error) { return 0, api.ErrNotSupported }

func sysPwrite(fd int, buf []byte, offset int64) (int, error) { return 0, api.ErrNotSupported }

func sysPreadv(fd int, iovs [][]byte, offset int64) (int, error) { return 0, api.ErrNotSupported }

func sysPwritev(fd int, iovs [][]byte, offset int64) (int, error) { return 0, api.ErrNotSupported }
