// File: aiodrv/driver.go
// Author: momentics <momentics@gmail.com>
//
// Driver implements api.DriveInterface (spec component E) over a
// native asynchronous submission/completion primitive, with
// synchronous fallback on transient submission pressure. Grounded on
// ojaai-asyncfs's raw io_submit/io_getevents syscall usage, generalised
// to a per-thread pool and wired into this repo's control.AIOMetrics
// and api.ErrorPolicy collaborators.

package aiodrv

import (
	"sync"
	"time"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/control"
)

var _ api.DriveInterface = (*Driver)(nil)

// Driver is registered with the manager once via AddDriveInterface;
// its thread-local AIO context is created lazily per worker thread in
// OnIOThreadStart.
type Driver struct {
	metrics      *control.AIOMetrics
	errPol       api.ErrorPolicy
	completionCB api.CompletionCallback

	mu      sync.RWMutex
	threads map[int]*threadState
}

// New builds a Driver wired to the given metrics block and error
// policy (ambient stack collaborators, not part of the core state
// machine).
func New(metrics *control.AIOMetrics, errPol api.ErrorPolicy) *Driver {
	return &Driver{
		metrics: metrics,
		errPol:  errPol,
		threads: make(map[int]*threadState),
	}
}

func (d *Driver) Identify() api.InterfaceType { return api.InterfaceDrive }

func (d *Driver) AttachCompletionCallback(cb api.CompletionCallback) {
	d.completionCB = cb
}

// OnIOThreadStart creates this thread's AIO context and submission
// slot pool, then registers the completion event fd as a per-thread FD
// so ordinary readiness dispatch drives completion processing.
func (d *Driver) OnIOThreadStart(ctx api.IOThreadContext) error {
	ts, err := newThreadState(ctx.ThreadNum())
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.threads[ctx.ThreadNum()] = ts
	d.mu.Unlock()

	desc := api.NewFDDescriptor(ts.eventFD, d, func(fd int, cookie any, events api.EventMask) {
		d.processCompletions(ts)
	}, api.EventRead, api.DefaultPriority, ctx.ThreadNum(), false)
	return ctx.AddFD(desc)
}

// OnIOThreadStopped tears down this thread's AIO context. Any slots
// still outstanding are simply dropped along with the AIO context;
// their completions, if the kernel ever delivers them, are never read
// once the context is destroyed.
func (d *Driver) OnIOThreadStopped(ctx api.IOThreadContext) {
	d.mu.Lock()
	ts, ok := d.threads[ctx.ThreadNum()]
	delete(d.threads, ctx.ThreadNum())
	d.mu.Unlock()
	if !ok {
		return
	}
	ts.close()
}

func (d *Driver) threadStateFor(ctx api.IOThreadContext) *threadState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.threads[ctx.ThreadNum()]
}

// OpenDev opens a block device or file suitable for AIO. Callers
// supplying O_DIRECT in flags are responsible for handing this driver
// block-aligned buffers; alignment is an application-buffer concern
// (the object-allocator utility this core treats as an external
// collaborator), not something this driver enforces.
func (d *Driver) OpenDev(name string, flags int) (int, error) {
	return openDev(name, flags)
}

func (d *Driver) SyncRead(fd int, buf []byte, offset int64) (int, error) {
	n, err := sysPread(fd, buf, offset)
	d.metrics.SyncReadCount.Add(1)
	d.metrics.ReadSize.Observe(n)
	return n, err
}

func (d *Driver) SyncWrite(fd int, buf []byte, offset int64) (int, error) {
	n, err := sysPwrite(fd, buf, offset)
	d.metrics.SyncWriteCount.Add(1)
	d.metrics.WriteSize.Observe(n)
	return n, err
}

func (d *Driver) SyncReadv(fd int, iovs [][]byte, offset int64) (int, error) {
	n, err := sysPreadv(fd, iovs, offset)
	d.metrics.SyncReadCount.Add(1)
	d.metrics.ReadSize.Observe(n)
	return n, err
}

func (d *Driver) SyncWritev(fd int, iovs [][]byte, offset int64) (int, error) {
	n, err := sysPwritev(fd, iovs, offset)
	d.metrics.SyncWriteCount.Add(1)
	d.metrics.WriteSize.Observe(n)
	return n, err
}

func (d *Driver) AsyncRead(ctx api.IOThreadContext, fd int, buf []byte, offset int64, cookie any) error {
	return d.asyncSubmit(ctx, api.DirRead, fd, buf, nil, offset, cookie)
}

func (d *Driver) AsyncWrite(ctx api.IOThreadContext, fd int, buf []byte, offset int64, cookie any) error {
	return d.asyncSubmit(ctx, api.DirWrite, fd, buf, nil, offset, cookie)
}

func (d *Driver) AsyncReadv(ctx api.IOThreadContext, fd int, iovs [][]byte, offset int64, cookie any) error {
	return d.asyncSubmit(ctx, api.DirRead, fd, nil, iovs, offset, cookie)
}

func (d *Driver) AsyncWritev(ctx api.IOThreadContext, fd int, iovs [][]byte, offset int64, cookie any) error {
	return d.asyncSubmit(ctx, api.DirWrite, fd, nil, iovs, offset, cookie)
}

// asyncSubmit implements spec §4.E's async_read/write/readv/writev
// contract: pop a slot, populate it, submit; on RESOURCE_EXHAUSTED /
// AGAIN / empty slot stack, fall back to synchronous execution and
// synthesise a completion callback inline.
func (d *Driver) asyncSubmit(ctx api.IOThreadContext, dir api.Direction, fd int, buf []byte, iovs [][]byte, offset int64, cookie any) error {
	ts := d.threadStateFor(ctx)
	if ts == nil {
		return api.ErrNotRunning
	}

	slot, ok := ts.slots.Get()
	if !ok {
		d.metrics.ForcedSyncEmptySlot.Add(1)
		return d.syncFallback(dir, fd, buf, iovs, offset, cookie)
	}

	slot.Direction = dir
	slot.FD = fd
	slot.Offset = offset
	slot.Cookie = cookie
	slot.Start = time.Now()

	size, err := prepareRequest(slot, dir, buf, iovs, ts.eventFD)
	if err != nil {
		ts.slots.Put(slot)
		return err
	}
	slot.Size = size

	key, err := aioSubmit(ts.aioCtxID, slot.req)
	if err != nil {
		ts.slots.Put(slot)
		if isTransientSubmitError(err) {
			d.metrics.ForcedSyncAgain.Add(1)
			return d.syncFallback(dir, fd, buf, iovs, offset, cookie)
		}
		if dir == api.DirRead {
			d.metrics.SubmitErrorRead.Add(1)
		} else {
			d.metrics.SubmitErrorWrite.Add(1)
		}
		d.errPol.ReportSubmissionError("aio_submit", fd, cookie, err)
		// Spec: "no completion callback is fired for that request (the
		// caller's cookie is leaked to the caller's bookkeeping)".
		return nil
	}

	ts.trackPending(key, slot)
	if dir == api.DirRead {
		d.metrics.AsyncReadCount.Add(1)
	} else {
		d.metrics.AsyncWriteCount.Add(1)
	}
	return nil
}

func (d *Driver) syncFallback(dir api.Direction, fd int, buf []byte, iovs [][]byte, offset int64, cookie any) error {
	var n int
	var err error
	switch {
	case buf != nil && dir == api.DirRead:
		n, err = d.SyncRead(fd, buf, offset)
	case buf != nil:
		n, err = d.SyncWrite(fd, buf, offset)
	case dir == api.DirRead:
		n, err = d.SyncReadv(fd, iovs, offset)
	default:
		n, err = d.SyncWritev(fd, iovs, offset)
	}
	result := int64(n)
	if err != nil {
		result = -1
	}
	if d.completionCB != nil {
		d.completionCB(cookie, result)
	}
	return nil
}

// processCompletions drains the completion event fd and drives up to
// MaxCompletions completions through the attached interface callback
// (spec §4.E "Completion processing").
func (d *Driver) processCompletions(ts *threadState) {
	if err := drainEventFD(ts.eventFD); err != nil {
		d.errPol.ReportFatal("aio_eventfd_drain", err)
		return
	}
	events, err := aioGetEvents(ts.aioCtxID, api.MaxCompletions)
	if err != nil {
		d.errPol.ReportFatal("io_getevents", err)
		return
	}
	if len(events) == 0 {
		d.metrics.SpuriousEvents.Add(1)
		return
	}
	for _, ev := range events {
		slot := ts.takePending(ev.obj)
		if slot == nil {
			continue
		}
		if ev.res < 0 {
			d.metrics.CompletionError.Add(1)
			d.errPol.ReportCompletionError(slot.FD, slot.Cookie, ev.res)
		}
		if d.completionCB != nil {
			d.completionCB(slot.Cookie, ev.res)
		}
		ts.recordSize(slot, d.metrics)
		slot.req = nil
		ts.slots.Put(slot)
	}
}
