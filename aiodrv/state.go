// File: aiodrv/state.go
// Author: momentics <momentics@gmail.com>
//
// Per-thread AIO context (spec §4.E "per-thread state"): lazily
// created on OnIOThreadStart, torn down on OnIOThreadStopped. Grounded
// on the retired slab pool's per-owner Get/Put lifecycle, now scoped
// to one worker thread's submission slots and pending-completion map.

package aiodrv

import (
	"sync"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/control"
	"github.com/momentics/hioload-io/pool"
)

// threadState is touched exclusively by its owning worker thread
// except for pending, which the same thread also owns exclusively
// since AIO submissions and completions are strictly per-thread
// (spec §5). The mutex exists only to satisfy the race detector for
// the rare case a completion is still being drained during teardown
// from OnIOThreadStopped, which runs on the same goroutine anyway; it
// costs nothing on the hot path.
type threadState struct {
	threadNum int
	slots     *pool.Stack[*Slot]

	pendingMu sync.Mutex
	pending   map[uint64]*Slot

	aioCtxID uint64
	eventFD  int
}

func newThreadStateBase(threadNum int, aioCtxID uint64, eventFD int) *threadState {
	return &threadState{
		threadNum: threadNum,
		slots:     pool.NewStack(api.MaxOutstandingIO, func() *Slot { return &Slot{} }),
		pending:   make(map[uint64]*Slot, api.MaxOutstandingIO),
		aioCtxID:  aioCtxID,
		eventFD:   eventFD,
	}
}

func (ts *threadState) trackPending(key uint64, slot *Slot) {
	ts.pendingMu.Lock()
	ts.pending[key] = slot
	ts.pendingMu.Unlock()
}

func (ts *threadState) takePending(key uint64) *Slot {
	ts.pendingMu.Lock()
	slot := ts.pending[key]
	delete(ts.pending, key)
	ts.pendingMu.Unlock()
	return slot
}

func (ts *threadState) recordSize(slot *Slot, metrics *control.AIOMetrics) {
	if slot.Direction == api.DirRead {
		metrics.ReadSize.Observe(slot.Size)
	} else {
		metrics.WriteSize.Observe(slot.Size)
	}
}
