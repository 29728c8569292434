// File: api/descriptor.go
// Author: momentics <momentics@gmail.com>
//
// FD descriptor record (spec component A): immutable after creation
// except for the per-direction busy flags, which the owning I/O thread
// mutates under the single-writer rule (spec §5).

package api

import "sync/atomic"

// Direction indexes the busy flags by I/O direction.
type Direction int

const (
	DirRead Direction = iota
	DirWrite
)

// ReadinessCallback is invoked from the I/O thread's event loop when
// the descriptor's fd becomes ready for one or more of its subscribed
// events.
type ReadinessCallback func(fd int, cookie any, events EventMask)

// FDDescriptor is a passive record describing one registered file
// descriptor. It is shared between the manager's global FD map (for
// global descriptors) and every thread context that has installed it;
// it is released only once every holder has dropped its reference.
type FDDescriptor struct {
	FD       int
	Owner    Interface // non-owning back reference; Owner never retains the descriptor
	Callback ReadinessCallback
	Events   EventMask
	Priority int
	Cookie   any
	Global   bool

	busyRead  atomic.Bool
	busyWrite atomic.Bool
}

// NewFDDescriptor is the manager's factory for FD descriptors. A
// priority outside [0, MaxPriority) is replaced with DefaultPriority.
func NewFDDescriptor(fd int, owner Interface, cb ReadinessCallback, events EventMask, priority int, cookie any, global bool) *FDDescriptor {
	if priority < 0 || priority >= MaxPriority {
		priority = DefaultPriority
	}
	return &FDDescriptor{
		FD:       fd,
		Owner:    owner,
		Callback: cb,
		Events:   events,
		Priority: priority,
		Cookie:   cookie,
		Global:   global,
	}
}

// SetBusy sets the busy flag for the given direction.
func (d *FDDescriptor) SetBusy(dir Direction, busy bool) {
	switch dir {
	case DirRead:
		d.busyRead.Store(busy)
	case DirWrite:
		d.busyWrite.Store(busy)
	}
}

// IsBusy reports the busy flag for the given direction.
func (d *FDDescriptor) IsBusy(dir Direction) bool {
	switch dir {
	case DirRead:
		return d.busyRead.Load()
	case DirWrite:
		return d.busyWrite.Load()
	default:
		return false
	}
}
