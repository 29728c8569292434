// File: api/interfaces.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// I/O interface abstraction (spec component C) and the per-thread
// context contract (spec component D) as seen by interfaces during
// their thread lifecycle hooks.

package api

// InterfaceType discriminates registered interfaces for diagnostics and
// for the manager's "inbuilt vs custom" expected-interface accounting.
type InterfaceType int

const (
	InterfaceGeneral InterfaceType = iota
	InterfaceDrive
	InterfaceCustom
)

// CompletionCallback is invoked on every asynchronous I/O completion
// with the cookie the caller supplied at submission time and the
// syscall result (negative on error).
type CompletionCallback func(cookie any, result int64)

// Interface is the capability set every collaborator registered with
// the manager must implement.
type Interface interface {
	// Identify returns this interface's type discriminator.
	Identify() InterfaceType

	// AttachCompletionCallback installs the callback invoked on every
	// asynchronous I/O completion. Interfaces that never submit async
	// I/O may implement this as a no-op.
	AttachCompletionCallback(cb CompletionCallback)

	// OnIOThreadStart is invoked by a thread context as it enters
	// I/O-thread state, once per thread. Implementations initialise
	// thread-local resources and register any per-thread FDs here via
	// ctx.AddFD.
	OnIOThreadStart(ctx IOThreadContext) error

	// OnIOThreadStopped is invoked as a thread context leaves I/O-thread
	// state. Implementations tear down thread-local resources here.
	OnIOThreadStopped(ctx IOThreadContext)
}

// DriveInterface specialises Interface with the eight block-I/O
// primitives (read/write x sync/async x contiguous/vector). Async forms
// carry an opaque cookie returned to the completion callback.
type DriveInterface interface {
	Interface

	OpenDev(name string, flags int) (fd int, err error)

	SyncRead(fd int, buf []byte, offset int64) (n int, err error)
	SyncWrite(fd int, buf []byte, offset int64) (n int, err error)
	SyncReadv(fd int, iovs [][]byte, offset int64) (n int, err error)
	SyncWritev(fd int, iovs [][]byte, offset int64) (n int, err error)

	// The async forms take the calling thread's context explicitly
	// (idiomatic Go stand-in for the spec's implicit thread-local AIO
	// state): the driver's per-thread submission-slot pool and event
	// fd live keyed by ctx.ThreadNum(), populated during
	// OnIOThreadStart.
	AsyncRead(ctx IOThreadContext, fd int, buf []byte, offset int64, cookie any) error
	AsyncWrite(ctx IOThreadContext, fd int, buf []byte, offset int64, cookie any) error
	AsyncReadv(ctx IOThreadContext, fd int, iovs [][]byte, offset int64, cookie any) error
	AsyncWritev(ctx IOThreadContext, fd int, iovs [][]byte, offset int64, cookie any) error
}

// IOThreadContext is the subset of a per-thread context (spec component
// D) exposed to interfaces and to manager-level callers that address a
// specific thread.
type IOThreadContext interface {
	// ThreadNum is the stable ordinal thread number.
	ThreadNum() int

	// IsIOThread reports whether this context is currently in
	// I/O-thread state.
	IsIOThread() bool

	// AddFD installs a descriptor into this thread's multiplexer.
	AddFD(d *FDDescriptor) error

	// RemoveFD uninstalls a descriptor from this thread's multiplexer.
	RemoveFD(d *FDDescriptor) error

	// IsFDAddable evaluates this thread's FD selector, if any,
	// defaulting to true when no selector was configured.
	IsFDAddable(d *FDDescriptor) bool

	// PutMsg enqueues a control message and wakes the thread's event
	// loop. It returns api.ErrQueueFull if the bounded queue is full,
	// or api.ErrNotRunning if the thread is not in I/O-thread state.
	PutMsg(m ControlMessage) error
}

// Control exposes runtime configuration, metrics and debug
// introspection to embedders (ambient stack, not part of the core
// state machine).
type Control interface {
	GetConfig() map[string]any
	SetConfig(cfg map[string]any) error
	Stats() map[string]any
	OnReload(fn func())
	SetMetric(key string, value any)
	RegisterDebugProbe(name string, fn func() any)
}
