// File: api/constants.go
// Author: momentics <momentics@gmail.com>
//
// Tunable constants shared by the manager, thread contexts, and the AIO
// driver (spec §6, "Tunable constants").

package api

const (
	// MaxOutstandingIO bounds inflight AIO submissions per worker
	// thread; imposed by the native AIO submission primitive.
	MaxOutstandingIO = 200

	// MaxCompletions bounds a single completion-processing pass.
	MaxCompletions = MaxOutstandingIO

	// MaxPriority is the exclusive upper bound of FD descriptor priority.
	MaxPriority = 10

	// DefaultPriority is used when a caller does not specify one.
	DefaultPriority = 9

	// DefaultMessageQueueCapacity is the default per-thread control
	// message queue size ("sized generously - at least several
	// thousand").
	DefaultMessageQueueCapacity = 4096
)
