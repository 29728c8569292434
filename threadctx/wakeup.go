// File: threadctx/wakeup.go
// Author: momentics <momentics@gmail.com>
//
// Message FD abstraction: a semaphore-like counter descriptor whose
// readiness wakes the owning thread's multiplexer wait.

package threadctx

// wakeupFD is the message descriptor contract (spec glossary: "Event
// FD / message FD"). One instance is owned exclusively by its Context.
type wakeupFD interface {
	// FD returns the underlying descriptor for multiplexer registration.
	FD() int

	// Signal increments the counter by one, retrying on EAGAIN/EINTR.
	Signal() error

	// Drain performs a single non-blocking read of the counter,
	// returning 0 without error if nothing was pending (a spurious wake).
	Drain() (uint64, error)

	// Close releases the underlying descriptor.
	Close() error
}

func newWakeupFD() (wakeupFD, error) {
	return newPlatformWakeupFD()
}
