// Package pool
// Author: momentics <momentics@gmail.com>
//
// Fixed-capacity, single-owner submission-slot pool used by the AIO
// driver (spec: "a stack of pre-allocated submission-slot records").
// No locking: per spec §5, AIO slots are touched exclusively by the
// owning worker thread.
package pool
