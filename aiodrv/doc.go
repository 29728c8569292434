// Package aiodrv implements the block-I/O driver (spec component E):
// a native asynchronous submission/completion primitive with a
// per-thread submission-slot pool, event-fd completion wakeup, and a
// synchronous fallback path on transient submission failure.
package aiodrv
