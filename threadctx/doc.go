// Package threadctx implements the per-thread context (spec component
// D): the readiness multiplexer, the message descriptor, the bounded
// control-message queue, and the event loop that drives them.
package threadctx
