// File: api/events.go
// Author: momentics <momentics@gmail.com>
//
// Re-exports the reactor package's readiness event mask so callers of
// the embedding API never need to import reactor directly.

package api

import "github.com/momentics/hioload-io/reactor"

type EventMask = reactor.EventMask

const (
	EventRead  = reactor.EventRead
	EventWrite = reactor.EventWrite
	EventError = reactor.EventError
)
