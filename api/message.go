// File: api/message.go
// Author: momentics <momentics@gmail.com>
//
// Control message (spec component B): a tagged variant carrying one of
// {reschedule-fd, run-closure, relinquish-io-thread}. Values are
// value-semantic until handed to a thread context; RunClosure's payload
// is then owned by the receiving thread, which must release it after
// invocation regardless of outcome.

package api

// MessageKind discriminates the ControlMessage variant.
type MessageKind int

const (
	MsgReschedule MessageKind = iota
	MsgRunClosure
	MsgRelinquish
	// MsgCustom marks messages that fall outside the three core kinds;
	// they carry an application-defined payload and are forwarded to
	// the thread's message handler override, or the manager's default.
	MsgCustom
)

// ControlMessage is the value passed across the per-thread MPMC queue.
type ControlMessage struct {
	Kind MessageKind

	// Reschedule payload.
	Descriptor *FDDescriptor
	Events     EventMask

	// RunClosure payload. The receiving thread invokes closure() then
	// must drop this reference so the closure and its captures become
	// collectible; there is no separate heap-release call in Go, but
	// the ownership-transfer discipline from the spec is preserved by
	// the message being consumed exactly once.
	Closure func()

	// Custom payload, only populated when Kind == MsgCustom.
	CustomTag     string
	CustomPayload any
}

// NewRescheduleMessage builds a Reschedule control message.
func NewRescheduleMessage(d *FDDescriptor, events EventMask) ControlMessage {
	return ControlMessage{Kind: MsgReschedule, Descriptor: d, Events: events}
}

// NewRunClosureMessage builds a RunClosure control message.
func NewRunClosureMessage(closure func()) ControlMessage {
	return ControlMessage{Kind: MsgRunClosure, Closure: closure}
}

// NewRelinquishMessage builds a Relinquish control message.
func NewRelinquishMessage() ControlMessage {
	return ControlMessage{Kind: MsgRelinquish}
}

// NewCustomMessage builds an application-defined message forwarded to
// a thread's message handler override or the manager's default handler.
func NewCustomMessage(tag string, payload any) ControlMessage {
	return ControlMessage{Kind: MsgCustom, CustomTag: tag, CustomPayload: payload}
}
