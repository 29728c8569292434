// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for the hioload-io
// manager core.

package api

import "errors"

// Sentinel errors returned across the manager/threadctx/aiodrv boundary.
// None of these are used for the "fall back to sync path" case described
// in the spec's error taxonomy - that path never surfaces as a Go error.
var (
	ErrNotRunning        = errors.New("io manager: not running")
	ErrAlreadyRunning    = errors.New("io manager: already running")
	ErrAlreadyStopped    = errors.New("io manager: already stopped")
	ErrFDExists          = errors.New("io manager: fd already registered")
	ErrFDNotFound        = errors.New("io manager: fd not registered")
	ErrThreadNotFound    = errors.New("io manager: thread number out of range")
	ErrQueueFull         = errors.New("io manager: control message queue full")
	ErrClosed            = errors.New("io manager: resource closed")
	ErrResourceExhausted = errors.New("io manager: resource exhausted")
	ErrNotSupported      = errors.New("io manager: operation not supported on this platform")
	ErrInvalidArgument   = errors.New("io manager: invalid argument")
)

// ErrorCode is the small taxonomy carried on completion callbacks and log
// fields; it never replaces the Go error type, it classifies it.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeResourceExhausted
	ErrCodeTimeout
	ErrCodeNotSupported
	ErrCodeAlreadyExists
	ErrCodeNotFound
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeResourceExhausted:
		return "resource_exhausted"
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeNotSupported:
		return "not_supported"
	case ErrCodeAlreadyExists:
		return "already_exists"
	case ErrCodeNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// ErrorPolicy is the injectable collaborator that absorbs errors which
// cannot be surfaced through a completion callback (hard submission
// failures, completion errors, state-machine violations). The default
// implementation (control.LogErrorPolicy) logs through logrus; metric
// counters are bumped by the caller (the AIO driver), not by the policy.
// Tests may substitute a recording fake.
type ErrorPolicy interface {
	// ReportSubmissionError is called when a hard submission failure
	// occurs (invalid fd, permission) - not on transient AGAIN/exhaustion.
	ReportSubmissionError(op string, fd int, cookie any, err error)

	// ReportCompletionError is called when an AIO completion carries a
	// negative result.
	ReportCompletionError(fd int, cookie any, result int64)

	// ReportFatal is called for state-machine violations that the spec
	// says must be "logged as fatal diagnostic; the operation is dropped".
	ReportFatal(op string, err error)
}
