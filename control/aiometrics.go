// File: control/aiometrics.go
// Author: momentics <momentics@gmail.com>
//
// Per-driver metrics surface (spec §6): spurious events, completion
// errors, submission errors by direction, forced-sync by cause, async
// and sync counts by direction, and size histograms.

package control

import "sync/atomic"

// AIOMetrics holds the counters and histograms owned by one aiodrv
// driver instance (shared across all worker threads' AIO contexts).
type AIOMetrics struct {
	SpuriousEvents  atomic.Uint64
	CompletionError atomic.Uint64

	SubmitErrorRead  atomic.Uint64
	SubmitErrorWrite atomic.Uint64

	ForcedSyncEmptySlot atomic.Uint64
	ForcedSyncAgain     atomic.Uint64

	AsyncReadCount  atomic.Uint64
	AsyncWriteCount atomic.Uint64
	SyncReadCount   atomic.Uint64
	SyncWriteCount  atomic.Uint64

	ReadSize  SizeHistogram
	WriteSize SizeHistogram
}

// NewAIOMetrics returns a zeroed metrics block.
func NewAIOMetrics() *AIOMetrics {
	return &AIOMetrics{}
}

// Snapshot flattens the counters into a Stats()-friendly map.
func (m *AIOMetrics) Snapshot() map[string]any {
	return map[string]any{
		"aio.spurious_events":        m.SpuriousEvents.Load(),
		"aio.completion_errors":      m.CompletionError.Load(),
		"aio.submit_errors.read":     m.SubmitErrorRead.Load(),
		"aio.submit_errors.write":    m.SubmitErrorWrite.Load(),
		"aio.forced_sync.empty_slot": m.ForcedSyncEmptySlot.Load(),
		"aio.forced_sync.again":      m.ForcedSyncAgain.Load(),
		"aio.async.read":             m.AsyncReadCount.Load(),
		"aio.async.write":            m.AsyncWriteCount.Load(),
		"aio.sync.read":              m.SyncReadCount.Load(),
		"aio.sync.write":             m.SyncWriteCount.Load(),
		"aio.histogram.read_size":    m.ReadSize.Snapshot(),
		"aio.histogram.write_size":   m.WriteSize.Snapshot(),
	}
}
