// File: control/threadmetrics.go
// Author: momentics <momentics@gmail.com>
//
// Per-thread gauges (spec §6): IO count, messages received,
// reschedule-in count, reschedule-out count.

package control

import (
	"strconv"
	"sync/atomic"
)

// ThreadMetrics holds the gauges owned by one worker thread context.
type ThreadMetrics struct {
	IOCount        atomic.Uint64
	MessagesRecv   atomic.Uint64
	RescheduleIn   atomic.Uint64
	RescheduleOut  atomic.Uint64
}

// NewThreadMetrics returns a zeroed gauge block.
func NewThreadMetrics() *ThreadMetrics {
	return &ThreadMetrics{}
}

// Snapshot flattens the gauges for a given thread number into a
// Stats()-friendly map.
func (m *ThreadMetrics) Snapshot(threadNum int) map[string]any {
	prefix := "thread." + strconv.Itoa(threadNum)
	return map[string]any{
		prefix + ".io_count":       m.IOCount.Load(),
		prefix + ".messages_recv":  m.MessagesRecv.Load(),
		prefix + ".reschedule_in":  m.RescheduleIn.Load(),
		prefix + ".reschedule_out": m.RescheduleOut.Load(),
		prefix + ".num":            threadNum,
	}
}
