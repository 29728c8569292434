// File: aiodrv/slot.go
// Author: momentics <momentics@gmail.com>
//
// Submission slot record (spec §3, "AIO thread context"): direction,
// size, offset, start timestamp, target fd, one per outstanding
// asynchronous request.

package aiodrv

import (
	"time"

	"github.com/momentics/hioload-io/api"
)

// Slot is a pre-allocated submission-slot record. req holds the
// platform-native request block (the raw iocb plus anything that must
// be kept alive for the duration of the syscall); it is nil until
// prepareRequest populates it.
type Slot struct {
	Direction api.Direction
	Size      int
	Offset    int64
	Start     time.Time
	FD        int
	Cookie    any

	req *submissionRequest
}
