//go:build linux
// +build linux

// control/platform_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific debug probes for the io-manager: CPU count (bounds
// how many worker threads make sense) alongside the manager's own
// per-thread tunables (spec §6's "tunable constants"), so a debug dump
// taken on one box can be compared against the constants a worker pool
// on that box was actually built against.

package control

import (
	"runtime"

	"github.com/momentics/hioload-io/api"
)

// RegisterPlatformProbes sets Linux-specific debug metrics.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.goroutines", func() any {
		return runtime.NumGoroutine()
	})
	dp.RegisterProbe("platform.max_outstanding_io", func() any {
		return api.MaxOutstandingIO
	})
	dp.RegisterProbe("platform.default_message_queue_capacity", func() any {
		return api.DefaultMessageQueueCapacity
	})
}
