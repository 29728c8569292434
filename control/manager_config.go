// File: control/manager_config.go
// Author: momentics <momentics@gmail.com>
//
// Typed startup configuration for the manager (ambient stack: config),
// grounded on ConfigStore's thread-safe snapshot pattern but scoped to
// the fixed set of knobs the manager's lifecycle actually needs.

package control

import (
	"os"
	"strconv"

	"github.com/momentics/hioload-io/api"
)

// Config carries the manager's startup knobs.
type Config struct {
	NumThreads           int
	MessageQueueCapacity int
	MaxOutstandingIO     int
	MaxCompletions       int
	DefaultPriority      int
}

// DefaultConfig returns the manager's built-in defaults.
func DefaultConfig() Config {
	return Config{
		NumThreads:           1,
		MessageQueueCapacity: api.DefaultMessageQueueCapacity,
		MaxOutstandingIO:     api.MaxOutstandingIO,
		MaxCompletions:       api.MaxCompletions,
		DefaultPriority:      api.DefaultPriority,
	}
}

// FromEnv overlays NUM_IO_THREADS and IO_MANAGER_QUEUE_CAPACITY onto a
// base config when present and well-formed; malformed values are
// ignored rather than treated as fatal.
func FromEnv(base Config) Config {
	if raw := os.Getenv("NUM_IO_THREADS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			base.NumThreads = n
		}
	}
	if raw := os.Getenv("IO_MANAGER_QUEUE_CAPACITY"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			base.MessageQueueCapacity = n
		}
	}
	return base
}
