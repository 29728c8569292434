// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store backing api.Control's embedding
// surface (spec §6): seeded from the manager's typed startup Config
// (control/manager_config.go) so an embedder reading GetConfig()
// before ever calling SetConfig still sees the knobs the running
// manager was actually started with, with dynamic overrides and
// hot-reload propagation layered on top.

package control

import "sync"

// ConfigStore is a dynamic key/value map with atomic snapshot and listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func()
}

// NewConfigStore initializes a config store seeded from the manager's
// typed startup configuration.
func NewConfigStore(seed Config) *ConfigStore {
	return &ConfigStore{
		config: map[string]any{
			"num_threads":            seed.NumThreads,
			"message_queue_capacity": seed.MessageQueueCapacity,
			"max_outstanding_io":     seed.MaxOutstandingIO,
			"max_completions":        seed.MaxCompletions,
			"default_priority":       seed.DefaultPriority,
		},
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	copy := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		copy[k] = v
	}
	return copy
}

// SetConfig merges new values and dispatches reload after releasing
// the write lock, so a listener calling back into the store (e.g. to
// read GetSnapshot) cannot deadlock against SetConfig's own lock and
// so OnReload's effect on the caller is visible by the time SetConfig
// returns.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.mu.Lock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	listeners := append([]func(){}, cs.listeners...)
	cs.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
