// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter implementing api.Control (spec §6's embedding
// surface) over the io-manager's own collaborators: the typed
// manager Config seeds the config store, and Stats() pulls live
// snapshots from whichever typed metrics blocks (control.AIOMetrics,
// control.ThreadMetrics, or the manager's own aggregate) the caller
// registers, rather than requiring them to be flattened and pushed by
// hand into a generic registry on every tick.

package adapters

import (
	"sync"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/control"
)

var _ api.Control = (*ControlAdapter)(nil)

// ControlAdapter is the concrete type behind api.Control; returned as
// a pointer (not the bare interface) so callers can additionally use
// RegisterMetricsSource to wire in the manager's and driver's typed
// metrics blocks.
type ControlAdapter struct {
	config *control.ConfigStore
	debug  *control.DebugProbes

	mu      sync.RWMutex
	sources map[string]func() map[string]any
	pushed  map[string]any
}

// NewControlAdapter builds an adapter seeded from the manager's
// built-in default configuration.
func NewControlAdapter() *ControlAdapter {
	return NewControlAdapterWithConfig(control.DefaultConfig())
}

// NewControlAdapterWithConfig builds an adapter seeded from cfg, the
// same typed Config value passed to manager.New, so GetConfig()
// reflects the manager's real startup knobs from the start.
func NewControlAdapterWithConfig(cfg control.Config) *ControlAdapter {
	adapter := &ControlAdapter{
		config:  control.NewConfigStore(cfg),
		debug:   control.NewDebugProbes(),
		sources: make(map[string]func() map[string]any),
		pushed:  make(map[string]any),
	}
	control.RegisterPlatformProbes(adapter.debug)
	return adapter
}

// RegisterMetricsSource wires a typed metrics block's own Snapshot
// method into Stats() under name, e.g.
// RegisterMetricsSource("aio", aioMetrics.Snapshot) or
// RegisterMetricsSource("threads", manager.Metrics). Registering the
// same name twice replaces the earlier source.
func (c *ControlAdapter) RegisterMetricsSource(name string, snapshot func() map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[name] = snapshot
}

func (c *ControlAdapter) GetConfig() map[string]any {
	return c.config.GetSnapshot()
}

func (c *ControlAdapter) SetConfig(cfg map[string]any) error {
	c.config.SetConfig(cfg)
	return nil
}

// Stats merges the current config, every registered metrics source,
// any ad hoc values pushed through SetMetric, and the debug probe
// dump (prefixed "debug.") into one flat map.
func (c *ControlAdapter) Stats() map[string]any {
	combined := c.config.GetSnapshot()

	c.mu.RLock()
	sources := make([]func() map[string]any, 0, len(c.sources))
	for _, fn := range c.sources {
		sources = append(sources, fn)
	}
	for k, v := range c.pushed {
		combined[k] = v
	}
	c.mu.RUnlock()

	for _, snapshot := range sources {
		for k, v := range snapshot() {
			combined[k] = v
		}
	}
	for k, v := range c.debug.DumpState() {
		combined["debug."+k] = v
	}
	return combined
}

func (c *ControlAdapter) OnReload(fn func()) {
	c.config.OnReload(fn)
}

// SetMetric records an ad hoc embedder-supplied value alongside the
// registered typed metrics sources; unlike those, it isn't refreshed
// on every Stats() call.
func (c *ControlAdapter) SetMetric(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pushed[key] = value
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}
