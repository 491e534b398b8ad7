// control/registry.go
//
// Registry composes the config store, metrics registry and debug-probe
// registry into the api.Control and api.Debug contracts the supervisor and
// the CLI status command consume.

package control

import "github.com/nullbridge/c2hat/api"

// Registry is the server's runtime control plane: one value holding the
// three independently-locked stores the supervisor wires its probes into.
type Registry struct {
	config  *ConfigStore
	metrics *MetricsRegistry
	debug   *DebugProbes
	reload  reloadHooks
}

// NewRegistry builds an empty Registry and registers platform probes.
func NewRegistry() *Registry {
	r := &Registry{
		config:  NewConfigStore(),
		metrics: NewMetricsRegistry(),
		debug:   NewDebugProbes(),
	}
	RegisterPlatformProbes(r.debug)
	return r
}

// RegisterReloadHook adds a callback invoked whenever TriggerHotReload is
// called on this Registry.
func (r *Registry) RegisterReloadHook(fn func()) { r.reload.register(fn) }

// TriggerHotReload dispatches every hook registered via RegisterReloadHook.
func (r *Registry) TriggerHotReload() { r.reload.trigger() }

// GetConfig implements api.Control.
func (r *Registry) GetConfig() map[string]any { return r.config.GetSnapshot() }

// SetConfig implements api.Control.
func (r *Registry) SetConfig(cfg map[string]any) error {
	r.config.SetConfig(cfg)
	return nil
}

// Stats implements api.Control, returning the metrics snapshot.
func (r *Registry) Stats() map[string]any { return r.metrics.GetSnapshot() }

// OnReload implements api.Control.
func (r *Registry) OnReload(fn func()) { r.config.OnReload(fn) }

// RegisterDebugProbe implements api.Control.
func (r *Registry) RegisterDebugProbe(name string, fn func() any) {
	r.debug.RegisterProbe(name, fn)
}

// DumpState implements api.Debug.
func (r *Registry) DumpState() map[string]any { return r.debug.DumpState() }

// RegisterProbe implements api.Debug.
func (r *Registry) RegisterProbe(name string, fn func() any) { r.debug.RegisterProbe(name, fn) }

// SetMetric records a counter or gauge value, used by
// adapters.MetricsMiddleware to publish the broadcaster's delivery count.
func (r *Registry) SetMetric(key string, value any) { r.metrics.Set(key, value) }

var (
	_ api.Control = (*Registry)(nil)
	_ api.Debug   = (*Registry)(nil)
)
