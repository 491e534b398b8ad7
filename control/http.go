package control

import (
	"encoding/json"
	"net/http"
)

// DebugHandler serves the registry's combined config/metrics/debug snapshot
// as JSON, used by the CLI's status subcommand and any external monitor.
func (r *Registry) DebugHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		snapshot := map[string]any{
			"config":  r.GetConfig(),
			"metrics": r.Stats(),
			"debug":   r.DumpState(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snapshot)
	})
}
