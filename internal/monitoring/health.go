// internal/monitoring/health.go
package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthStatus classifies the process state
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusDegraded HealthStatus = "degraded"
)

// HealthReport is the /healthz response body
type HealthReport struct {
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version"`
	Uptime     string       `json:"uptime"`
	ActiveRuns int          `json:"active_runs"`
	LastRunAt  *time.Time   `json:"last_run_at,omitempty"`
}

// Health tracks process liveness for the health endpoint
type Health struct {
	version string
	started time.Time

	mu         sync.RWMutex
	activeRuns int
	lastRunAt  *time.Time
}

// NewHealth creates a health tracker
func NewHealth(version string) *Health {
	return &Health{version: version, started: time.Now()}
}

// RunStarted marks a run in progress and returns a completion callback
func (h *Health) RunStarted() func() {
	h.mu.Lock()
	h.activeRuns++
	h.mu.Unlock()

	return func() {
		now := time.Now()
		h.mu.Lock()
		h.activeRuns--
		h.lastRunAt = &now
		h.mu.Unlock()
	}
}

// Report returns the current health snapshot
func (h *Health) Report() HealthReport {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return HealthReport{
		Status:     HealthStatusHealthy,
		Version:    h.version,
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		ActiveRuns: h.activeRuns,
		LastRunAt:  h.lastRunAt,
	}
}

// Handler serves the health report as JSON
func (h *Health) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(h.Report())
	})
}
