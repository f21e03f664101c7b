package lifecycle

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/Proton-105/weva-assistant/internal/health"
)

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) (map[string]string, bool)
}

// Probes answers liveness from process state and readiness from the dependency checker.
// Readiness turns false as soon as shutdown begins.
type Probes struct {
	checker  *health.Checker
	log      *slog.Logger
	draining atomic.Bool
}

// NewProbes creates a new Probes instance.
func NewProbes(checker *health.Checker, log *slog.Logger) *Probes {
	if log == nil {
		log = slog.Default()
	}
	if checker == nil {
		checker = health.NewChecker(log)
	}
	return &Probes{checker: checker, log: log}
}

// Liveness reports success while the process runs.
func (p *Probes) Liveness(context.Context) error {
	p.log.Debug("liveness probe called")
	return nil
}

// Readiness runs every registered check.
func (p *Probes) Readiness(ctx context.Context) (map[string]string, bool) {
	if p.draining.Load() {
		return map[string]string{"shutdown": "draining"}, false
	}

	results := p.checker.Check(ctx)
	return results, health.Healthy(results)
}

// Drain marks the service as not ready.
func (p *Probes) Drain() {
	p.draining.Store(true)
}

// LivenessHandler serves /healthz.
func LivenessHandler(probes HealthChecker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := probes.Liveness(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": health.StatusOK})
	})
}

// ReadinessHandler serves /readyz with the per-component statuses.
func ReadinessHandler(probes HealthChecker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results, ready := probes.Readiness(r.Context())
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, results)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
