package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultPrimaryCooldown = 30 * time.Second

var (
	rateLimitChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimit_checks_total",
		Help: "Total number of rate limit checks by backend and result.",
	}, []string{"backend", "result"})

	rateLimitRedisErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ratelimit_redis_errors_total",
		Help: "Total number of Redis errors encountered by the limiter.",
	})
)

func init() {
	prometheus.MustRegister(rateLimitChecksTotal, rateLimitRedisErrorsTotal)
}

// AdaptiveLimiter delegates to a primary (Redis) limiter and falls back to a stricter
// in-memory limiter when the primary fails. After a failure the primary is skipped for a cooldown.
type AdaptiveLimiter struct {
	primary  Limiter
	fallback Limiter
	log      *slog.Logger
	cooldown time.Duration
	now      func() time.Time

	mu          sync.Mutex
	bypassUntil time.Time
}

// NewAdaptiveLimiter creates a limiter that adapts between Redis and in-memory backends.
func NewAdaptiveLimiter(primary, fallback Limiter, log *slog.Logger) *AdaptiveLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &AdaptiveLimiter{
		primary:  primary,
		fallback: fallback,
		log:      log,
		cooldown: defaultPrimaryCooldown,
		now:      time.Now,
	}
}

// Check evaluates the limit using the primary backend, falling back to memory on errors.
func (a *AdaptiveLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	if !a.bypassed() {
		result, err := a.primary.Check(ctx, key, limit, window)
		if err == nil {
			rateLimitChecksTotal.WithLabelValues("redis", boolLabel(result.Allowed)).Inc()
			return result, nil
		}

		rateLimitRedisErrorsTotal.Inc()
		a.log.Warn("redis limiter failed, falling back to in-memory", "key", key, "error", err)
		a.bypass()
	}

	// Every instance keeps its own window, so the fallback allows half as much.
	fallbackLimit := limit / 2
	if limit > 0 && fallbackLimit <= 0 {
		fallbackLimit = 1
	}

	result, err := a.fallback.Check(ctx, key, fallbackLimit, window)
	if err != nil {
		return result, err
	}

	rateLimitChecksTotal.WithLabelValues("fallback", boolLabel(result.Allowed)).Inc()
	return result, nil
}

func (a *AdaptiveLimiter) bypassed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.now().Before(a.bypassUntil)
}

func (a *AdaptiveLimiter) bypass() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bypassUntil = a.now().Add(a.cooldown)
}

func boolLabel(value bool) string {
	if value {
		return "allowed"
	}
	return "rejected"
}
