package session

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner closes and forgets widgets that have been idle longer than ttl.
type Cleaner struct {
	registry *Registry
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(registry *Registry, log *slog.Logger, ttl, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		registry: registry,
		log:      log,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
	}
}

// Run starts the cleanup loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.registry == nil || c.ttl <= 0 || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			reason := ctx.Err()
			if reason != nil {
				c.log.Info("session cleaner stopped", slog.String("reason", reason.Error()))
			} else {
				c.log.Info("session cleaner stopped")
			}
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *Cleaner) cleanup(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	expired := c.registry.expired(c.now().Add(-c.ttl))
	for _, w := range expired {
		err := w.Close(ctx)
		c.registry.notifyRemoved(w.ID())
		if err != nil {
			c.log.Error("session cleaner failed to close widget", slog.String("widget", w.ID()), slog.Any("error", err))
			continue
		}
		c.log.Info("idle session closed", slog.String("widget", w.ID()))
	}

	return len(expired)
}
