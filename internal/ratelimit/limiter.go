// Package ratelimit throttles Telegram chats with sliding-window limits kept in Redis or in memory.
package ratelimit

import (
	"context"
	"time"
)

// Result captures the outcome of a rate-limit evaluation.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the wait until the oldest counted request leaves the window.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r == nil || r.Allowed || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// Limiter describes a rate-limiting strategy interface.
// A rejected request is a Result with Allowed false, not an error. A limit of zero or less disables the check.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

func unlimited() *Result {
	return &Result{Allowed: true, Remaining: -1}
}
