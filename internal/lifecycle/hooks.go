// Package lifecycle coordinates process shutdown and serves health probes.
package lifecycle

import (
	"context"
	"time"
)

// Hook describes a named shutdown hook. Hooks in a lower phase finish before the next phase starts.
type Hook struct {
	Name    string
	Phase   int
	Timeout time.Duration
	Fn      func(ctx context.Context) error
}

const (
	// PhaseIngress stops accepting work: Telegram updates and the ops server.
	PhaseIngress = iota
	// PhaseWorkers stops background loops and closes widgets.
	PhaseWorkers
	// PhaseStorage closes Redis and Postgres connections.
	PhaseStorage
)
