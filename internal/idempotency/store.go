package idempotency

import (
	"context"
	"time"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// Record is what the bot remembers about a handled update.
type Record struct {
	Status string `json:"status"`
	// Watermark is the last conversation turn rendered to the chat once the update was handled.
	Watermark uint64    `json:"watermark,omitempty"`
	HandledAt time.Time `json:"handled_at"`
}

// Store keeps one entry per update. The entry is the claim while the update is processing
// and the record once it is done.
type Store interface {
	// Claim marks key as processing for lockTTL unless it is already claimed or completed.
	Claim(ctx context.Context, key Key, lockTTL time.Duration) (bool, error)
	Get(ctx context.Context, key Key) (*Record, error)
	Complete(ctx context.Context, key Key, record Record, ttl time.Duration) error
	// Release drops a processing claim so a redelivery is handled again. Completed records stay.
	Release(ctx context.Context, key Key) error
}
