// Package idempotency makes sure a Telegram update is handled at most once, even when
// Telegram redelivers it after a timeout or a webhook retry.
package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	defaultLockTTL = 2 * time.Minute
	pollInterval   = 50 * time.Millisecond
	maxClaimTries  = 3
)

var ErrRequestInProgress = errors.New("update is already being handled")

// Operation handles the update and returns the last turn rendered to the chat.
type Operation func(ctx context.Context) (watermark uint64, err error)

// Result tells the caller whether the update was handled now or earlier.
type Result struct {
	Duplicate bool
	Watermark uint64
	HandledAt time.Time
}

type Manager interface {
	Execute(ctx context.Context, key Key, ttl time.Duration, fn Operation) (*Result, error)
}

type manager struct {
	store   Store
	log     *slog.Logger
	lockTTL time.Duration
	now     func() time.Time
}

func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store:   store,
		log:     log,
		lockTTL: defaultLockTTL,
		now:     time.Now,
	}
}

// Execute runs fn once per key. A completed key returns its stored record with Duplicate set.
// A failed fn releases the claim, so a redelivered update is handled again.
func (m *manager) Execute(ctx context.Context, key Key, ttl time.Duration, fn Operation) (*Result, error) {
	if fn == nil {
		return nil, errors.New("operation fn cannot be nil")
	}

	for try := 0; try < maxClaimTries; try++ {
		claimed, err := m.store.Claim(ctx, key, m.lockTTL)
		if err != nil {
			return nil, err
		}
		if claimed {
			return m.run(ctx, key, ttl, fn)
		}

		record, err := m.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}

		switch {
		case record == nil:
			// The claim expired or was released between the two calls; try again.
		case record.Status == StatusCompleted:
			return &Result{Duplicate: true, Watermark: record.Watermark, HandledAt: record.HandledAt}, nil
		default:
			return nil, ErrRequestInProgress
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}

	return nil, ErrRequestInProgress
}

func (m *manager) run(ctx context.Context, key Key, ttl time.Duration, fn Operation) (*Result, error) {
	watermark, err := fn(ctx)
	if err != nil {
		if releaseErr := m.store.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
			m.log.Warn("release update claim failed", slog.String("update", key.String()), slog.Any("error", releaseErr))
		}
		return nil, err
	}

	record := Record{Status: StatusCompleted, Watermark: watermark, HandledAt: m.now()}
	if err := m.store.Complete(ctx, key, record, ttl); err != nil {
		return nil, err
	}

	return &Result{Watermark: watermark, HandledAt: record.HandledAt}, nil
}
