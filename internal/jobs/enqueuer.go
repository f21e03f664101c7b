// Package jobs runs periodic background tasks over asynq: catalog cache warm-up and the referral digest.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// DefaultWarmupWindow collapses warm-up requests for the same locales into one queued task.
const DefaultWarmupWindow = 5 * time.Minute

// Enqueuer puts one-off catalog and referral tasks on the queue.
type Enqueuer struct {
	client       *asynq.Client
	log          *slog.Logger
	warmupWindow time.Duration
}

// NewEnqueuer builds an Enqueuer backed by an asynq client.
func NewEnqueuer(redisOpt asynq.RedisConnOpt, log *slog.Logger) *Enqueuer {
	if log == nil {
		log = slog.Default()
	}

	return &Enqueuer{
		client:       asynq.NewClient(redisOpt),
		log:          log,
		warmupWindow: DefaultWarmupWindow,
	}
}

// WarmCatalog asks the worker to refresh the cached category lists of locales, or of every
// supported locale when none are given. It reports false when an identical warm-up is already queued.
func (e *Enqueuer) WarmCatalog(ctx context.Context, locales []string) (bool, error) {
	task, err := NewCatalogWarmupTask(locales)
	if err != nil {
		return false, err
	}

	info, err := e.client.EnqueueContext(ctx, task, asynq.Unique(e.warmupWindow))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		e.log.DebugContext(ctx, "jobs: catalog warmup already queued", slog.Any("locales", locales))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("enqueue catalog warmup: %w", err)
	}

	e.log.DebugContext(ctx, "jobs: catalog warmup queued",
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue),
	)
	return true, nil
}

// RequestDigest queues an out-of-schedule referral digest and returns its task id.
func (e *Enqueuer) RequestDigest(ctx context.Context, window time.Duration, limit int) (string, error) {
	task, err := NewReferralDigestTask(window, limit)
	if err != nil {
		return "", err
	}

	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("enqueue referral digest: %w", err)
	}

	e.log.DebugContext(ctx, "jobs: referral digest queued", slog.String("task_id", info.ID))
	return info.ID, nil
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}
