package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeCatalogWarmup  = "catalog:warmup"
	TaskTypeReferralDigest = "referral:digest"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// DefaultQueues weights the worker's queues.
var DefaultQueues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

// CatalogWarmupPayload lists the locales whose category list is refreshed.
type CatalogWarmupPayload struct {
	Locales []string `json:"locales"`
}

// ReferralDigestPayload selects the reporting window of the referral digest.
type ReferralDigestPayload struct {
	Window time.Duration `json:"window"`
	Limit  int           `json:"limit"`
}

func NewCatalogWarmupTask(locales []string) (*asynq.Task, error) {
	payload, err := json.Marshal(CatalogWarmupPayload{Locales: locales})
	if err != nil {
		return nil, fmt.Errorf("marshal warmup payload: %w", err)
	}

	return asynq.NewTask(TaskTypeCatalogWarmup, payload,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(time.Minute),
	), nil
}

func NewReferralDigestTask(window time.Duration, limit int) (*asynq.Task, error) {
	payload, err := json.Marshal(ReferralDigestPayload{Window: window, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("marshal digest payload: %w", err)
	}

	return asynq.NewTask(TaskTypeReferralDigest, payload, asynq.Queue(QueueLow), asynq.MaxRetry(1)), nil
}
