package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/weva-assistant/internal/jobs"
	"github.com/Proton-105/weva-assistant/internal/referral"
)

// TopServices reports the most opened booking pages since a point in time.
type TopServices interface {
	TopServices(ctx context.Context, since time.Time, limit int) ([]referral.ServiceCount, error)
}

type ReferralDigestHandler struct {
	store TopServices
	log   *slog.Logger
	now   func() time.Time
}

func NewReferralDigestHandler(store TopServices, log *slog.Logger) *ReferralDigestHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ReferralDigestHandler{store: store, log: log, now: time.Now}
}

func (h *ReferralDigestHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.ReferralDigestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Window <= 0 {
		payload.Window = 24 * time.Hour
	}
	if payload.Limit <= 0 {
		payload.Limit = 10
	}

	since := h.now().Add(-payload.Window)
	top, err := h.store.TopServices(ctx, since, payload.Limit)
	if err != nil {
		return fmt.Errorf("top services: %w", err)
	}

	var total int64
	for _, sc := range top {
		total += sc.Count
		h.log.InfoContext(ctx, "referral digest: service",
			slog.String("service_id", sc.ServiceID.String()),
			slog.String("service", sc.ServiceName),
			slog.Int64("referrals", sc.Count),
		)
	}

	h.log.InfoContext(ctx, "referral digest",
		slog.Time("since", since),
		slog.Int("services", len(top)),
		slog.Int64("referrals", total),
	)
	return nil
}
