package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/weva-assistant/internal/domain"
	"github.com/Proton-105/weva-assistant/internal/jobs"
)

// Refresher reloads one locale's category list into the cache.
type Refresher interface {
	Refresh(ctx context.Context, locale domain.Locale) ([]domain.Category, error)
}

type CatalogWarmupHandler struct {
	catalog Refresher
	log     *slog.Logger
}

func NewCatalogWarmupHandler(catalog Refresher, log *slog.Logger) *CatalogWarmupHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CatalogWarmupHandler{catalog: catalog, log: log}
}

// ProcessTask refreshes every requested locale, or all supported ones when the payload names none.
// One failing locale does not stop the others.
func (h *CatalogWarmupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.CatalogWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "catalog warmup: failed to decode payload", slog.String("task_type", t.Type()), slog.String("error", err.Error()))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	locales := domain.SupportedLocales()
	if len(payload.Locales) > 0 {
		locales = locales[:0]
		for _, tag := range payload.Locales {
			locale, ok := domain.ParseLocale(tag)
			if !ok {
				h.log.WarnContext(ctx, "catalog warmup: skipping unsupported locale", slog.String("locale", tag))
				continue
			}
			locales = append(locales, locale)
		}
	}

	var errs []error
	for _, locale := range locales {
		categories, err := h.catalog.Refresh(ctx, locale)
		if err != nil {
			errs = append(errs, fmt.Errorf("refresh %s: %w", locale, err))
			continue
		}
		h.log.InfoContext(ctx, "catalog warmup: categories refreshed",
			slog.String("locale", locale.String()),
			slog.Int("categories", len(categories)),
		)
	}

	return errors.Join(errs...)
}
