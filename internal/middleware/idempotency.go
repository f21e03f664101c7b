// Package middleware guards Telegram updates before they reach a widget.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/weva-assistant/internal/bot/handlers"
	"github.com/Proton-105/weva-assistant/internal/idempotency"
)

// DefaultIdempotencyTTL covers Telegram's redelivery horizon.
const DefaultIdempotencyTTL = 24 * time.Hour

// Watermark reports the last conversation turn rendered to the update's chat.
type Watermark func(c telebot.Context) uint64

// Idempotency ensures handlers execute at most once per Telegram update.
// A failed handler leaves no record, so a redelivery runs it again.
func Idempotency(manager idempotency.Manager, ttl time.Duration, watermark Watermark, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	if watermark == nil {
		watermark = func(telebot.Context) uint64 { return 0 }
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := updateKey(c)
			if !key.Valid() {
				return next(c)
			}

			result, err := manager.Execute(handlers.Context(c), key, ttl, func(context.Context) (uint64, error) {
				if err := next(c); err != nil {
					return 0, err
				}
				return watermark(c), nil
			})
			if err != nil {
				if errors.Is(err, idempotency.ErrRequestInProgress) {
					log.Debug("duplicate update still in progress", slog.String("update", key.String()))
					return nil
				}
				return err
			}

			if result.Duplicate {
				log.Debug("duplicate update skipped",
					slog.String("update", key.String()),
					slog.Uint64("rendered_turn", result.Watermark),
					slog.Time("handled_at", result.HandledAt),
				)
			}
			return nil
		}
	}
}

func updateKey(c telebot.Context) idempotency.Key {
	if c == nil || c.Chat() == nil {
		return idempotency.Key{}
	}
	return idempotency.Key{ChatID: c.Chat().ID, UpdateID: c.Update().ID}
}
