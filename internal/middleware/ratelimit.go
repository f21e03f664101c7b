package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/weva-assistant/internal/bot/handlers"
	apperrors "github.com/Proton-105/weva-assistant/internal/errors"
	"github.com/Proton-105/weva-assistant/internal/ratelimit"
)

// RateLimitMiddleware enforces global, per-chat and per-kind limits for incoming Telegram updates.
// Limiter failures let the update through.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
	now     func() time.Time
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
		now:     time.Now,
	}
}

// Middleware returns the router middleware. A rejected update becomes a rate-limit AppError.
func (m *RateLimitMiddleware) Middleware() handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if err := m.check(c); err != nil {
				return err
			}
			return next(c)
		}
	}
}

type limitRule struct {
	name string
	key  string
	get  func() (int, time.Duration, error)
}

func (m *RateLimitMiddleware) check(c telebot.Context) error {
	if m.limiter == nil || !m.rules.Enabled() {
		return nil
	}

	chat := c.Chat()
	if chat == nil {
		return nil
	}
	if m.rules.IsWhitelisted(chat.ID) {
		return nil
	}

	kind := updateKind(c)
	rules := []limitRule{
		{name: "global", key: "global", get: m.rules.GetGlobalLimit},
		{name: "per_chat", key: fmt.Sprintf("chat:%d", chat.ID), get: m.rules.GetPerChatLimit},
		{name: kind, key: fmt.Sprintf("chat:%d:%s", chat.ID, kind), get: func() (int, time.Duration, error) {
			return m.rules.GetKindLimit(kind)
		}},
	}

	ctx := handlers.Context(c)
	for _, rule := range rules {
		limit, window, err := rule.get()
		if err != nil {
			m.log.Error("invalid rate limit rule", slog.String("rule", rule.name), slog.Any("error", err))
			continue
		}
		if limit <= 0 {
			continue
		}

		result, err := m.limiter.Check(ctx, rule.key, limit, window)
		if err != nil {
			m.log.Warn("rate limiter error", slog.Int64("chat_id", chat.ID), slog.Any("error", err))
			continue
		}

		if !result.Allowed {
			retry := result.RetryAfter(m.now())
			m.log.Warn("rate limit exceeded",
				slog.Int64("chat_id", chat.ID),
				slog.String("rule", rule.name),
				slog.Duration("retry_after", retry),
			)
			return apperrors.NewRateLimitError(int(math.Ceil(retry.Seconds())))
		}
	}

	return nil
}

func updateKind(c telebot.Context) string {
	if c.Callback() != nil {
		return ratelimit.KindCallback
	}
	text := strings.TrimSpace(c.Text())
	if strings.HasPrefix(text, "/") && command(text) == "/start" {
		return ratelimit.KindStart
	}
	return ratelimit.KindText
}
