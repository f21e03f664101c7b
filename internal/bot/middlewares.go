package bot

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/weva-assistant/internal/bot/handlers"
	errors "github.com/Proton-105/weva-assistant/internal/errors"
	"github.com/Proton-105/weva-assistant/internal/i18n"
	"github.com/Proton-105/weva-assistant/pkg/logger"
)

// TranslatorFunc resolves the translator for the chat an update came from.
type TranslatorFunc func(c telebot.Context) i18n.Translator

// RecoveryMiddleware catches panics, reports them via the centralized handler, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *errors.Handler, translate TranslatorFunc) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

					key := "bot.not_now"
					if errHandler != nil {
						appErr := errors.NewInternalError(fmt.Errorf("panic recovered: %v", r))
						if msg, _ := errHandler.Handle(handlers.Context(c), appErr); msg != "" {
							key = msg
						}
					}

					if c != nil {
						if sendErr := notify(c, translateKey(c, translate, key)); sendErr != nil {
							log.Error("failed to notify user about panic", slog.Any("error", sendErr))
						}
					}

					err = nil
				}
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging for handler failures.
func ErrorHandlingMiddleware(errHandler *errors.Handler, translate TranslatorFunc) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			key := "bot.not_now"
			if errHandler != nil {
				if msg, _ := errHandler.Handle(handlers.Context(c), err); msg != "" {
					key = msg
				}
			}

			if c != nil {
				_ = notify(c, translateKey(c, translate, key))
			}

			return nil
		}
	}
}

// LoggingMiddleware tags the update with a correlation id and logs basic telemetry about it.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()
			correlationID := uuid.NewString()
			ctx := logger.WithCorrelationID(handlers.Context(c), correlationID)
			handlers.WithContext(c, ctx)

			chatID := int64(0)
			if c != nil && c.Chat() != nil {
				chatID = c.Chat().ID
			}

			action := ""
			if c != nil {
				if cb := c.Callback(); cb != nil {
					action = cb.Data
				} else {
					action = c.Text()
				}
			}

			attrs := []any{
				slog.Int64("chat_id", chatID),
				slog.String("action", action),
				slog.String("correlation_id", correlationID),
			}

			log.DebugContext(ctx, "handling update", attrs...)
			err := next(c)
			log.InfoContext(ctx, "handled update", append(attrs,
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)...)

			return err
		}
	}
}

// notify answers a button press with a toast and anything else with a message.
func notify(c telebot.Context, text string) error {
	if c.Callback() != nil {
		return c.Respond(&telebot.CallbackResponse{Text: text})
	}
	return c.Send(text)
}

func translateKey(c telebot.Context, translate TranslatorFunc, key string) string {
	if translate == nil {
		return key
	}
	if t := translate(c); t != nil {
		return t.T(key)
	}
	return key
}
