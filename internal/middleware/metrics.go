package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/weva-assistant/internal/bot/handlers"
	"github.com/Proton-105/weva-assistant/internal/bot/keyboard"
	"github.com/Proton-105/weva-assistant/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordUpdate(endpoint(c), status, time.Since(start))

		return err
	}
}

// endpoint names the update with bounded cardinality: a command, a callback unique or "text".
func endpoint(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil {
		// Callback data comes from the client; only uniques we issued become labels.
		unique, _, err := keyboard.DecodeCallback(cb.Data)
		if err != nil || !keyboard.IsKnownUnique(unique) {
			return "callback"
		}
		return "callback:" + unique
	}

	text := strings.TrimSpace(c.Text())
	if strings.HasPrefix(text, "/") {
		return command(text)
	}
	if text != "" {
		return "text"
	}

	return "unknown"
}

func command(text string) string {
	cmd := strings.Fields(text)[0]
	if idx := strings.Index(cmd, "@"); idx != -1 {
		cmd = cmd[:idx]
	}
	return strings.ToLower(cmd)
}
