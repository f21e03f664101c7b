package ratelimit

import (
	"errors"
	"time"

	"github.com/Proton-105/weva-assistant/pkg/config"
)

// Update kinds with their own limits.
const (
	KindStart    = "start"
	KindText     = "text"
	KindCallback = "callback"
)

// Rules encapsulates configured rate limits and helper methods.
type Rules struct {
	config config.RateLimitConfig
}

// NewRules constructs rate limiting rules from configuration settings.
func NewRules(cfg config.RateLimitConfig) *Rules {
	return &Rules{config: cfg}
}

// Enabled reports whether limits are enforced at all.
func (r *Rules) Enabled() bool {
	return r != nil && r.config.Enabled
}

// IsWhitelisted returns true if the chat bypasses rate limits.
func (r *Rules) IsWhitelisted(chatID int64) bool {
	for _, id := range r.config.Whitelist {
		if id == chatID {
			return true
		}
	}
	return false
}

// GetKindLimit returns the limit and window for one update kind.
func (r *Rules) GetKindLimit(kind string) (int, time.Duration, error) {
	switch kind {
	case KindStart:
		return parseRule(r.config.Commands.Start)
	case KindText:
		return parseRule(r.config.Commands.Text)
	case KindCallback:
		return parseRule(r.config.Commands.Callback)
	default:
		return 0, 0, errors.New("unsupported update kind")
	}
}

// GetGlobalLimit returns the rule shared by all chats.
func (r *Rules) GetGlobalLimit() (int, time.Duration, error) {
	return parseRule(r.config.Global)
}

// GetPerChatLimit returns the per-chat rate limiting rule.
func (r *Rules) GetPerChatLimit() (int, time.Duration, error) {
	return parseRule(r.config.PerChat)
}

func parseRule(rule config.RateLimitRule) (int, time.Duration, error) {
	if rule.Limit <= 0 {
		return 0, 0, nil
	}
	if rule.Window == "" {
		return rule.Limit, 0, errors.New("window duration is not set")
	}
	window, err := time.ParseDuration(rule.Window)
	if err != nil {
		return 0, 0, err
	}
	return rule.Limit, window, nil
}
