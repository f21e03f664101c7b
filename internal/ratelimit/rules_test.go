package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/weva-assistant/pkg/config"
)

func TestRules(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:   true,
		Whitelist: []int64{42},
		Global:    config.RateLimitRule{Limit: 300, Window: "1s"},
		PerChat:   config.RateLimitRule{Limit: 20, Window: "1m"},
	}
	cfg.Commands.Start = config.RateLimitRule{Limit: 3, Window: "10s"}
	cfg.Commands.Text = config.RateLimitRule{Limit: 10, Window: "1m"}
	cfg.Commands.Callback = config.RateLimitRule{Window: "1m"}

	rules := NewRules(cfg)
	assert.True(t, rules.Enabled())
	assert.True(t, rules.IsWhitelisted(42))
	assert.False(t, rules.IsWhitelisted(7))

	limit, window, err := rules.GetGlobalLimit()
	require.NoError(t, err)
	assert.Equal(t, 300, limit)
	assert.Equal(t, time.Second, window)

	limit, window, err = rules.GetPerChatLimit()
	require.NoError(t, err)
	assert.Equal(t, 20, limit)
	assert.Equal(t, time.Minute, window)

	testCases := []struct {
		kind   string
		limit  int
		window time.Duration
	}{
		{kind: KindStart, limit: 3, window: 10 * time.Second},
		{kind: KindText, limit: 10, window: time.Minute},
		{kind: KindCallback, limit: 0, window: 0},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.kind, func(t *testing.T) {
			limit, window, err := rules.GetKindLimit(tc.kind)
			require.NoError(t, err)
			assert.Equal(t, tc.limit, limit)
			assert.Equal(t, tc.window, window)
		})
	}

	_, _, err = rules.GetKindLimit("inline")
	assert.Error(t, err)
}

func TestRules_InvalidWindow(t *testing.T) {
	rules := NewRules(config.RateLimitConfig{PerChat: config.RateLimitRule{Limit: 1, Window: "soon"}})
	_, _, err := rules.GetPerChatLimit()
	assert.Error(t, err)

	rules = NewRules(config.RateLimitConfig{PerChat: config.RateLimitRule{Limit: 1}})
	_, _, err = rules.GetPerChatLimit()
	assert.Error(t, err)

	assert.False(t, (*Rules)(nil).Enabled())
}
