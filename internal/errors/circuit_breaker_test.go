package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerLifecycle(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var changes []string

	cb := NewCircuitBreaker(BreakerConfig{
		MinRequests:         4,
		OpenTimeout:         time.Minute,
		HalfOpenMaxRequests: 2,
		OnStateChange: func(from, to State) {
			changes = append(changes, from.String()+"->"+to.String())
		},
	})
	cb.now = func() time.Time { return clock }

	boom := errors.New("boom")
	fail := func() error { return boom }
	ok := func() error { return nil }

	for i := 0; i < 4; i++ {
		assert.ErrorIs(t, cb.Call(fail), boom)
	}
	require.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	clock = clock.Add(time.Minute)
	require.NoError(t, cb.Call(ok))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Call(ok))
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []string{"closed->open", "open->half_open", "half_open->closed"}, changes)
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(BreakerConfig{MinRequests: 1, OpenTimeout: time.Second})
	cb.now = func() time.Time { return clock }

	boom := errors.New("boom")
	_ = cb.Call(func() error { return boom })
	require.Equal(t, StateOpen, cb.State())

	clock = clock.Add(time.Second)
	assert.ErrorIs(t, cb.Call(func() error { return boom }), boom)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreakerStaysClosedBelowMinRequests(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{})
	for i := 0; i < MinRequests-1; i++ {
		_ = cb.Call(func() error { return errors.New("boom") })
	}
	assert.Equal(t, StateClosed, cb.State())
}
