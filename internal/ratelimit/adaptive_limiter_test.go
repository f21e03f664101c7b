package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	args := m.Called(ctx, key, limit, window)
	result, _ := args.Get(0).(*Result)
	return result, args.Error(1)
}

func TestAdaptiveLimiter_UsesPrimary(t *testing.T) {
	primary := new(mockLimiter)
	fallback := new(mockLimiter)
	primary.On("Check", mock.Anything, "chat:1", 10, time.Minute).
		Return(&Result{Allowed: true, Remaining: 9}, nil).Once()

	limiter := NewAdaptiveLimiter(primary, fallback, testLogger())
	result, err := limiter.Check(context.Background(), "chat:1", 10, time.Minute)

	require.NoError(t, err)
	assert.True(t, result.Allowed)
	primary.AssertExpectations(t)
	fallback.AssertNotCalled(t, "Check", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdaptiveLimiter_FallsBackWithHalfLimitAndCoolsDown(t *testing.T) {
	primary := new(mockLimiter)
	fallback := new(mockLimiter)
	primary.On("Check", mock.Anything, "chat:1", 10, time.Minute).
		Return(nil, errors.New("connection refused")).Once()
	fallback.On("Check", mock.Anything, "chat:1", 5, time.Minute).
		Return(&Result{Allowed: true, Remaining: 4}, nil).Twice()

	clk := newClock()
	limiter := NewAdaptiveLimiter(primary, fallback, testLogger())
	limiter.now = clk.now

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(context.Background(), "chat:1", 10, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
	primary.AssertNumberOfCalls(t, "Check", 1)

	primary.On("Check", mock.Anything, "chat:1", 10, time.Minute).
		Return(&Result{Allowed: false}, nil).Once()
	clk.advance(defaultPrimaryCooldown + time.Second)

	result, err := limiter.Check(context.Background(), "chat:1", 10, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	primary.AssertNumberOfCalls(t, "Check", 2)
	fallback.AssertExpectations(t)
}

func TestAdaptiveLimiter_FallbackKeepsAtLeastOne(t *testing.T) {
	primary := new(mockLimiter)
	fallback := NewMemoryLimiter(testLogger())
	primary.On("Check", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("down"))

	limiter := NewAdaptiveLimiter(primary, fallback, testLogger())

	result, err := limiter.Check(context.Background(), "chat:1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	result, err = limiter.Check(context.Background(), "chat:1", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}
