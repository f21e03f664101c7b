package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMatching(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := fmt.Errorf("list categories: %w", NewCatalogUnavailableError("section", cause))

	assert.True(t, HasCode(err, CodeCatalogUnavailable))
	assert.False(t, HasCode(err, CodeBusy))
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, &AppError{Code: CodeCatalogUnavailable})

	appErr, ok := AsAppError(err)
	assert.True(t, ok)
	assert.True(t, appErr.Retryable)
	assert.Contains(t, appErr.Error(), "section")

	_, ok = AsAppError(cause)
	assert.False(t, ok)
}

func TestHandlerReturnsUserMessageKey(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)

	testCases := []struct {
		name      string
		err       error
		key       string
		retryable bool
	}{
		{name: "busy", err: NewBusyError(nil), key: "bot.please_wait", retryable: true},
		{name: "unknown choice", err: NewUnknownChoiceError(errors.New("gone")), key: "bot.unknown_choice"},
		{name: "rate limited", err: NewRateLimitError(3), key: "bot.rate_limited"},
		{name: "internal", err: NewInternalError(errors.New("panic: nil map")), key: "bot.not_now"},
		{name: "plain error", err: errors.New("boom"), key: "bot.not_now"},
		{name: "empty user message", err: &AppError{Code: "E999", Severity: SeverityLow}, key: "bot.not_now"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			key, retryable := h.Handle(context.Background(), tc.err)
			assert.Equal(t, tc.key, key)
			assert.Equal(t, tc.retryable, retryable)
		})
	}

	key, retryable := h.Handle(context.Background(), nil)
	assert.Empty(t, key)
	assert.False(t, retryable)
}

func TestHandlerCountsErrors(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)

	var counted []string
	h.OnError(func(code, severity string) {
		counted = append(counted, code+"/"+severity)
	})

	h.Handle(context.Background(), NewInternalError(errors.New("boom")))
	h.Handle(context.Background(), errors.New("plain"))
	h.Handle(context.Background(), nil)

	assert.Equal(t, []string{CodeInternal + "/critical", "unknown/high"}, counted)

	appErr, ok := AsAppError(NewInternalError(errors.New("boom")))
	assert.True(t, ok)
	assert.False(t, appErr.Retryable)
	assert.ErrorContains(t, appErr, "boom")
}
