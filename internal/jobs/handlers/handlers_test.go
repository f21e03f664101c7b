package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/weva-assistant/internal/domain"
	"github.com/Proton-105/weva-assistant/internal/jobs"
	"github.com/Proton-105/weva-assistant/internal/referral"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) Refresh(ctx context.Context, locale domain.Locale) ([]domain.Category, error) {
	args := m.Called(ctx, locale)
	categories, _ := args.Get(0).([]domain.Category)
	return categories, args.Error(1)
}

func TestCatalogWarmup_AllLocalesByDefault(t *testing.T) {
	refresher := new(mockRefresher)
	refresher.On("Refresh", mock.Anything, domain.LocaleEnglish).Return([]domain.Category{{ID: "1"}}, nil).Once()
	refresher.On("Refresh", mock.Anything, domain.LocaleArabic).Return([]domain.Category{{ID: "1"}}, nil).Once()

	task, err := jobs.NewCatalogWarmupTask(nil)
	require.NoError(t, err)

	require.NoError(t, NewCatalogWarmupHandler(refresher, testLogger()).ProcessTask(context.Background(), task))
	refresher.AssertExpectations(t)
}

func TestCatalogWarmup_ContinuesPastFailures(t *testing.T) {
	refresher := new(mockRefresher)
	refresher.On("Refresh", mock.Anything, domain.LocaleEnglish).Return(nil, errors.New("catalog down")).Once()
	refresher.On("Refresh", mock.Anything, domain.LocaleArabic).Return([]domain.Category{}, nil).Once()

	task, err := jobs.NewCatalogWarmupTask([]string{"EN", "fr", "ar"})
	require.NoError(t, err)

	err = NewCatalogWarmupHandler(refresher, testLogger()).ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh en")
	refresher.AssertExpectations(t)
}

func TestCatalogWarmup_BadPayloadSkipsRetry(t *testing.T) {
	task := asynq.NewTask(jobs.TaskTypeCatalogWarmup, []byte("{"))

	err := NewCatalogWarmupHandler(new(mockRefresher), testLogger()).ProcessTask(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type fakeTopServices struct {
	since time.Time
	limit int
	out   []referral.ServiceCount
	err   error
}

func (f *fakeTopServices) TopServices(_ context.Context, since time.Time, limit int) ([]referral.ServiceCount, error) {
	f.since = since
	f.limit = limit
	return f.out, f.err
}

func TestReferralDigest(t *testing.T) {
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	store := &fakeTopServices{out: []referral.ServiceCount{{ServiceID: "s1", ServiceName: "Facial", Count: 4}}}
	h := NewReferralDigestHandler(store, testLogger())
	h.now = func() time.Time { return now }

	task, err := jobs.NewReferralDigestTask(0, 0)
	require.NoError(t, err)

	require.NoError(t, h.ProcessTask(context.Background(), task))
	assert.Equal(t, now.Add(-24*time.Hour), store.since)
	assert.Equal(t, 10, store.limit)

	store.err = errors.New("db down")
	assert.Error(t, h.ProcessTask(context.Background(), task))
}
