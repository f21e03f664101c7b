package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/weva-assistant/internal/i18n"
	"github.com/Proton-105/weva-assistant/internal/state"
	"github.com/Proton-105/weva-assistant/internal/widget"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingHost struct {
	mu        sync.Mutex
	dismissed int
}

func (h *countingHost) OpenBookingPage(context.Context, widget.BookingLink) error { return nil }

func (h *countingHost) Dismiss(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dismissed++
	return nil
}

func newTestRegistry(t *testing.T, host widget.Host) *Registry {
	t.Helper()

	manager, err := i18n.Load("en")
	require.NoError(t, err)
	machine := state.NewMachine(manager, state.Options{})

	return NewRegistry(func(id string) *widget.Controller {
		return widget.New(widget.Config{ID: id}, widget.Deps{Machine: machine, Host: host, Log: testLogger()})
	}, testLogger())
}

func TestRegistryGetCreatesOnce(t *testing.T) {
	r := newTestRegistry(t, &countingHost{})

	first := r.Get("chat:1")
	second := r.Get("chat:1")
	assert.Same(t, first, second)
	assert.Equal(t, 1, r.Len())

	_, ok := r.Lookup("chat:2")
	assert.False(t, ok)

	var removed []string
	r.OnRemove(func(id string) { removed = append(removed, id) })

	r.Remove("chat:1")
	r.Remove("chat:unknown")
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, []string{"chat:1"}, removed)
}

func TestRegistryStepCounts(t *testing.T) {
	r := newTestRegistry(t, &countingHost{})

	require.NoError(t, r.Get("chat:1").Dispatch(context.Background(), state.OpenWidget{}))
	require.NoError(t, r.Get("chat:2").Dispatch(context.Background(), state.OpenWidget{}))
	r.Get("chat:3")

	counts := r.StepCounts()
	assert.Equal(t, 2, counts[state.StepLanguageSelect])
	assert.Equal(t, 1, counts[state.StepIdle])
}

func TestCleanerClosesIdleWidgets(t *testing.T) {
	host := &countingHost{}
	r := newTestRegistry(t, host)

	require.NoError(t, r.Get("chat:1").Dispatch(context.Background(), state.OpenWidget{}))

	var removed []string
	r.OnRemove(func(id string) { removed = append(removed, id) })

	cleaner := NewCleaner(r, testLogger(), time.Minute, time.Second)
	assert.Equal(t, 0, cleaner.cleanup(context.Background()))
	assert.Equal(t, 1, r.Len())

	cleaner.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.Equal(t, 1, cleaner.cleanup(context.Background()))
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 1, host.dismissed)
	assert.Equal(t, []string{"chat:1"}, removed)
}

func TestCleanerRunStopsOnCancel(t *testing.T) {
	r := newTestRegistry(t, &countingHost{})
	cleaner := NewCleaner(r, testLogger(), time.Minute, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleaner.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleaner did not stop")
	}
}
