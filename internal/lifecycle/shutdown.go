package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Shutdown coordinates graceful shutdown hooks: phases run in order, hooks inside a phase in parallel.
type Shutdown struct {
	mu    sync.Mutex
	hooks []Hook
	log   *slog.Logger
}

// NewShutdown constructs a new Shutdown coordinator.
func NewShutdown(log *slog.Logger) *Shutdown {
	if log == nil {
		log = slog.Default()
	}

	return &Shutdown{log: log}
}

// Register adds a named shutdown hook to phase.
func (s *Shutdown) Register(phase int, name string, fn func(context.Context) error) {
	s.RegisterHook(Hook{Name: name, Phase: phase, Fn: fn})
}

// RegisterHook adds h. A positive Timeout bounds the hook below the overall deadline.
func (s *Shutdown) RegisterHook(h Hook) {
	if h.Fn == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks = append(s.hooks, h)
}

// Execute runs all registered hooks and returns every failure joined.
func (s *Shutdown) Execute(ctx context.Context) error {
	s.mu.Lock()
	hooks := append([]Hook(nil), s.hooks...)
	s.mu.Unlock()

	sort.SliceStable(hooks, func(i, j int) bool { return hooks[i].Phase < hooks[j].Phase })

	start := time.Now()
	s.log.Info("shutdown sequence started", slog.Int("hook_count", len(hooks)))

	var errs []error
	for i := 0; i < len(hooks); {
		j := i
		for j < len(hooks) && hooks[j].Phase == hooks[i].Phase {
			j++
		}
		errs = append(errs, s.runPhase(ctx, hooks[i:j])...)
		i = j
	}

	s.log.Info("shutdown sequence finished", slog.Duration("elapsed", time.Since(start)))

	return errors.Join(errs...)
}

func (s *Shutdown) runPhase(ctx context.Context, hooks []Hook) []error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, h := range hooks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var (
				hookCtx context.Context
				cancel  context.CancelFunc
			)
			if h.Timeout > 0 {
				hookCtx, cancel = context.WithTimeout(ctx, h.Timeout)
			} else {
				hookCtx, cancel = context.WithCancel(ctx)
			}
			defer cancel()

			s.log.Info("running shutdown hook", slog.String("hook", h.Name), slog.Int("phase", h.Phase))

			if err := h.Fn(hookCtx); err != nil {
				s.log.Error("shutdown hook failed", slog.String("hook", h.Name), slog.Any("error", err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", h.Name, err))
				mu.Unlock()
				return
			}

			s.log.Info("shutdown hook completed", slog.String("hook", h.Name))
		}()
	}

	wg.Wait()
	return errs
}
