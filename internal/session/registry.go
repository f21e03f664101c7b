// Package session keeps one widget per chat and closes widgets that went idle.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Proton-105/weva-assistant/internal/state"
	"github.com/Proton-105/weva-assistant/internal/widget"
)

// Factory builds the widget for a chat id.
type Factory func(id string) *widget.Controller

// Registry maps chat ids to widgets.
type Registry struct {
	mu      sync.Mutex
	widgets map[string]*widget.Controller
	factory Factory
	removed func(id string)
	log     *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(factory Factory, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}

	return &Registry{
		widgets: make(map[string]*widget.Controller),
		factory: factory,
		log:     log,
	}
}

// OnRemove registers fn to run after a widget is forgotten, outside the registry lock.
func (r *Registry) OnRemove(fn func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = fn
}

// Get returns the widget for id, creating it on first use.
func (r *Registry) Get(id string) *widget.Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.widgets[id]; ok {
		return w
	}

	w := r.factory(id)
	r.widgets[id] = w
	r.log.Debug("widget created", slog.String("widget", id))
	return w
}

// Lookup returns the widget for id without creating one.
func (r *Registry) Lookup(id string) (*widget.Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.widgets[id]
	return w, ok
}

// Remove forgets the widget for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	_, ok := r.widgets[id]
	delete(r.widgets, id)
	removed := r.removed
	r.mu.Unlock()

	if ok && removed != nil {
		removed(id)
	}
}

// Len returns the number of tracked widgets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.widgets)
}

// StepCounts returns how many widgets sit in each step.
func (r *Registry) StepCounts() map[state.Step]int {
	counts := make(map[state.Step]int)
	for _, w := range r.snapshot() {
		counts[w.View().Step]++
	}
	return counts
}

// CloseAll ends every open conversation. Used on shutdown.
func (r *Registry) CloseAll(ctx context.Context) {
	for _, w := range r.snapshot() {
		if err := w.Close(ctx); err != nil {
			r.log.WarnContext(ctx, "close widget failed", slog.String("widget", w.ID()), slog.String("error", err.Error()))
		}
	}
}

func (r *Registry) snapshot() []*widget.Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*widget.Controller, 0, len(r.widgets))
	for _, w := range r.widgets {
		out = append(out, w)
	}
	return out
}

// expired removes and returns the widgets idle since before cutoff.
func (r *Registry) expired(cutoff time.Time) []*widget.Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*widget.Controller
	for id, w := range r.widgets {
		if w.LastActive().Before(cutoff) {
			out = append(out, w)
			delete(r.widgets, id)
		}
	}
	return out
}

func (r *Registry) notifyRemoved(id string) {
	r.mu.Lock()
	removed := r.removed
	r.mu.Unlock()

	if removed != nil {
		removed(id)
	}
}
