// Package widget runs one conversation: it owns the state and the log, executes effects and feeds results back.
package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Proton-105/weva-assistant/internal/catalog"
	"github.com/Proton-105/weva-assistant/internal/conversation"
	"github.com/Proton-105/weva-assistant/internal/domain"
	apperrors "github.com/Proton-105/weva-assistant/internal/errors"
	"github.com/Proton-105/weva-assistant/internal/referral"
	"github.com/Proton-105/weva-assistant/internal/state"
)

const (
	DefaultFetchTimeout       = 10 * time.Second
	DefaultBookingURLTemplate = "https://weva.live/en/service/{id}"
)

// Host is the surface that displays the widget.
type Host interface {
	OpenBookingPage(ctx context.Context, link BookingLink) error
	Dismiss(ctx context.Context) error
}

// ReferralSink records booking hand-offs.
type ReferralSink interface {
	Record(ctx context.Context, r referral.Referral) error
}

// Metrics receives intent outcomes.
type Metrics interface {
	IntentProcessed(intent, status string)
}

// BookingLink is the navigation target for a selected service.
type BookingLink struct {
	URL     string
	Service domain.Service
	Center  domain.Store
	Locale  domain.Locale
}

// Config tunes a controller.
type Config struct {
	ID                 string
	FetchTimeout       time.Duration
	BookingURLTemplate string
}

// Deps bundles the collaborators of a controller. Referrals and Metrics are optional.
type Deps struct {
	Machine   *state.Machine
	Catalog   catalog.Catalog
	Host      Host
	Referrals ReferralSink
	Metrics   Metrics
	Log       *slog.Logger
}

// Controller owns one state value and one message log. It is safe for concurrent use.
type Controller struct {
	cfg  Config
	deps Deps
	log  *slog.Logger
	now  func() time.Time

	mu         sync.Mutex
	state      state.State
	history    *conversation.Log
	lastActive time.Time
	observers  []func(View)
}

// New creates a controller in the Idle step.
func New(cfg Config, deps Deps) *Controller {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.BookingURLTemplate == "" {
		cfg.BookingURLTemplate = DefaultBookingURLTemplate
	}

	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	return &Controller{
		cfg:        cfg,
		deps:       deps,
		log:        log.With(slog.String("widget", cfg.ID)),
		now:        time.Now,
		state:      state.Initial(),
		history:    conversation.NewLog(),
		lastActive: time.Now(),
	}
}

// ID returns the widget identifier.
func (c *Controller) ID() string {
	return c.cfg.ID
}

// Observe registers fn to be called with a fresh view after every committed transition.
func (c *Controller) Observe(fn func(View)) {
	if fn == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// View returns a snapshot of the widget.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// LastActive returns the time of the last committed transition.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Dispatch reduces a user intent and runs the resulting effects until the conversation settles.
// The lock is released while effects run, so a close may interleave with an outstanding fetch.
func (c *Controller) Dispatch(ctx context.Context, intent state.Event) error {
	effects, err := c.apply(intent)

	status := "ok"
	if err != nil {
		status = "rejected"
	}
	if c.deps.Metrics != nil {
		c.deps.Metrics.IntentProcessed(intent.Name(), status)
	}

	if err != nil {
		c.log.DebugContext(ctx, "intent rejected",
			slog.String("intent", intent.Name()),
			slog.String("error", err.Error()),
		)
		return toAppError(err)
	}

	return c.run(ctx, effects)
}

// Close ends the conversation.
func (c *Controller) Close(ctx context.Context) error {
	return c.Dispatch(ctx, state.CloseWidget{})
}

func (c *Controller) apply(ev state.Event) ([]state.Effect, error) {
	c.mu.Lock()

	if _, opening := ev.(state.OpenWidget); opening && c.state.Step == state.StepIdle && c.history.Len() > 0 {
		c.history.Reset()
	}

	prev := c.state.Step
	tr, err := c.deps.Machine.Reduce(c.state, ev)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	if tr.ResetLog {
		c.history.Reset()
	}
	for _, msg := range tr.Messages {
		c.history.Append(msg)
	}
	c.state = tr.State
	c.lastActive = c.now()

	view := c.viewLocked()
	observers := append([]func(View){}, c.observers...)
	c.mu.Unlock()

	state.RecordTransition(prev, view.Step)
	for _, observe := range observers {
		observe(view)
	}

	return tr.Effects, nil
}

// feed applies a fetch result. Stale results are dropped silently.
func (c *Controller) feed(ctx context.Context, ev state.Event) error {
	effects, err := c.apply(ev)
	if errors.Is(err, state.ErrStaleResult) {
		c.log.DebugContext(ctx, "stale result discarded", slog.String("event", ev.Name()))
		return nil
	}
	if err != nil {
		return err
	}
	return c.run(ctx, effects)
}

func (c *Controller) run(ctx context.Context, effects []state.Effect) error {
	var errs []error
	for _, effect := range effects {
		if err := c.execute(ctx, effect); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Controller) execute(ctx context.Context, effect state.Effect) error {
	switch e := effect.(type) {
	case state.FetchCategories:
		categories, err := fetch(ctx, c, "list_categories", func(fctx context.Context) ([]domain.Category, error) {
			return c.deps.Catalog.ListCategories(fctx, e.Locale)
		})
		return c.feed(ctx, state.CategoriesLoaded{Ticket: e.Ticket, Categories: categories, Err: err})

	case state.FetchCategoryDetail:
		detail, err := fetch(ctx, c, "category_detail", func(fctx context.Context) (catalog.CategoryDetail, error) {
			return c.deps.Catalog.FetchCategoryDetail(fctx, e.CategoryID, e.Locale)
		})
		return c.feed(ctx, state.StoresLoaded{Ticket: e.Ticket, Stores: detail.Stores, Err: err})

	case state.FetchCenterDetail:
		detail, err := fetch(ctx, c, "center_detail", func(fctx context.Context) (catalog.CenterDetail, error) {
			return c.deps.Catalog.FetchCenterDetail(fctx, e.CenterID, e.Locale)
		})
		return c.feed(ctx, state.DepartmentsLoaded{Ticket: e.Ticket, Departments: detail.Departments, Err: err})

	case state.FetchServices:
		services, err := fetch(ctx, c, "services", func(fctx context.Context) ([]domain.Service, error) {
			return c.deps.Catalog.FetchServicesForDepartment(fctx, e.CenterID, e.DepartmentID, e.Locale)
		})
		return c.feed(ctx, state.ServicesLoaded{Ticket: e.Ticket, Services: services, Err: err})

	case state.OpenBookingPage:
		return c.openBooking(ctx, e)

	case state.Dismiss:
		if c.deps.Host == nil {
			return nil
		}
		if err := c.deps.Host.Dismiss(ctx); err != nil {
			c.log.WarnContext(ctx, "dismiss failed", slog.String("error", err.Error()))
			return err
		}
		return nil

	default:
		return fmt.Errorf("widget: unsupported effect %T", effect)
	}
}

func (c *Controller) openBooking(ctx context.Context, e state.OpenBookingPage) error {
	link := BookingLink{
		URL:     c.bookingURL(e.Service, e.Locale),
		Service: e.Service,
		Center:  e.Center,
		Locale:  e.Locale,
	}

	if c.deps.Host != nil {
		if err := c.deps.Host.OpenBookingPage(ctx, link); err != nil {
			c.log.WarnContext(ctx, "open booking page failed",
				slog.String("service_id", e.Service.ID.String()),
				slog.String("error", err.Error()),
			)
			return err
		}
	}

	if c.deps.Referrals != nil {
		err := c.deps.Referrals.Record(ctx, referral.Referral{
			SessionID:    c.cfg.ID,
			ServiceID:    e.Service.ID,
			ServiceName:  e.Service.Name,
			CenterID:     e.Center.ID,
			DepartmentID: e.Department.ID,
			Locale:       e.Locale,
			URL:          link.URL,
			OpenedAt:     c.now().UTC(),
		})
		if err != nil {
			c.log.WarnContext(ctx, "record referral failed", slog.String("error", err.Error()))
		}
	}

	return c.feed(ctx, state.BookingOpened{Epoch: e.Epoch, ServiceID: e.Service.ID})
}

func (c *Controller) bookingURL(service domain.Service, locale domain.Locale) string {
	if !locale.Valid() {
		locale = domain.LocaleEnglish
	}
	return strings.NewReplacer(
		"{id}", service.ID.String(),
		"{locale}", locale.String(),
	).Replace(c.cfg.BookingURLTemplate)
}

func (c *Controller) viewLocked() View {
	return View{
		Step:           c.state.Step,
		Locale:         c.state.Locale,
		Selection:      c.state.Selection,
		Offers:         c.state.Offers,
		ShowCategories: c.state.ShowCategories,
		AwaitingAnswer: c.state.AwaitingAnswer,
		IsTyping:       c.state.IsTyping(),
		Messages:       c.history.Snapshot(),
	}
}

// fetch runs call under the fetch timeout and normalizes every failure to CatalogUnavailable.
func fetch[T any](ctx context.Context, c *Controller, operation string, call func(context.Context) (T, error)) (T, error) {
	fctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	result, err := call(fctx)
	if err == nil {
		return result, nil
	}

	var zero T
	if apperrors.HasCode(err, apperrors.CodeCatalogUnavailable) {
		return zero, err
	}
	return zero, apperrors.NewCatalogUnavailableError(operation, err)
}

func toAppError(err error) error {
	switch {
	case errors.Is(err, state.ErrBusy):
		return apperrors.NewBusyError(err)
	case errors.Is(err, state.ErrUnknownChoice):
		return apperrors.NewUnknownChoiceError(err)
	case errors.Is(err, state.ErrInvalidIntent), errors.Is(err, state.ErrInvalidTransition), errors.Is(err, state.ErrStaleResult):
		return apperrors.NewInvalidIntentError(err)
	default:
		return err
	}
}
