// Package bot projects assistant widgets onto Telegram chats.
package bot

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/weva-assistant/internal/bot/handlers"
	"github.com/Proton-105/weva-assistant/internal/bot/keyboard"
	"github.com/Proton-105/weva-assistant/internal/catalog"
	"github.com/Proton-105/weva-assistant/internal/domain"
	errors "github.com/Proton-105/weva-assistant/internal/errors"
	"github.com/Proton-105/weva-assistant/internal/i18n"
	"github.com/Proton-105/weva-assistant/internal/idempotency"
	"github.com/Proton-105/weva-assistant/internal/middleware"
	"github.com/Proton-105/weva-assistant/internal/session"
	"github.com/Proton-105/weva-assistant/internal/state"
	"github.com/Proton-105/weva-assistant/internal/widget"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Config holds the Telegram side settings.
type Config struct {
	Token      string
	Mode       string
	Timeout    time.Duration
	WebhookURL string
	Listen     string
	// APIURL overrides the Bot API endpoint.
	APIURL   string
	PageSize int
	Widget   widget.Config
	// IdempotencyTTL is how long a handled update id is remembered.
	IdempotencyTTL time.Duration
	// Offline skips the getMe handshake.
	Offline bool
	// Synchronous handles updates on the poller goroutine instead of one goroutine each.
	Synchronous bool
}

// Deps bundles what the bot needs to build widgets and guard updates.
type Deps struct {
	Machine      *state.Machine
	Catalog      catalog.Catalog
	Referrals    widget.ReferralSink
	Metrics      widget.Metrics
	Localizer    *i18n.Manager
	ErrorHandler *errors.Handler
	Idempotency  idempotency.Manager
	RateLimit    *middleware.RateLimitMiddleware
	Log          *slog.Logger
}

// Bot wraps telebot.Bot with the widget registry and the chat renderers.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	cfg        Config
	deps       Deps
	registry   *session.Registry
	router     *Router
	keyboard   *keyboard.Builder
	errHandler *errors.Handler

	mu    sync.Mutex
	chats map[string]*chat
}

// New builds a telegram bot instance configured according to the application settings.
func New(cfg Config, deps Deps) (*Bot, error) {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	if deps.Machine == nil || deps.Localizer == nil {
		return nil, stderrors.New("bot: machine and localizer are required")
	}

	settings := telebot.Settings{
		Token:       cfg.Token,
		URL:         cfg.APIURL,
		Offline:     cfg.Offline,
		Synchronous: cfg.Synchronous,
		OnError: func(err error, c telebot.Context) {
			log.Error("telebot handler failed", slog.Any("error", err))
		},
	}

	if cfg.Mode == ModeWebhook {
		settings.Poller = &telebot.Webhook{
			Listen:   cfg.Listen,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.WebhookURL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	errHandler := deps.ErrorHandler
	if errHandler == nil {
		errHandler = errors.NewHandler(log, false)
	}

	b := &Bot{
		telebot:    tb,
		log:        log,
		cfg:        cfg,
		deps:       deps,
		router:     NewRouter(log),
		keyboard:   keyboard.NewBuilder(log, keyboard.LocaleOptions(deps.Localizer), cfg.PageSize),
		errHandler: errHandler,
		chats:      make(map[string]*chat),
	}
	b.registry = session.NewRegistry(b.newWidget, log)
	b.registry.OnRemove(b.forgetChat)

	b.setupRouter()
	b.registerTelebotHandlers()

	return b, nil
}

// Start runs the telegram bot event loop. It blocks until Stop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// Registry exposes the widget registry for the session cleaner and the metrics collector.
func (b *Bot) Registry() *session.Registry {
	return b.registry
}

func (b *Bot) setupRouter() {
	b.router.Use(RecoveryMiddleware(b.log, b.errHandler, b.Translator))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(middleware.Metrics)
	b.router.Use(ErrorHandlingMiddleware(b.errHandler, b.Translator))
	b.router.Use(middleware.Idempotency(b.deps.Idempotency, b.cfg.IdempotencyTTL, b.RenderedTurn, b.log))
	if b.deps.RateLimit != nil {
		b.router.Use(b.deps.RateLimit.Middleware())
	}

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(b, b.log))
	end := handlers.NewEndHandler(b, b.log)
	b.router.RegisterCommand(CommandEnd, end)
	b.router.RegisterCommand(CommandCancel, end)
	b.router.RegisterCommand(CommandHelp, handlers.NewHelpHandler(b))

	choice := handlers.NewChoiceHandler(b, b.log)
	for _, unique := range keyboard.Uniques() {
		b.router.RegisterCallback(unique, choice)
	}

	b.router.SetDefault(handlers.NewTextHandler(b))
}

func (b *Bot) registerTelebotHandlers() {
	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
}

// newWidget is the registry factory. Every widget gets a fresh chat renderer.
func (b *Bot) newWidget(id string) *widget.Controller {
	chatID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		b.log.Error("widget id is not a chat id", slog.String("widget", id))
	}

	ch := newChat(b, telebot.ChatID(chatID))

	widgetCfg := b.cfg.Widget
	widgetCfg.ID = id
	w := widget.New(widgetCfg, widget.Deps{
		Machine:   b.deps.Machine,
		Catalog:   b.deps.Catalog,
		Host:      ch,
		Referrals: b.deps.Referrals,
		Metrics:   b.deps.Metrics,
		Log:       b.log.With(slog.String("widget", id)),
	})
	w.Observe(ch.observe)

	b.mu.Lock()
	b.chats[id] = ch
	b.mu.Unlock()

	return w
}

func (b *Bot) forgetChat(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.chats, id)
}

func (b *Bot) chat(id string) *chat {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chats[id]
}

func (b *Bot) translator(locale domain.Locale) i18n.Translator {
	if b.deps.Localizer == nil {
		return nil
	}
	return b.deps.Localizer.Translator(locale.String())
}

func chatKey(c telebot.Context) string {
	if c == nil || c.Chat() == nil {
		return ""
	}
	return strconv.FormatInt(c.Chat().ID, 10)
}
