package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Proton-105/weva-assistant/internal/bot"
	"github.com/Proton-105/weva-assistant/internal/catalog"
	"github.com/Proton-105/weva-assistant/internal/database"
	"github.com/Proton-105/weva-assistant/internal/domain"
	apperrors "github.com/Proton-105/weva-assistant/internal/errors"
	"github.com/Proton-105/weva-assistant/internal/health"
	"github.com/Proton-105/weva-assistant/internal/i18n"
	"github.com/Proton-105/weva-assistant/internal/idempotency"
	"github.com/Proton-105/weva-assistant/internal/jobs"
	jobhandlers "github.com/Proton-105/weva-assistant/internal/jobs/handlers"
	"github.com/Proton-105/weva-assistant/internal/lifecycle"
	"github.com/Proton-105/weva-assistant/internal/middleware"
	"github.com/Proton-105/weva-assistant/internal/ratelimit"
	"github.com/Proton-105/weva-assistant/internal/referral"
	"github.com/Proton-105/weva-assistant/internal/session"
	"github.com/Proton-105/weva-assistant/internal/state"
	"github.com/Proton-105/weva-assistant/internal/widget"
	"github.com/Proton-105/weva-assistant/pkg/config"
	"github.com/Proton-105/weva-assistant/pkg/graceful"
	"github.com/Proton-105/weva-assistant/pkg/logger"
	"github.com/Proton-105/weva-assistant/pkg/metrics"
	pkgredis "github.com/Proton-105/weva-assistant/pkg/redis"
)

const (
	shutdownTimeout    = 30 * time.Second
	rateLimitMaxWindow = 10 * time.Minute
	storeCleanupPeriod = time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "weva assistant: %v\n", err)
		os.Exit(1)
	}
}

// app carries what the wiring steps share.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	checker  *health.Checker
	shutdown *lifecycle.Shutdown
	group    *errgroup.Group
	ctx      context.Context

	redis     *pkgredis.Client
	cached    *catalog.CachedCatalog
	referrals *referral.Store
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return err
	}

	log, level := logger.NewWithLevel(*cfg)
	slog.SetDefault(log)

	if cfg.Sentry.Enabled {
		if err := logger.InitSentry(cfg.Sentry, cfg.AppEnv); err != nil {
			log.Error("sentry init failed", slog.Any("error", err))
		}
		defer logger.FlushSentry(2 * time.Second)
	}

	config.Watch(v, func(next *config.Config) {
		level.Set(logger.ParseLevel(next.Logger.Level))
		log.Info("configuration reloaded", slog.String("log_level", next.Logger.Level))
	}, func(err error) {
		log.Warn("ignoring invalid configuration change", slog.Any("error", err))
	})

	log.Info("starting weva assistant",
		slog.String("env", cfg.AppEnv),
		slog.String("bot_mode", cfg.Bot.Mode),
		slog.String("ops_port", cfg.Server.Port),
	)

	group, gctx := errgroup.WithContext(ctx)
	a := &app{
		cfg:      cfg,
		log:      log,
		checker:  health.NewChecker(log),
		shutdown: lifecycle.NewShutdown(log),
		group:    group,
		ctx:      gctx,
	}

	if err := a.start(); err != nil {
		stop()
		_ = a.stop()
		return err
	}

	<-gctx.Done()
	log.Info("shutdown signal received")

	stopErr := a.stop()
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Join(err, stopErr)
	}
	return stopErr
}

func (a *app) start() error {
	state.RegisterTransitionRecorder(metrics.RecordStepTransition)

	errHandler := apperrors.NewHandler(a.log, a.cfg.Sentry.Enabled)
	errHandler.OnError(metrics.RecordError)

	localizer, err := i18n.Load(a.cfg.Assistant.DefaultLocale)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}

	machine := state.NewMachine(localizer, state.Options{
		StoreLimit:    a.cfg.Assistant.StoreLimit,
		ServiceLimit:  a.cfg.Assistant.ServiceLimit,
		DefaultLocale: domain.Locale(a.cfg.Assistant.DefaultLocale),
	})

	if err := a.startRedis(); err != nil {
		return err
	}
	cat := a.startCatalog()
	if err := a.startDatabase(); err != nil {
		return err
	}

	deps := bot.Deps{
		Machine:      machine,
		Catalog:      cat,
		Metrics:      metrics.Sink{},
		Localizer:    localizer,
		ErrorHandler: errHandler,
		Idempotency:  a.idempotency(),
		RateLimit:    a.rateLimit(),
		Log:          a.log,
	}
	if a.referrals != nil {
		deps.Referrals = a.referrals
	}

	tg, err := bot.New(bot.Config{
		Token:          a.cfg.Bot.Token,
		Mode:           a.cfg.Bot.Mode,
		Timeout:        a.cfg.Bot.Timeout,
		WebhookURL:     a.cfg.Bot.WebhookURL,
		Listen:         a.cfg.Bot.Listen,
		PageSize:       a.cfg.Bot.PageSize,
		IdempotencyTTL: a.cfg.Idempotency.TTL,
		Widget: widget.Config{
			FetchTimeout:       a.cfg.Assistant.FetchTimeout,
			BookingURLTemplate: a.cfg.Assistant.BookingURLTemplate,
		},
	}, deps)
	if err != nil {
		return err
	}
	a.checker.AddCheck("telegram", health.NewTelegramChecker(tg.Telebot()))

	a.group.Go(func() error {
		tg.Start()
		return nil
	})
	a.shutdown.Register(lifecycle.PhaseIngress, "telegram", func(context.Context) error {
		tg.Stop()
		return nil
	})

	cleaner := session.NewCleaner(tg.Registry(), a.log, a.cfg.Session.TTL, a.cfg.Session.CleanupInterval)
	a.background(cleaner.Run)
	a.background(metrics.NewWidgetCollector(tg.Registry(), a.cfg.Session.MetricsInterval).Run)
	a.shutdown.Register(lifecycle.PhaseWorkers, "widgets", func(ctx context.Context) error {
		tg.Registry().CloseAll(ctx)
		return nil
	})

	if err := a.startJobs(); err != nil {
		return err
	}

	a.startOpsServer()
	return nil
}

// background runs fn until the app context ends.
func (a *app) background(fn func(context.Context)) {
	a.group.Go(func() error {
		fn(a.ctx)
		return nil
	})
}

func (a *app) startRedis() error {
	if !a.cfg.Redis.Enabled {
		return nil
	}

	client, err := pkgredis.New(a.ctx, a.cfg.Redis)
	if err != nil {
		return err
	}
	a.redis = client

	a.checker.AddCheck("redis", health.NewRedisChecker(client))
	a.shutdown.Register(lifecycle.PhaseStorage, "redis", func(context.Context) error {
		return client.Close()
	})
	return nil
}

func (a *app) startCatalog() catalog.Catalog {
	breaker := a.cfg.Catalog.Breaker
	client := catalog.NewClient(catalog.Config{
		BaseURL:          a.cfg.Catalog.BaseURL,
		Timeout:          a.cfg.Catalog.Timeout,
		ProbeConcurrency: a.cfg.Catalog.ProbeConcurrency,
		Breaker: apperrors.BreakerConfig{
			ErrorThreshold:      breaker.ErrorThreshold,
			MinRequests:         breaker.MinRequests,
			OpenTimeout:         breaker.OpenTimeout,
			HalfOpenMaxRequests: breaker.HalfOpenMaxRequests,
			OnStateChange: func(from, to apperrors.State) {
				metrics.RecordCircuitState(to.String())
				a.log.Warn("catalog circuit breaker changed state",
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
			},
		},
	}, metrics.Sink{}, a.log)
	metrics.RecordCircuitState(apperrors.StateClosed.String())
	a.checker.AddCheck("catalog", health.NewCatalogChecker(client))

	if a.redis == nil {
		return client
	}

	a.cached = catalog.NewCachedCatalog(client, pkgredis.NewMetricsClient(a.redis), a.cfg.Catalog.CacheTTL, a.log)
	return a.cached
}

func (a *app) startDatabase() error {
	if !a.cfg.Database.Enabled {
		return nil
	}

	db, err := database.Open(a.ctx, database.Config{
		DSN:             a.cfg.Database.GetDBConnectionString(),
		MaxOpenConns:    a.cfg.Database.MaxOpenConns,
		MaxIdleConns:    a.cfg.Database.MaxIdleConns,
		ConnMaxLifetime: a.cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	a.shutdown.Register(lifecycle.PhaseStorage, "postgres", func(context.Context) error {
		return db.Close()
	})

	if err := database.NewMigrator(db, a.log).Apply(a.ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	a.referrals = referral.NewStore(db)
	a.checker.AddCheck("postgres", health.NewDBChecker(db))
	return nil
}

func (a *app) rawRedis() *goredis.Client {
	if a.redis == nil {
		return nil
	}
	return a.redis.Client
}

func (a *app) idempotency() idempotency.Manager {
	if !a.cfg.Idempotency.Enabled {
		return nil
	}

	if raw := a.rawRedis(); raw != nil {
		return idempotency.NewManager(idempotency.NewRedisStore(raw, a.log), a.log)
	}

	store := idempotency.NewMemoryStore()
	a.background(func(ctx context.Context) { store.Run(ctx, storeCleanupPeriod) })
	return idempotency.NewManager(store, a.log)
}

func (a *app) rateLimit() *middleware.RateLimitMiddleware {
	if !a.cfg.RateLimit.Enabled {
		return nil
	}

	memory := ratelimit.NewMemoryLimiter(a.log)
	var limiter ratelimit.Limiter = memory

	raw := a.rawRedis()
	if a.cfg.RateLimit.Backend == "redis" && raw != nil {
		limiter = ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(raw, a.log), memory, a.log)
	} else {
		raw = nil
	}

	a.background(ratelimit.NewCleaner(raw, memory, a.log, storeCleanupPeriod, rateLimitMaxWindow).Run)
	return middleware.NewRateLimitMiddleware(limiter, ratelimit.NewRules(a.cfg.RateLimit), a.log)
}

func (a *app) startJobs() error {
	if !a.cfg.Jobs.Enabled || a.redis == nil {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	}

	worker := jobs.NewWorker(redisOpt, a.cfg.Jobs.Concurrency, jobs.DefaultQueues, a.log)
	schedule := jobs.ScheduleConfig{}

	if a.cached != nil {
		worker.RegisterHandler(jobs.TaskTypeCatalogWarmup, jobhandlers.NewCatalogWarmupHandler(a.cached, a.log))
		schedule.WarmupCron = a.cfg.Jobs.WarmupCron
	}
	if a.referrals != nil {
		worker.RegisterHandler(jobs.TaskTypeReferralDigest, jobhandlers.NewReferralDigestHandler(a.referrals, a.log))
		schedule.DigestCron = a.cfg.Jobs.DigestCron
	}

	scheduler := jobs.NewScheduler(redisOpt, schedule, a.log)
	if err := scheduler.RegisterTasks(); err != nil {
		return fmt.Errorf("register scheduled tasks: %w", err)
	}

	if err := worker.Start(); err != nil {
		return fmt.Errorf("start jobs worker: %w", err)
	}
	if err := scheduler.Run(); err != nil {
		worker.Shutdown()
		return fmt.Errorf("start scheduler: %w", err)
	}

	enqueuer := jobs.NewEnqueuer(redisOpt, a.log)
	if a.cached != nil {
		if _, err := enqueuer.WarmCatalog(a.ctx, nil); err != nil {
			a.log.Warn("initial catalog warmup not enqueued", slog.Any("error", err))
		}
	}

	a.shutdown.Register(lifecycle.PhaseWorkers, "jobs", func(context.Context) error {
		scheduler.Shutdown()
		worker.Shutdown()
		return enqueuer.Close()
	})
	return nil
}

func (a *app) startOpsServer() {
	probes := lifecycle.NewProbes(a.checker, a.log)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", lifecycle.LivenessHandler(probes))
	mux.Handle("/readyz", lifecycle.ReadinessHandler(probes))

	srv := graceful.NewServer(a.log, &http.Server{
		Addr:              a.cfg.Server.Port,
		Handler:           logger.Middleware(middleware.HTTPLogging(a.log)(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}, a.cfg.Server.ShutdownTimeout)

	a.group.Go(func() error {
		return srv.ListenAndServe(a.ctx)
	})
	a.shutdown.Register(lifecycle.PhaseIngress, "readiness", func(context.Context) error {
		probes.Drain()
		return nil
	})
}

func (a *app) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.shutdown.Execute(ctx)
}
