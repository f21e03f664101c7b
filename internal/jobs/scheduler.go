package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	digestWindow = 24 * time.Hour
	digestLimit  = 10
)

type Scheduler interface {
	RegisterTasks() error
	Run() error
	Shutdown()
}

// ScheduleConfig holds the cron specs. An empty spec disables its task.
type ScheduleConfig struct {
	WarmupCron string
	DigestCron string
	Locales    []string
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	cfg            ScheduleConfig
	log            *slog.Logger
}

func NewScheduler(redisOpt asynq.RedisConnOpt, cfg ScheduleConfig, log *slog.Logger) Scheduler {
	if log == nil {
		log = slog.Default()
	}

	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		cfg:            cfg,
		log:            log,
	}
}

func (s *scheduler) RegisterTasks() error {
	if s.cfg.WarmupCron != "" {
		task, err := NewCatalogWarmupTask(s.cfg.Locales)
		if err != nil {
			return err
		}
		if _, err := s.asynqScheduler.Register(s.cfg.WarmupCron, task); err != nil {
			return err
		}
		s.log.InfoContext(context.Background(), "scheduler: registered catalog warmup task", slog.String("cron", s.cfg.WarmupCron))
	}

	if s.cfg.DigestCron != "" {
		task, err := NewReferralDigestTask(digestWindow, digestLimit)
		if err != nil {
			return err
		}
		if _, err := s.asynqScheduler.Register(s.cfg.DigestCron, task); err != nil {
			return err
		}
		s.log.InfoContext(context.Background(), "scheduler: registered referral digest task", slog.String("cron", s.cfg.DigestCron))
	}

	return nil
}

// Run starts enqueueing on schedule in the background.
func (s *scheduler) Run() error {
	s.log.InfoContext(context.Background(), "scheduler: starting")

	if err := s.asynqScheduler.Start(); err != nil {
		s.log.ErrorContext(context.Background(), "scheduler: start failed", "error", err)
		return err
	}
	return nil
}

func (s *scheduler) Shutdown() {
	s.log.InfoContext(context.Background(), "scheduler: shutting down")
	s.asynqScheduler.Shutdown()
}
