package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for the Weva booking assistant.
type Config struct {
	AppEnv      string            `mapstructure:"app_env"`
	App         AppConfig         `mapstructure:"app"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Sentry      SentryConfig      `mapstructure:"sentry"`
	Bot         BotConfig         `mapstructure:"bot"`
	Server      ServerConfig      `mapstructure:"server"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Assistant   AssistantConfig   `mapstructure:"assistant"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Database    DatabaseConfig    `mapstructure:"database"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Session     SessionConfig     `mapstructure:"session"`
	Jobs        JobsConfig        `mapstructure:"jobs"`
}

type AppConfig struct {
	Name string `mapstructure:"name" validate:"required"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
	// File enables rotating file output next to stdout.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

type BotConfig struct {
	Token      string        `mapstructure:"token" validate:"required"`
	Mode       string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout    time.Duration `mapstructure:"timeout"`
	WebhookURL string        `mapstructure:"webhook_url" validate:"required_if=Mode webhook"`
	Listen     string        `mapstructure:"listen"`
	PageSize   int           `mapstructure:"page_size" validate:"gte=0"`
}

// ServerConfig is the ops HTTP server: metrics and health probes.
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type CatalogConfig struct {
	BaseURL          string        `mapstructure:"base_url" validate:"required,url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	ProbeConcurrency int           `mapstructure:"probe_concurrency" validate:"gte=0"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	Breaker          BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	ErrorThreshold      float64       `mapstructure:"error_threshold" validate:"gte=0,lte=1"`
	MinRequests         int           `mapstructure:"min_requests" validate:"gte=0"`
	OpenTimeout         time.Duration `mapstructure:"open_timeout"`
	HalfOpenMaxRequests int           `mapstructure:"half_open_max_requests" validate:"gte=0"`
}

type AssistantConfig struct {
	DefaultLocale      string        `mapstructure:"default_locale" validate:"oneof=en ar"`
	StoreLimit         int           `mapstructure:"store_limit" validate:"gte=0"`
	ServiceLimit       int           `mapstructure:"service_limit" validate:"gte=0"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout"`
	BookingURLTemplate string        `mapstructure:"booking_url_template" validate:"required"`
}

type RedisConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Addr            string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	PoolTimeout     time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

// DatabaseConfig is the Postgres instance holding the booking referral audit.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host" validate:"required_if=Enabled true"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user" validate:"required_if=Enabled true"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name" validate:"required_if=Enabled true"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// GetDBConnectionString returns PostgreSQL DSN based on config values.
func (c DatabaseConfig) GetDBConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Backend is memory or redis. Redis falls back to memory when unreachable.
	Backend   string        `mapstructure:"backend" validate:"oneof=memory redis"`
	Whitelist []int64       `mapstructure:"whitelist"`
	Global    RateLimitRule `mapstructure:"global"`
	PerChat   RateLimitRule `mapstructure:"per_chat"`
	Commands  CommandRules  `mapstructure:"commands"`
}

// CommandRules limits individual update kinds on top of the per-chat rule.
type CommandRules struct {
	Start    RateLimitRule `mapstructure:"start"`
	Text     RateLimitRule `mapstructure:"text"`
	Callback RateLimitRule `mapstructure:"callback"`
}

type RateLimitRule struct {
	Limit  int    `mapstructure:"limit" validate:"gte=0"`
	Window string `mapstructure:"window"`
}

type IdempotencyConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MetricsInterval time.Duration `mapstructure:"metrics_interval"`
}

type JobsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Concurrency int    `mapstructure:"concurrency" validate:"gte=0"`
	WarmupCron  string `mapstructure:"warmup_cron"`
	DigestCron  string `mapstructure:"digest_cron"`
}
