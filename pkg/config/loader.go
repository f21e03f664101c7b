// Package config provides configuration loading and validation utilities.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/<APP_ENV>.yaml and environment variables, validates them, and returns the resulting Config.
func Load() (*Config, *viper.Viper, error) {
	// Missing env files are fine: production passes real environment variables.
	_ = godotenv.Load(".env.local", ".env")

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	return LoadFile(fmt.Sprintf("./configs/%s.yaml", env), env)
}

// LoadFile reads the given YAML file with environment overrides ("bot.token" is BOT_TOKEN).
func LoadFile(path, env string) (*Config, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	cfg.AppEnv = env

	return cfg, v, nil
}

// Watch calls onChange with the re-read configuration whenever the file changes.
// Invalid edits are reported through onError and otherwise ignored.
func Watch(v *viper.Viper, onChange func(*Config), onError func(error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		cfg, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "weva-assistant")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.max_size_mb", 100)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age_days", 14)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "")
	v.SetDefault("sentry.sample_rate", 1.0)

	v.SetDefault("bot.token", "")
	v.SetDefault("bot.mode", "polling")
	v.SetDefault("bot.timeout", 10*time.Second)
	v.SetDefault("bot.webhook_url", "")
	v.SetDefault("bot.listen", ":8443")
	v.SetDefault("bot.page_size", 6)

	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("catalog.base_url", "https://weva.live/api/v3")
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("catalog.probe_concurrency", 4)
	v.SetDefault("catalog.cache_ttl", 10*time.Minute)
	v.SetDefault("catalog.breaker.error_threshold", 0.5)
	v.SetDefault("catalog.breaker.min_requests", 10)
	v.SetDefault("catalog.breaker.open_timeout", 30*time.Second)
	v.SetDefault("catalog.breaker.half_open_max_requests", 1)

	v.SetDefault("assistant.default_locale", "en")
	v.SetDefault("assistant.store_limit", 5)
	v.SetDefault("assistant.service_limit", 5)
	v.SetDefault("assistant.fetch_timeout", 10*time.Second)
	v.SetDefault("assistant.booking_url_template", "https://weva.live/en/service/{id}")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.pool_timeout", 4*time.Second)
	v.SetDefault("redis.idle_timeout", 5*time.Minute)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.min_retry_backoff", 8*time.Millisecond)
	v.SetDefault("redis.max_retry_backoff", 512*time.Millisecond)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.global.limit", 0)
	v.SetDefault("rate_limit.global.window", "1s")
	v.SetDefault("rate_limit.per_chat.limit", 30)
	v.SetDefault("rate_limit.per_chat.window", "1m")
	v.SetDefault("rate_limit.commands.start.limit", 5)
	v.SetDefault("rate_limit.commands.start.window", "1m")
	v.SetDefault("rate_limit.commands.text.limit", 20)
	v.SetDefault("rate_limit.commands.text.window", "1m")
	v.SetDefault("rate_limit.commands.callback.limit", 60)
	v.SetDefault("rate_limit.commands.callback.window", "1m")

	v.SetDefault("idempotency.enabled", true)
	v.SetDefault("idempotency.ttl", 24*time.Hour)

	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.cleanup_interval", time.Minute)
	v.SetDefault("session.metrics_interval", 15*time.Second)

	v.SetDefault("jobs.enabled", false)
	v.SetDefault("jobs.concurrency", 2)
	v.SetDefault("jobs.warmup_cron", "*/10 * * * *")
	v.SetDefault("jobs.digest_cron", "0 6 * * *")
}
