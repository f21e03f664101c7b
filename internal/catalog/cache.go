package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Proton-105/weva-assistant/internal/domain"
)

const defaultCategoryTTL = 10 * time.Minute

// KV is the subset of the Redis client the cache needs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CachedCatalog caches category listings in Redis. Other calls pass through.
// Cache failures are logged and never fail the request.
type CachedCatalog struct {
	Catalog
	kv  KV
	ttl time.Duration
	log *slog.Logger
}

// NewCachedCatalog wraps next with a Redis-backed category cache.
func NewCachedCatalog(next Catalog, kv KV, ttl time.Duration, log *slog.Logger) *CachedCatalog {
	if ttl <= 0 {
		ttl = defaultCategoryTTL
	}
	if log == nil {
		log = slog.Default()
	}

	return &CachedCatalog{Catalog: next, kv: kv, ttl: ttl, log: log}
}

// ListCategories serves the listing from cache when present.
func (c *CachedCatalog) ListCategories(ctx context.Context, locale domain.Locale) ([]domain.Category, error) {
	cached, err := c.cached(ctx, locale)
	if err != nil {
		c.log.WarnContext(ctx, "category cache read failed", slog.String("locale", locale.String()), slog.String("error", err.Error()))
	}
	if cached != nil {
		return cached, nil
	}

	return c.Refresh(ctx, locale)
}

// Refresh lists categories from the wrapped catalog and stores the result.
func (c *CachedCatalog) Refresh(ctx context.Context, locale domain.Locale) ([]domain.Category, error) {
	categories, err := c.Catalog.ListCategories(ctx, locale)
	if err != nil {
		return nil, err
	}

	if len(categories) > 0 {
		if err := c.store(ctx, locale, categories); err != nil {
			c.log.WarnContext(ctx, "category cache write failed", slog.String("locale", locale.String()), slog.String("error", err.Error()))
		}
	}

	return categories, nil
}

// Invalidate drops the cached listing for locale.
func (c *CachedCatalog) Invalidate(ctx context.Context, locale domain.Locale) error {
	if c.kv == nil {
		return nil
	}

	if err := c.kv.Delete(ctx, categoryKey(locale)); err != nil {
		return fmt.Errorf("delete cached categories: %w", err)
	}
	return nil
}

func (c *CachedCatalog) cached(ctx context.Context, locale domain.Locale) ([]domain.Category, error) {
	if c.kv == nil {
		return nil, nil
	}

	data, err := c.kv.Get(ctx, categoryKey(locale))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached categories: %w", err)
	}

	var categories []domain.Category
	if err := json.Unmarshal([]byte(data), &categories); err != nil {
		return nil, fmt.Errorf("decode cached categories: %w", err)
	}
	if len(categories) == 0 {
		return nil, nil
	}

	return categories, nil
}

func (c *CachedCatalog) store(ctx context.Context, locale domain.Locale, categories []domain.Category) error {
	if c.kv == nil {
		return nil
	}

	payload, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("encode categories for cache: %w", err)
	}

	if err := c.kv.Set(ctx, categoryKey(locale), payload, c.ttl); err != nil {
		return fmt.Errorf("set cached categories: %w", err)
	}
	return nil
}

func categoryKey(locale domain.Locale) string {
	return fmt.Sprintf("catalog:categories:%s", locale)
}
