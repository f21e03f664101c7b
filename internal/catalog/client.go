package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/Proton-105/weva-assistant/internal/domain"
	apperrors "github.com/Proton-105/weva-assistant/internal/errors"
)

const (
	DefaultBaseURL          = "https://weva.live/api/v3"
	defaultTimeout          = 10 * time.Second
	defaultProbeConcurrency = 4
	maxResponseBytes        = 4 << 20

	localeHeader = "Requestlocale"

	endpointSections = "section"
	endpointHome     = "home"
	endpointCenter   = "center"
)

// Config configures the HTTP catalog client.
type Config struct {
	BaseURL          string
	Timeout          time.Duration
	ProbeConcurrency int
	Breaker          apperrors.BreakerConfig
}

// Client talks to the Weva catalog over HTTP/JSON.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	breaker          *apperrors.CircuitBreaker
	probeConcurrency int
	observer         Observer
	log              *slog.Logger
}

// NewClient creates a catalog client. A nil observer disables request metrics.
func NewClient(cfg Config, observer Observer, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ProbeConcurrency <= 0 {
		cfg.ProbeConcurrency = defaultProbeConcurrency
	}

	return &Client{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:       &http.Client{Timeout: cfg.Timeout},
		breaker:          apperrors.NewCircuitBreaker(cfg.Breaker),
		probeConcurrency: cfg.ProbeConcurrency,
		observer:         observer,
		log:              log.With(slog.String("component", "catalog")),
	}
}

// ListCategories lists sections and keeps those whose detail has stores.
func (c *Client) ListCategories(ctx context.Context, locale domain.Locale) ([]domain.Category, error) {
	var sections []categoryDTO
	if err := c.get(ctx, endpointSections, "/section", locale, &sections); err != nil {
		return nil, err
	}

	keep := make([]bool, len(sections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.probeConcurrency)

	for i, section := range sections {
		i, section := i, section
		g.Go(func() error {
			detail, err := c.FetchCategoryDetail(gctx, section.ID, locale)
			if err != nil {
				return err
			}
			keep[i] = len(detail.Stores) > 0
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	categories := lo.FilterMap(sections, func(section categoryDTO, i int) (domain.Category, bool) {
		return section.toDomain(), keep[i]
	})

	c.log.DebugContext(ctx, "categories listed",
		slog.String("locale", locale.String()),
		slog.Int("sections", len(sections)),
		slog.Int("non_empty", len(categories)),
	)

	return categories, nil
}

// FetchCategoryDetail returns the stores of a category.
func (c *Client) FetchCategoryDetail(ctx context.Context, categoryID domain.ID, locale domain.Locale) (CategoryDetail, error) {
	var payload categoryDetailDTO
	if err := c.get(ctx, endpointHome, "/home/"+url.PathEscape(categoryID.String()), locale, &payload); err != nil {
		return CategoryDetail{}, err
	}
	return payload.toDomain(), nil
}

// FetchCenterDetail returns the departments and services of a center.
func (c *Client) FetchCenterDetail(ctx context.Context, centerID domain.ID, locale domain.Locale) (CenterDetail, error) {
	var payload centerDetailDTO
	if err := c.get(ctx, endpointCenter, "/center/"+url.PathEscape(centerID.String()), locale, &payload); err != nil {
		return CenterDetail{}, err
	}
	return payload.toDomain(), nil
}

// FetchServicesForDepartment filters the center's services by department membership.
func (c *Client) FetchServicesForDepartment(ctx context.Context, centerID, departmentID domain.ID, locale domain.Locale) ([]domain.Service, error) {
	detail, err := c.FetchCenterDetail(ctx, centerID, locale)
	if err != nil {
		return nil, err
	}

	return lo.Filter(detail.Services, func(s domain.Service, _ int) bool {
		return s.InDepartment(departmentID)
	}), nil
}

// Ping checks that the catalog answers the section listing.
func (c *Client) Ping(ctx context.Context) error {
	var sections []categoryDTO
	return c.get(ctx, endpointSections, "/section", domain.LocaleEnglish, &sections)
}

func (c *Client) get(ctx context.Context, endpoint, path string, locale domain.Locale, out any) error {
	start := time.Now()

	var canceled error
	err := c.breaker.Call(func() error {
		callErr := c.do(ctx, path, locale, out)
		if callErr != nil && errors.Is(ctx.Err(), context.Canceled) {
			// The caller went away; that says nothing about catalog health.
			canceled = callErr
			return nil
		}
		return callErr
	})
	if err == nil {
		err = canceled
	}

	outcome := "ok"
	switch {
	case errors.Is(err, apperrors.ErrCircuitOpen):
		outcome = "circuit_open"
	case err != nil:
		outcome = "error"
	}
	c.observer.ObserveCatalogRequest(endpoint, outcome, time.Since(start).Seconds())

	if err != nil {
		c.log.WarnContext(ctx, "catalog request failed",
			slog.String("endpoint", endpoint),
			slog.String("path", path),
			slog.String("locale", locale.String()),
			slog.String("error", err.Error()),
		)
		return apperrors.NewCatalogUnavailableError(endpoint, err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, path string, locale domain.Locale, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("catalog: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if locale != "" {
		req.Header.Set(localeHeader, locale.String())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("catalog: read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := string(body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return fmt.Errorf("catalog: status %d: %s", resp.StatusCode, msg)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("catalog: unmarshal response: %w", err)
	}

	return nil
}
