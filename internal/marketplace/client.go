package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sentinel errors surfaced by the client. Both are fatal to a crawl.
var (
	// ErrUpstreamUnavailable means the retry budget for one logical fetch is
	// exhausted: transport failures, non-2xx statuses, and undecodable
	// bodies all consume attempts.
	ErrUpstreamUnavailable = errors.New("marketplace unavailable")

	// ErrEmptyResponse means the upstream answered but the document lacks
	// the structure progress requires.
	ErrEmptyResponse = errors.New("marketplace returned empty payload")
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_requests_total",
			Help: "Total marketplace requests by outcome",
		},
		[]string{"outcome"},
	)

	requestRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_request_retries_total",
			Help: "Total retried marketplace request attempts",
		},
	)

	inFlightRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketplace_requests_in_flight",
			Help: "Requests currently holding the concurrency gate",
		},
	)
)

// Getter is the HTTP surface the client consumes. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy it.
type Getter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Config tunes the marketplace client.
type Config struct {
	// RequestLimit caps concurrent in-flight requests across all callers.
	RequestLimit int

	// Attempts is the retry budget per logical fetch.
	Attempts int

	// BackoffUnit scales the growing sleep between attempts: the n-th retry
	// waits n backoff units.
	BackoffUnit time.Duration
}

// DefaultConfig returns the limits the upstream API tolerates.
func DefaultConfig() Config {
	return Config{
		RequestLimit: RequestLimit,
		Attempts:     AttemptsCounter,
		BackoffUnit:  time.Second,
	}
}

// Client fetches marketplace documents with a process-wide concurrency gate
// and a bounded retry budget per logical fetch.
type Client struct {
	http   Getter
	gate   chan struct{}
	cfg    Config
	logger *slog.Logger
}

// NewClient creates a marketplace client on top of the given HTTP getter.
func NewClient(httpClient Getter, cfg Config, logger *slog.Logger) *Client {
	if cfg.RequestLimit <= 0 {
		cfg.RequestLimit = RequestLimit
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = AttemptsCounter
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = time.Second
	}
	return &Client{
		http:   httpClient,
		gate:   make(chan struct{}, cfg.RequestLimit),
		cfg:    cfg,
		logger: logger,
	}
}

// fetchJSON GETs url and decodes the body into dst, retrying bad attempts
// (transport error, non-2xx, undecodable JSON) with a growing backoff. After
// the n-th bad attempt it sleeps n backoff units. Exhausting the budget
// returns ErrUpstreamUnavailable.
func (c *Client) fetchJSON(ctx context.Context, url string, dst any) error {
	attemptsLeft := c.cfg.Attempts

	for attemptsLeft > 0 {
		err := c.doOnce(ctx, url, dst)
		if err == nil {
			requestsTotal.WithLabelValues("ok").Inc()
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		attemptsLeft--
		if attemptsLeft == 0 {
			requestsTotal.WithLabelValues("exhausted").Inc()
			c.logger.ErrorContext(ctx, "retry budget exhausted",
				slog.String("url", url),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("fetch %s: %w", url, ErrUpstreamUnavailable)
		}

		requestRetries.Inc()
		c.logger.InfoContext(ctx, "request error, retrying",
			slog.String("url", url),
			slog.Int("attempts_left", attemptsLeft),
			slog.String("error", err.Error()),
		)

		wait := time.Duration(c.cfg.Attempts-attemptsLeft) * c.cfg.BackoffUnit
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("fetch %s: %w", url, ErrUpstreamUnavailable)
}

// doOnce performs a single gated attempt.
func (c *Client) doOnce(ctx context.Context, url string, dst any) error {
	select {
	case c.gate <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	inFlightRequests.Inc()
	defer func() {
		inFlightRequests.Dec()
		<-c.gate
	}()

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		requestsTotal.WithLabelValues("transport_error").Inc()
		return fmt.Errorf("get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		requestsTotal.WithLabelValues("bad_status").Inc()
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		requestsTotal.WithLabelValues("decode_error").Inc()
		return fmt.Errorf("decode body: %w", err)
	}

	return nil
}

// MaxPrice reads the category-wide price ceiling from the priceU filter.
func (c *Client) MaxPrice(ctx context.Context, shard, query string) (int64, error) {
	url := FilterURL(shard, query)

	var resp filtersResponse
	if err := c.fetchJSON(ctx, url, &resp); err != nil {
		return 0, err
	}
	if resp.Data == nil {
		return 0, fmt.Errorf("filters for %s: %w", shard, ErrEmptyResponse)
	}

	for _, f := range resp.Data.Filters {
		if f.Key == "priceU" {
			return f.MaxPriceU, nil
		}
	}

	return 0, fmt.Errorf("priceU filter missing for %s: %w", shard, ErrEmptyResponse)
}

// CatalogPage fetches one listing page of an effective catalog query and
// returns its products. A structurally empty document consumes the retry
// budget like any other bad attempt, because paging cannot progress on it.
func (c *Client) CatalogPage(ctx context.Context, baseURL string, page int) ([]CatalogProduct, error) {
	url := fmt.Sprintf("%s&page=%d", baseURL, page)

	attemptsLeft := c.cfg.Attempts
	for {
		var resp catalogResponse
		if err := c.fetchJSON(ctx, url, &resp); err != nil {
			return nil, err
		}
		if resp.Data != nil {
			return resp.Data.Products, nil
		}

		attemptsLeft--
		if attemptsLeft == 0 {
			return nil, fmt.Errorf("catalog page %s: %w", url, ErrUpstreamUnavailable)
		}
		c.logger.InfoContext(ctx, "catalog page missing data, retrying",
			slog.String("url", url),
			slog.Int("attempts_left", attemptsLeft),
		)
		select {
		case <-time.After(time.Duration(c.cfg.Attempts-attemptsLeft) * c.cfg.BackoffUnit):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// BrandFilters returns the brand list (id, count) for one price-ranged query.
func (c *Client) BrandFilters(ctx context.Context, shard, query, priceRange string) ([]BrandItem, error) {
	url := BrandFilterURL(shard, query, priceRange)

	var resp filtersResponse
	if err := c.fetchJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil || len(resp.Data.Filters) == 0 {
		return nil, fmt.Errorf("brand filters for %s: %w", shard, ErrEmptyResponse)
	}

	return resp.Data.Filters[0].Items, nil
}

// CardDetails fetches detail cards for a `;`-joined id list. An answered but
// empty document yields an empty slice; the caller decides whether to drop
// it.
func (c *Client) CardDetails(ctx context.Context, ids string) ([]Card, error) {
	var resp cardsResponse
	if err := c.fetchJSON(ctx, CardDetailsURL(ids), &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, nil
	}
	return resp.Data.Products, nil
}

// FetchMenu downloads the full category tree document.
func (c *Client) FetchMenu(ctx context.Context) ([]MenuNode, error) {
	var nodes []MenuNode
	if err := c.fetchJSON(ctx, MainMenuURL, &nodes); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("main menu: %w", ErrEmptyResponse)
	}
	return nodes, nil
}
