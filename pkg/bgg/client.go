// Package bgg provides the BoardGameGeek XML API2 client used as the upstream
// source of the game cache. It performs single HTTP calls only: rate limiting,
// retries and caching are layered on top by the caller.
package bgg

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/bgg-cache/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Prometheus metrics for upstream operations.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bgg_upstream_requests_total",
		Help: "Total upstream requests by operation and status",
	}, []string{"operation", "status"})

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bgg_upstream_request_duration_seconds",
		Help:    "Upstream request duration in seconds by operation",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"operation"})
)

// Upstream operation names, used as metric labels and log fields.
const (
	OperationHot    = "hot"
	OperationSearch = "search"
	OperationThing  = "thing"
)

// DefaultBaseURL is the public XML API2 root.
const DefaultBaseURL = "https://boardgamegeek.com/xmlapi2"

// Config holds the client configuration.
type Config struct {
	// BaseURL is the XML API2 root, without trailing slash.
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Token is sent as a bearer token when set.
	Token string

	// Timeout per HTTP request.
	Timeout time.Duration

	// Logger for request-level events. Defaults to the global logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a configuration pointing at the public API.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
	}
}

// Client is the XML API2 client.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	logger := logging.NewLogger("bgg-client")
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "bgg-client").Logger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		config: cfg,
		logger: logger,
	}, nil
}

// FetchHot returns the ids of the current trending board games in upstream order.
// Ids that do not parse as positive integers are skipped.
func (c *Client) FetchHot(ctx context.Context) ([]int, error) {
	items, err := c.get(ctx, OperationHot, "/hot", url.Values{"type": {"boardgame"}})
	if err != nil {
		return nil, err
	}
	return c.itemIDs(OperationHot, items.Items), nil
}

// FetchSearch returns candidate ids for query. With exact set, only items whose
// name matches the query exactly are returned.
func (c *Client) FetchSearch(ctx context.Context, query string, exact bool) ([]int, error) {
	params := url.Values{
		"query": {query},
		"type":  {"boardgame"},
	}
	if exact {
		params.Set("exact", "1")
	}

	items, err := c.get(ctx, OperationSearch, "/search", params)
	if err != nil {
		return nil, err
	}
	return c.itemIDs(OperationSearch, items.Items), nil
}

// FetchDetail returns the raw record for id, including statistics.
func (c *Client) FetchDetail(ctx context.Context, id int) (Item, error) {
	params := url.Values{
		"id":    {strconv.Itoa(id)},
		"stats": {"1"},
	}

	items, err := c.get(ctx, OperationThing, "/thing", params)
	if err != nil {
		return Item{}, err
	}

	want := strconv.Itoa(id)
	for _, item := range items.Items {
		if strings.TrimSpace(item.ID) == want {
			return item, nil
		}
	}
	if len(items.Items) == 1 {
		got := strings.TrimSpace(items.Items[0].ID)
		if got == "" {
			return items.Items[0], nil
		}
		c.logger.Warn().
			Str("operation", OperationThing).
			Int("key", id).
			Str("returned_id", got).
			Msg("Upstream returned a different thing")
	}

	return Item{}, &UpstreamError{
		StatusCode: http.StatusOK,
		ErrorClass: ErrorClassClient,
		Message:    fmt.Sprintf("thing %d missing from response", id),
		Err:        ErrNotFound,
	}
}

// get performs one GET request and decodes the items envelope.
func (c *Client) get(ctx context.Context, operation, path string, params url.Values) (*Items, error) {
	startTime := time.Now()
	defer func() {
		upstreamRequestDuration.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())
	}()

	reqURL := c.config.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/xml")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	c.logger.Debug().
		Str("operation", operation).
		Str("url", reqURL).
		Msg("Executing upstream request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		upstreamRequestsTotal.WithLabelValues(operation, "network_error").Inc()
		c.logger.Error().Err(err).Str("operation", operation).Msg("HTTP request failed")
		return nil, &UpstreamError{
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	upstreamRequestsTotal.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		errClass := ClassifyStatus(resp.StatusCode)
		if errClass == "" {
			errClass = ErrorClassClient
		}
		_, _ = io.Copy(io.Discard, resp.Body)

		c.logger.Warn().
			Str("operation", operation).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Upstream request error")

		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
	}

	var items Items
	if err := xml.NewDecoder(resp.Body).Decode(&items); err != nil {
		c.logger.Warn().Err(err).Str("operation", operation).Msg("Failed to decode upstream response")
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "decode response",
			Err:        err,
		}
	}

	return &items, nil
}

// itemIDs extracts positive integer ids, dropping anything unparsable.
func (c *Client) itemIDs(operation string, items []Item) []int {
	ids := make([]int, 0, len(items))
	for _, item := range items {
		id, ok := ParseID(item.ID)
		if !ok {
			c.logger.Warn().
				Str("operation", operation).
				Str("raw_id", item.ID).
				Msg("Skipping item with invalid id")
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// ParseID parses an upstream identifier. Only positive integers are valid.
func ParseID(raw string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
