// Package research is the HTTP client of the Post-Labor research agent.
//
// Every request passes through a token-bucket limiter and a circuit
// breaker, carries an X-Request-ID and W3C trace context, and is recorded
// in Prometheus. Failures are classified into TransportError, StatusError
// and DecodeError.
package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"postlabor-feed/internal/domain/entity"
	"postlabor-feed/internal/handler/http/requestid"
	"postlabor-feed/internal/observability/tracing"
	"postlabor-feed/internal/resilience/circuitbreaker"
	"postlabor-feed/internal/resilience/ratelimit"
	"postlabor-feed/internal/usecase/feed"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultBaseURL is the public deployment of the research agent.
	DefaultBaseURL = "https://postlabor-research-agent.onrender.com"

	// MinLimit and MaxLimit bound the limit query parameter accepted by the backend.
	MinLimit = 1
	MaxLimit = 50

	maxBodyBytes = 4 << 20
	maxErrorBody = 512
)

// ClientConfig configures the research client.
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// RateLimit is in requests per second. Zero or negative disables limiting.
	RateLimit float64
	RateBurst int
}

// DefaultClientConfig returns the production defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:   DefaultBaseURL,
		Timeout:   10 * time.Second,
		UserAgent: "postlabor-feed/1.0",
		RateLimit: 2,
		RateBurst: 4,
	}
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for dropped items and request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics enables request metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithCircuitBreaker replaces the default research API breaker.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// Client talks to the research agent's read-only JSON API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *ratelimit.Limiter
	breaker   *circuitbreaker.CircuitBreaker
	logger    *slog.Logger
	metrics   *Metrics
}

// NewClient validates cfg and builds a Client. Zero fields of cfg take
// their DefaultClientConfig values; BaseURL must be an http(s) URL.
func NewClient(cfg ClientConfig, opts ...Option) (*Client, error) {
	def := DefaultClientConfig()
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = def.BaseURL
	}
	if err := entity.ValidateBaseURL(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("research client: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = def.RateBurst
	}

	c := &Client{
		baseURL:   entity.NormalizeBaseURL(cfg.BaseURL),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   ratelimit.New(cfg.RateLimit, cfg.RateBurst),
		breaker:   circuitbreaker.New(circuitbreaker.ResearchAPIConfig()),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker { return c.breaker }

// ClampLimit bounds n to the range accepted by /api/research.
func ClampLimit(n int) int {
	switch {
	case n < MinLimit:
		return MinLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}

// Latest returns the newest limit updates, newest first.
// A response without an updates field yields an empty, non-nil slice.
func (c *Client) Latest(ctx context.Context, limit int) ([]entity.ContentItem, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(ClampLimit(limit)))

	var resp researchResponse
	if err := c.getJSON(ctx, "latest", "/api/research", q, &resp); err != nil {
		return nil, err
	}
	return toItems(resp.Updates, c.logger), nil
}

// All returns every stored update.
func (c *Client) All(ctx context.Context) ([]entity.ContentItem, error) {
	var resp researchResponse
	if err := c.getJSON(ctx, "all", "/api/research/all", nil, &resp); err != nil {
		return nil, err
	}
	return toItems(resp.Updates, c.logger), nil
}

// Fetch implements feed.Source.
func (c *Client) Fetch(ctx context.Context, q feed.Query) ([]entity.ContentItem, error) {
	if q.Archive {
		return c.All(ctx)
	}
	return c.Latest(ctx, q.Limit)
}

// Topics returns the topics the agent monitors.
func (c *Client) Topics(ctx context.Context) ([]string, error) {
	var resp topicsResponse
	if err := c.getJSON(ctx, "topics", "/api/research/topics", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Topics == nil {
		return []string{}, nil
	}
	return resp.Topics, nil
}

// History returns every topic that has been researched so far.
func (c *Client) History(ctx context.Context) ([]entity.TopicHistory, error) {
	var resp historyResponse
	if err := c.getJSON(ctx, "history", "/api/research/history", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]entity.TopicHistory, 0, len(resp.History))
	for _, h := range resp.History {
		out = append(out, h.toEntity())
	}
	return out, nil
}

// Health returns the backend's self-reported status.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var resp HealthStatus
	if err := c.getJSON(ctx, "health", "/health", nil, &resp); err != nil {
		return HealthStatus{}, err
	}
	return resp, nil
}

// Ping hits the keep-alive endpoint. A 2xx response without pong=true is a
// DecodeError.
func (c *Client) Ping(ctx context.Context) error {
	var resp pingResponse
	if err := c.getJSON(ctx, "ping", "/api/ping", nil, &resp); err != nil {
		return err
	}
	if !resp.Pong {
		return &DecodeError{Op: "ping", Err: errors.New("pong missing from response")}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	start := time.Now()
	ctx, span := tracing.StartClientSpan(ctx, "research."+op,
		attribute.String("research.endpoint", op),
		attribute.String("http.method", http.MethodGet),
	)
	defer span.End()

	err := c.doGetJSON(ctx, op, path, query, out)
	c.metrics.record(op, resultLabel(err), time.Since(start))
	if err != nil {
		tracing.RecordError(span, err)
		c.logger.Debug("research request failed",
			slog.String("endpoint", op),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
	}
	return err
}

func (c *Client) doGetJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Op: op, Err: err}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	body, err := circuitbreaker.Do(c.breaker, func() ([]byte, error) {
		return c.roundTrip(ctx, op, endpoint)
	})
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return statusErr
		}
		var transportErr *TransportError
		if errors.As(err, &transportErr) {
			return transportErr
		}
		return &TransportError{Op: op, Err: err}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}

// roundTrip performs one GET. Every non-2xx response counts as a breaker
// failure. Bodies larger than maxBodyBytes are truncated and then fail to decode.
func (c *Client) roundTrip(ctx context.Context, op, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	req.Header.Set(requestid.RequestIDHeader, reqID)
	tracing.InjectHeaders(ctx, req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	return body, nil
}

func resultLabel(err error) string {
	var (
		statusErr *StatusError
		decodeErr *DecodeError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &statusErr):
		return "status_error"
	case errors.As(err, &decodeErr):
		return "decode_error"
	default:
		return "transport_error"
	}
}
