package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"postlabor-feed/internal/domain/entity"
	"postlabor-feed/internal/handler/http/requestid"
	"postlabor-feed/internal/resilience/ratelimit"

	"github.com/google/uuid"
)

const (
	defaultMaxAttempts = 2
	defaultRetryDelay  = 5 * time.Second
	defaultRetryAfter  = 5 * time.Second
	maxErrorBody       = 1 << 10
	truncationSuffix   = "..."
)

// RateLimitError represents a 429 rate limit error from a webhook service.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a 4xx client error from a webhook service.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx server error from a webhook service.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

func is429Error(err error) (*RateLimitError, bool) {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr, true
	}
	return nil, false
}

// isRetryableError reports whether err is worth another attempt.
// 429 is handled separately by is429Error.
func isRetryableError(err error) bool {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return true
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return false
	}
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// truncate shortens text to at most maxRunes runes, suffix included.
func truncate(text string, maxRunes int, suffix string) string {
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	keep := maxRunes - utf8.RuneCountInString(suffix)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(text)
	return string(runes[:keep]) + suffix
}

// Option configures a Discord or Slack notifier.
type Option func(*webhook)

// WithHTTPClient replaces the HTTP client built from the config timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(w *webhook) {
		if c != nil {
			w.httpClient = c
		}
	}
}

// WithLogger sets the logger used for delivery attempts.
func WithLogger(l *slog.Logger) Option {
	return func(w *webhook) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithLimiter replaces the service's default rate limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(w *webhook) {
		if l != nil {
			w.limiter = l
		}
	}
}

// WithRetry overrides the attempt budget and the base delay between
// attempts. The delay grows linearly with the attempt number.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(w *webhook) {
		if maxAttempts > 0 {
			w.maxAttempts = maxAttempts
		}
		if baseDelay >= 0 {
			w.baseDelay = baseDelay
		}
	}
}

// webhook is the delivery path shared by the chat services.
type webhook struct {
	service     string
	url         string
	httpClient  *http.Client
	limiter     *ratelimit.Limiter
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

func newWebhook(service, url string, timeout time.Duration, limiter *ratelimit.Limiter, opts []Option) *webhook {
	w := &webhook{
		service:     service,
		url:         url,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     limiter,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultRetryDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// deliver waits for a limiter token once and then posts payload with retries.
func (w *webhook) deliver(ctx context.Context, item entity.ContentItem, payload any) error {
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	logger := w.logger.With(
		slog.String("request_id", reqID),
		slog.String("channel", w.service),
		slog.Int64("item_id", item.ID))

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	if err := w.limiter.Wait(ctx); err != nil {
		logger.Error("Rate limiter error", slog.Any("error", err))
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.post(ctx, reqID, body)
		if err == nil {
			logger.Info("Webhook notification delivered", slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		if rateLimitErr, ok := is429Error(err); ok {
			logger.Warn("Webhook rate limit hit, backing off",
				slog.Duration("retry_after", rateLimitErr.RetryAfter),
				slog.Int("attempt", attempt))
			if attempt == w.maxAttempts {
				break
			}
			if err := sleep(ctx, rateLimitErr.RetryAfter); err != nil {
				return fmt.Errorf("context canceled during rate limit backoff: %w", err)
			}
			continue
		}

		if !isRetryableError(err) {
			logger.Error("Webhook notification failed with non-retryable error",
				slog.Any("error", err),
				slog.Int("attempt", attempt))
			return err
		}

		if attempt < w.maxAttempts {
			delay := w.baseDelay * time.Duration(attempt)
			logger.Warn("Webhook request failed, retrying",
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
			if err := sleep(ctx, delay); err != nil {
				return fmt.Errorf("context canceled during retry backoff: %w", err)
			}
		}
	}

	logger.Error("Webhook notification failed after all retries",
		slog.Any("error", lastErr),
		slog.Int("max_attempts", w.maxAttempts))
	return fmt.Errorf("%s notification failed after %d attempts: %w", w.service, w.maxAttempts, lastErr)
}

func (w *webhook) post(ctx context.Context, reqID string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestid.RequestIDHeader, reqID)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		// *url.Error carries the webhook URL, which embeds the token.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("execute http request: %w", ctxErr)
		}
		return fmt.Errorf("execute http request: %s", redactURL(err, w.url))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    w.service + " rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, respBody),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API client error: %s", w.service, string(respBody)),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API server error: %s", w.service, string(respBody)),
		}
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(respBody))
}

// retryAfterBody is the 429 body shape used by Discord. Slack only sends
// the Retry-After header.
type retryAfterBody struct {
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
}

// extractRetryAfter reads retry_after (seconds, fractional) from the JSON
// body, then the Retry-After header, then falls back to 5s.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var parsed retryAfterBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.RetryAfter > 0 {
		return time.Duration(parsed.RetryAfter * float64(time.Second))
	}
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultRetryAfter
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func redactURL(err error, raw string) string {
	return strings.ReplaceAll(err.Error(), raw, "[REDACTED]")
}

// itemLink picks the URL an announcement links to: the first cited source.
func itemLink(item entity.ContentItem) string {
	for _, s := range item.Sources {
		if s.URL != "" {
			return s.URL
		}
	}
	return ""
}
