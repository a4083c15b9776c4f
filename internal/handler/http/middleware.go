package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"postlabor-feed/internal/handler/http/requestid"
	"postlabor-feed/internal/handler/http/respond"
	"postlabor-feed/internal/handler/http/responsewriter"

	"go.opentelemetry.io/otel/trace"
)

// Logging logs one structured line per request, carrying the request id
// and the OpenTelemetry trace id for correlation.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := responsewriter.Wrap(w)

			next.ServeHTTP(wrapped, r)

			span := trace.SpanFromContext(r.Context())
			level := slog.LevelInfo
			if wrapped.StatusCode() >= 500 {
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "request completed",
				slog.String("request_id", requestid.FromContext(r.Context())),
				slog.String("trace_id", span.SpanContext().TraceID().String()),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", wrapped.StatusCode()),
				slog.Int("bytes", wrapped.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Recover turns a handler panic into a 500 response and an error log with
// the stack.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					respond.SafeError(w, http.StatusInternalServerError, errors.New("internal error"))
					logger.Error("panic recovered",
						slog.String("request_id", requestid.FromContext(r.Context())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
					)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type requestRecord struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// RateLimiter is a per-client-IP sliding window limiter.
type RateLimiter struct {
	records   sync.Map // map[string]*requestRecord
	limit     int
	window    time.Duration
	extractor IPExtractor
	now       func() time.Time
}

// RateLimiterOption customizes a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithIPExtractor replaces the default RemoteAddrExtractor.
func WithIPExtractor(e IPExtractor) RateLimiterOption {
	return func(rl *RateLimiter) { rl.extractor = e }
}

// NewRateLimiter allows limit requests per window for each client IP.
// Clients are keyed by RemoteAddr unless WithIPExtractor says otherwise.
func NewRateLimiter(limit int, window time.Duration, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{limit: limit, window: window, extractor: RemoteAddrExtractor{}, now: time.Now}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Limit rejects requests over the limit with 429.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(rl.extractor.ExtractIP(r)) {
			w.Header().Set("Retry-After", retryAfterSeconds(rl.window))
			respond.SafeError(w, http.StatusTooManyRequests, errors.New("too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ip string) bool {
	now := rl.now()
	val, _ := rl.records.LoadOrStore(ip, &requestRecord{})
	record := val.(*requestRecord)

	record.mu.Lock()
	defer record.mu.Unlock()

	record.timestamps = pruneBefore(record.timestamps, now.Add(-rl.window))
	if len(record.timestamps) >= rl.limit {
		return false
	}
	record.timestamps = append(record.timestamps, now)
	return true
}

// CleanupExpired drops clients with no request inside two windows and
// returns how many were removed.
func (rl *RateLimiter) CleanupExpired() int {
	cutoff := rl.now().Add(-2 * rl.window)
	removed := 0
	rl.records.Range(func(key, value any) bool {
		record := value.(*requestRecord)
		record.mu.Lock()
		record.timestamps = pruneBefore(record.timestamps, cutoff)
		empty := len(record.timestamps) == 0
		record.mu.Unlock()
		if empty {
			rl.records.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// RunCleanup calls CleanupExpired every interval until ctx is canceled.
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.CleanupExpired(); n > 0 {
				logger.Debug("rate limit cleanup completed", slog.Int("keys_removed", n))
			}
		}
	}
}

func pruneBefore(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
