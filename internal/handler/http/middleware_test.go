package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"sync"
	"testing"
	"time"

	"postlabor-feed/internal/handler/http/requestid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/feed/refresh", nil)
	req.RemoteAddr = ip + ":12345"
	return req
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	h := rl.Limit(okHandler())

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.1"))
		assert.Equal(t, want, rec.Code, "request %d", i+1)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.1"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "too many requests", body["error"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.2"))
	assert.Equal(t, http.StatusOK, rec.Code, "other clients are unaffected")
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allow("a"))
}

func TestRateLimiter_CleanupExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5, time.Minute)
	rl.now = func() time.Time { return now }

	rl.allow("old")
	now = now.Add(90 * time.Second)
	rl.allow("recent")
	now = now.Add(60 * time.Second)

	assert.Equal(t, 1, rl.CleanupExpired())
	_, ok := rl.records.Load("old")
	assert.False(t, ok)
	_, ok = rl.records.Load("recent")
	assert.True(t, ok)
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := NewRateLimiter(50, time.Minute)
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.allow("10.0.0.1") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestRateLimiter_IgnoresSpoofedForwardedFor(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	h := rl.Limit(okHandler())

	var codes []int
	for _, spoofed := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3", "203.0.113.4", "203.0.113.5"} {
		req := requestFrom("192.0.2.10")
		req.Header.Set("X-Forwarded-For", spoofed)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{
		http.StatusOK,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
	}, codes)
}

func TestRateLimiter_TrustedProxyKeysOnForwardedClient(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	rl := NewRateLimiter(1, time.Minute, WithIPExtractor(NewTrustedProxyExtractor(proxies, slog.Default())))
	h := rl.Limit(okHandler())

	for _, client := range []string{"203.0.113.1", "203.0.113.2"} {
		req := requestFrom("10.1.2.3")
		req.Header.Set("X-Forwarded-For", client+", 10.1.2.3")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "client %s behind the proxy", client)
	}
}

func TestRemoteAddrExtractor(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{"ipv4", "192.0.2.1:1234", "192.0.2.1"},
		{"ipv6", "[2001:db8::1]:443", "2001:db8::1"},
		{"without port", "192.0.2.9", "192.0.2.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			req.Header.Set("X-Forwarded-For", "198.51.100.1")
			assert.Equal(t, tt.want, RemoteAddrExtractor{}.ExtractIP(req))
		})
	}
}

func TestTrustedProxyExtractor(t *testing.T) {
	e := NewTrustedProxyExtractor([]netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("2001:db8::/32"),
	}, nil)

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"untrusted peer ignores xff", "192.0.2.1:1234", map[string]string{"X-Forwarded-For": "203.0.113.5"}, "192.0.2.1"},
		{"untrusted peer ignores x-real-ip", "192.0.2.1:1234", map[string]string{"X-Real-IP": "203.0.113.5"}, "192.0.2.1"},
		{"trusted peer first xff hop", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "203.0.113.5"},
		{"trusted peer invalid xff falls back to x-real-ip", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "garbage", "X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
		{"trusted peer without headers", "10.0.0.1:1", nil, "10.0.0.1"},
		{"trusted ipv6 peer", "[2001:db8::1]:443", map[string]string{"X-Forwarded-For": "203.0.113.9"}, "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, e.ExtractIP(req))
		})
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := requestid.Middleware(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))
	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set(requestid.RequestIDHeader, "req-7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, "req-7", entry["request_id"])
	assert.Equal(t, "/feed", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(len("short and stout")), entry["bytes"])
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil snapshot")
	}))
	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "nil snapshot")
}
