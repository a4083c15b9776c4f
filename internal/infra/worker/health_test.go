package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func getStatus(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec.Code, body.Status
}

func TestHealthServer_Liveness(t *testing.T) {
	server := NewHealthServer(":0", discardLogger(), nil)

	code, status := getStatus(t, server.Handler(), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", status)
}

func TestHealthServer_Readiness(t *testing.T) {
	metrics := NewWatcherMetrics(prometheus.NewRegistry())
	server := NewHealthServer(":0", discardLogger(), metrics)
	h := server.Handler()

	code, status := getStatus(t, h, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", status)
	assert.False(t, server.Ready())

	server.SetReady(true)
	code, status = getStatus(t, h, "/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", status)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Ready))

	server.SetReady(false)
	code, _ = getStatus(t, h, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Ready))
}

func TestHealthServer_StartAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	server := NewHealthServer(addr, discardLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, http.ErrServerClosed), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("health server did not stop")
	}
}
