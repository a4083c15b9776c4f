package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"postlabor-feed/internal/domain/entity"
	"postlabor-feed/internal/usecase/announce"
	feedUC "postlabor-feed/internal/usecase/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFeed struct{ snap feedUC.Snapshot }

func (s staticFeed) Snapshot() feedUC.Snapshot { return s.snap }

type staticChannels []announce.ChannelHealthStatus

func (s staticChannels) ChannelHealth() []announce.ChannelHealthStatus { return s }

func serveReady(t *testing.T, h *ReadyHandler) (int, HealthResponse) {
	t.Helper()
	h.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestReadyHandler_Phases(t *testing.T) {
	tests := []struct {
		name       string
		snap       feedUC.Snapshot
		wantCode   int
		wantStatus string
	}{
		{"loading", feedUC.Snapshot{Phase: feedUC.PhaseLoading}, http.StatusServiceUnavailable, statusUnhealthy},
		{"error", feedUC.Snapshot{Phase: feedUC.PhaseError, LastError: "timeout"}, http.StatusServiceUnavailable, statusUnhealthy},
		{"ready", feedUC.Snapshot{Phase: feedUC.PhaseReady, Items: []entity.ContentItem{{ID: 1}}}, http.StatusOK, statusHealthy},
		{"ready but stale", feedUC.Snapshot{Phase: feedUC.PhaseReady, Items: []entity.ContentItem{{ID: 1}}, LastError: "timeout"}, http.StatusOK, statusDegraded},
		{"ready and empty", feedUC.Snapshot{Phase: feedUC.PhaseReady, Items: []entity.ContentItem{}}, http.StatusOK, statusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := serveReady(t, &ReadyHandler{Feed: staticFeed{tt.snap}, Version: "test"})
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, "test", resp.Version)
			assert.Equal(t, "2025-01-01T00:00:00Z", resp.Timestamp)
			assert.Equal(t, tt.snap.Phase.String(), resp.Checks["feed"].Details["phase"])
		})
	}
}

func TestReadyHandler_NoFeed(t *testing.T) {
	code, resp := serveReady(t, &ReadyHandler{})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not configured", resp.Checks["feed"].Message)
}

func TestReadyHandler_OpenBreakerDegradesAnnounceOnly(t *testing.T) {
	h := &ReadyHandler{
		Feed: staticFeed{feedUC.Snapshot{Phase: feedUC.PhaseReady}},
		Announce: staticChannels{
			{Name: "discord", Enabled: true, CircuitBreakerOpen: true, State: "open"},
			{Name: "slack", Enabled: true, State: "closed"},
		},
	}
	code, resp := serveReady(t, h)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, statusHealthy, resp.Status)
	announceCheck := resp.Checks["announce"]
	assert.Equal(t, statusDegraded, announceCheck.Status)
	assert.Equal(t, "open", announceCheck.Details["discord"])
	assert.Equal(t, "closed", announceCheck.Details["slack"])
}

func TestReadyHandler_NoChannels(t *testing.T) {
	h := &ReadyHandler{
		Feed:     staticFeed{feedUC.Snapshot{Phase: feedUC.PhaseReady}},
		Announce: staticChannels{},
	}
	_, resp := serveReady(t, h)
	assert.Equal(t, "no channels enabled", resp.Checks["announce"].Message)
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LiveHandler{}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
