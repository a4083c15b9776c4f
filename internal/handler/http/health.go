// Package http is the status server of the feed daemon: a read-only JSON
// view of the feed controller with health, metrics and API docs, plus the
// middleware chain that wraps it.
package http

import (
	"context"
	"net/http"
	"time"

	"postlabor-feed/internal/handler/http/respond"
	"postlabor-feed/internal/usecase/announce"
	feedUC "postlabor-feed/internal/usecase/feed"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthResponse is the body of GET /health/ready.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the result of one readiness check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// SnapshotSource is satisfied by *feed.Controller.
type SnapshotSource interface {
	Snapshot() feedUC.Snapshot
}

// ChannelHealthSource is satisfied by *announce.Service.
type ChannelHealthSource interface {
	ChannelHealth() []announce.ChannelHealthStatus
}

// ReadyHandler reports whether the feed holds a batch. Readiness follows
// the feed only; open webhook breakers degrade the announce check without
// failing the probe.
type ReadyHandler struct {
	Feed     SnapshotSource
	Announce ChannelHealthSource
	Version  string
	now      func() time.Time
}

// ServeHTTP reports readiness.
// @Summary      Readiness probe
// @Description  200 once the feed phase is ready, 503 while loading or failed.
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health/ready [get]
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if h.now != nil {
		now = h.now
	}

	checks := map[string]CheckStatus{"feed": h.checkFeed(r.Context())}
	if h.Announce != nil {
		checks["announce"] = h.checkAnnounce()
	}

	resp := HealthResponse{
		Status:    checks["feed"].Status,
		Timestamp: now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}
	code := http.StatusOK
	if resp.Status == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, resp)
}

func (h *ReadyHandler) checkFeed(_ context.Context) CheckStatus {
	if h.Feed == nil {
		return CheckStatus{Status: statusUnhealthy, Message: "not configured"}
	}
	snap := h.Feed.Snapshot()
	details := map[string]any{
		"phase": snap.Phase.String(),
		"mode":  string(snap.Mode),
		"items": len(snap.Items),
	}
	if !snap.UpdatedAt.IsZero() {
		details["updated_at"] = snap.UpdatedAt.UTC().Format(time.RFC3339)
	}

	switch snap.Phase {
	case feedUC.PhaseReady:
		if snap.LastError != "" {
			return CheckStatus{Status: statusDegraded, Message: "serving stale batch", Details: details}
		}
		return CheckStatus{Status: statusHealthy, Details: details}
	case feedUC.PhaseLoading:
		return CheckStatus{Status: statusUnhealthy, Message: "first fetch pending", Details: details}
	default:
		return CheckStatus{Status: statusUnhealthy, Message: "feed unavailable", Details: details}
	}
}

func (h *ReadyHandler) checkAnnounce() CheckStatus {
	channels := h.Announce.ChannelHealth()
	details := make(map[string]any, len(channels))
	status := statusHealthy
	for _, ch := range channels {
		details[ch.Name] = ch.State
		if ch.CircuitBreakerOpen {
			status = statusDegraded
		}
	}
	if len(channels) == 0 {
		return CheckStatus{Status: statusHealthy, Message: "no channels enabled"}
	}
	return CheckStatus{Status: status, Details: details}
}

// LiveHandler always answers 200 while the process serves requests.
type LiveHandler struct{}

// ServeHTTP reports liveness.
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func (LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
