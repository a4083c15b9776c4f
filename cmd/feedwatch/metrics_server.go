package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"postlabor-feed/internal/usecase/announce"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthResponse represents a simple health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ChannelHealthResponse represents the health status of all announcement channels.
type ChannelHealthResponse struct {
	Healthy  bool                           `json:"healthy"`
	Channels []announce.ChannelHealthStatus `json:"channels"`
}

// channelHealthSource is satisfied by *announce.Service.
type channelHealthSource interface {
	ChannelHealth() []announce.ChannelHealthStatus
}

// newMetricsMux exposes:
//   - GET /metrics: Prometheus scrape endpoint for gatherer
//   - GET /health: liveness, always 200
//   - GET /health/channels: breaker state per channel, 503 if any enabled
//     channel has its breaker open
func newMetricsMux(gatherer prometheus.Gatherer, channels channelHealthSource) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /health/channels", channelHealthHandler(channels))
	return mux
}

// runMetricsServer serves newMetricsMux on addr until ctx is canceled and
// then shuts down within 5 seconds.
func runMetricsServer(ctx context.Context, logger *slog.Logger, addr string, gatherer prometheus.Gatherer, channels channelHealthSource) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      newMetricsMux(gatherer, channels),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server starting", slog.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("metrics server error", slog.Any("error", err))
		return err
	case <-ctx.Done():
	}

	logger.Info("metrics server shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", slog.Any("error", err))
		return err
	}
	logger.Info("metrics server stopped")
	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func channelHealthHandler(channels channelHealthSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := channels.ChannelHealth()

		healthy := true
		for _, s := range statuses {
			if s.Enabled && s.CircuitBreakerOpen {
				healthy = false
			}
		}

		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, ChannelHealthResponse{Healthy: healthy, Channels: statuses})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
