package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	hfeed "postlabor-feed/internal/handler/http/feed"
	"postlabor-feed/internal/handler/http/requestid"
	"postlabor-feed/internal/observability/metrics"
	"postlabor-feed/internal/observability/tracing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "postlabor-feed/docs" // swagger docs
)

// Default limits of the status server.
const (
	DefaultRequestTimeout  = 10 * time.Second
	DefaultRefreshLimit    = 6
	DefaultRefreshWindow   = time.Minute
	DefaultCleanupInterval = 5 * time.Minute
)

// FeedController is the part of *feed.Controller the status server uses.
type FeedController interface {
	hfeed.Controller
	SnapshotSource
}

// RouterConfig wires the status server.
type RouterConfig struct {
	Feed FeedController
	// Announce may be nil when no webhook channel is configured.
	Announce ChannelHealthSource
	// Gatherer backs GET /metrics; nil skips the route.
	Gatherer prometheus.Gatherer
	// HTTPMetrics records per-route request metrics; nil disables them.
	HTTPMetrics *metrics.HTTPMetrics
	// RefreshLimiter guards POST /feed/refresh; nil disables limiting.
	RefreshLimiter *RateLimiter
	RequestTimeout time.Duration
	Version        string
	Logger         *slog.Logger
}

// NewRouter builds the status API with its middleware chain:
// request id, tracing, recover, logging, metrics, input validation and
// timeout, outermost first.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	mux := http.NewServeMux()
	mux.Handle("GET /health", LiveHandler{})
	mux.Handle("GET /health/ready", &ReadyHandler{Feed: cfg.Feed, Announce: cfg.Announce, Version: cfg.Version})
	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	var refreshLimit func(http.Handler) http.Handler
	if cfg.RefreshLimiter != nil {
		refreshLimit = cfg.RefreshLimiter.Limit
	}
	hfeed.Register(mux, cfg.Feed, refreshLimit, logger)

	var h http.Handler = mux
	h = Timeout(timeout)(h)
	h = InputValidation()(h)
	if cfg.HTTPMetrics != nil {
		h = cfg.HTTPMetrics.Middleware(h)
	}
	h = Logging(logger)(h)
	h = Recover(logger)(h)
	h = tracing.Middleware(h)
	h = requestid.Middleware(h)
	return h
}

// Server runs the status API until its context is canceled.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer returns a server for handler on addr.
func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is canceled and then shuts down within 10 seconds.
// A clean shutdown returns nil.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status server starting", slog.String("addr", s.srv.Addr))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("status server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
