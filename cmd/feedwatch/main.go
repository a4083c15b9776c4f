// Command feedwatch runs the research feed headless: it polls the research
// backend, announces new items to webhook channels, and serves the status
// API, health probes and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	hhttp "postlabor-feed/internal/handler/http"
	"postlabor-feed/internal/infra/notifier"
	"postlabor-feed/internal/infra/research"
	"postlabor-feed/internal/infra/worker"
	"postlabor-feed/internal/observability/logging"
	"postlabor-feed/internal/observability/metrics"
	"postlabor-feed/internal/observability/tracing"
	"postlabor-feed/internal/usecase/announce"
	"postlabor-feed/internal/usecase/feed"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("feedwatch stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("feedwatch stopped")
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	watcherMetrics := worker.NewWatcherMetrics(reg)
	cfg, err := worker.LoadConfigFromEnv(logger, watcherMetrics)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Info("feedwatch configuration loaded",
		slog.String("source", cfg.Source),
		slog.String("mode", cfg.Mode),
		slog.Int("batch_limit", cfg.BatchLimit),
		slog.Duration("poll_interval", cfg.PollInterval),
		slog.Duration("fetch_timeout", cfg.FetchTimeout),
		slog.Bool("keepalive_enabled", cfg.KeepAliveEnabled),
		slog.Int("status_port", cfg.StatusPort),
		slog.Int("trusted_proxies", len(cfg.TrustedProxies)))

	shutdownTracing := tracing.Setup("feedwatch")
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	client, err := research.NewClient(cfg.ClientConfig(),
		research.WithLogger(logger),
		research.WithMetrics(research.NewMetrics(reg)))
	if err != nil {
		return fmt.Errorf("research client: %w", err)
	}

	src, err := cfg.BuildSource(client, logger)
	if err != nil {
		return err
	}

	ctrl, err := feed.NewController(src, cfg.FeedConfig(),
		feed.WithLogger(logger),
		feed.WithMetrics(feed.NewMetrics(reg)))
	if err != nil {
		return fmt.Errorf("feed controller: %w", err)
	}

	announcer, err := buildAnnouncer(cfg, reg, logger)
	if err != nil {
		return err
	}

	// The RSS source has no backend to keep awake.
	var keepAlive *worker.KeepAlive
	if cfg.KeepAliveEnabled && cfg.Source == worker.SourceResearch {
		keepAlive, err = worker.NewKeepAlive(client, cfg.KeepAliveSchedule, cfg.KeepAliveTimezone,
			worker.WithKeepAliveLogger(logger),
			worker.WithKeepAliveMetrics(watcherMetrics))
		if err != nil {
			return err
		}
	}

	refreshLimiter := hhttp.NewRateLimiter(hhttp.DefaultRefreshLimit, hhttp.DefaultRefreshWindow,
		hhttp.WithIPExtractor(hhttp.NewTrustedProxyExtractor(cfg.TrustedProxies, logger)))
	routerCfg := hhttp.RouterConfig{
		Feed:           ctrl,
		Gatherer:       reg,
		HTTPMetrics:    metrics.NewHTTPMetrics(reg),
		RefreshLimiter: refreshLimiter,
		Version:        getVersion(),
		Logger:         logger,
	}
	// A typed nil would read as a configured announcer.
	if announcer.Enabled() {
		routerCfg.Announce = announcer
	}
	status := hhttp.NewServer(portAddr(cfg.StatusPort), hhttp.NewRouter(routerCfg), logger)
	health := worker.NewHealthServer(portAddr(cfg.HealthPort), logger, watcherMetrics)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runMetricsServer(gctx, logger, portAddr(cfg.MetricsPort), reg, announcer)
	})
	g.Go(func() error {
		if err := health.Start(gctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return status.Run(gctx)
	})
	g.Go(func() error {
		refreshLimiter.RunCleanup(gctx, hhttp.DefaultCleanupInterval, logger)
		return nil
	})

	readiness, unsubReadiness := ctrl.Subscribe()
	defer unsubReadiness()
	g.Go(func() error {
		watchReadiness(gctx, readiness, health)
		return nil
	})

	if announcer.Enabled() {
		snapshots, unsubAnnounce := ctrl.Subscribe()
		defer unsubAnnounce()
		g.Go(func() error {
			return announcer.Run(gctx, snapshots)
		})
	}

	if keepAlive != nil {
		g.Go(func() error {
			return keepAlive.Run(gctx)
		})
	}

	ctrl.Initialize(gctx)
	g.Go(func() error {
		if err := ctrl.StartPolling(cfg.PollInterval); err != nil {
			ctrl.Close()
			return fmt.Errorf("start polling: %w", err)
		}
		<-gctx.Done()
		logger.Info("shutting down feed controller")
		ctrl.Close()
		ctrl.Wait()
		return nil
	})

	return g.Wait()
}

func buildAnnouncer(cfg *worker.WatchConfig, reg prometheus.Registerer, logger *slog.Logger) (*announce.Service, error) {
	var channels []announce.Channel
	if cfg.Discord.Enabled {
		channels = append(channels, announce.NewDiscordChannel(cfg.Discord, notifier.WithLogger(logger)))
		logger.Info("Discord channel initialized", slog.String("status", "enabled"))
	} else {
		logger.Info("Discord channel disabled")
	}
	if cfg.Slack.Enabled {
		channels = append(channels, announce.NewSlackChannel(cfg.Slack, notifier.WithLogger(logger)))
		logger.Info("Slack channel initialized", slog.String("status", "enabled"))
	} else {
		logger.Info("Slack channel disabled")
	}

	svc, err := announce.NewService(channels, cfg.AnnounceConfig(),
		announce.WithLogger(logger),
		announce.WithMetrics(announce.NewMetrics(reg)))
	if err != nil {
		return nil, fmt.Errorf("announce service: %w", err)
	}
	return svc, nil
}

// watchReadiness marks the watcher ready once the feed has items to serve.
func watchReadiness(ctx context.Context, snapshots <-chan feed.Snapshot, health *worker.HealthServer) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			health.SetReady(snap.Phase == feed.PhaseReady)
		}
	}
}

func portAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}
