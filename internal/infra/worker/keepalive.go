package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"postlabor-feed/internal/resilience/retry"

	"github.com/robfig/cron/v3"
)

// Pinger wakes the research backend. *research.Client implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KeepAlive pings the research backend on a cron schedule. The free
// hosting tier spins idle services down, and a cold start outlasts the
// feed's fetch timeout.
type KeepAlive struct {
	pinger   Pinger
	schedule string
	location *time.Location
	retry    retry.Config
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *WatcherMetrics
}

// KeepAliveOption configures a KeepAlive.
type KeepAliveOption func(*KeepAlive)

// WithKeepAliveRetry overrides retry.KeepAliveConfig.
func WithKeepAliveRetry(cfg retry.Config) KeepAliveOption {
	return func(k *KeepAlive) { k.retry = cfg }
}

// WithKeepAliveLogger sets the logger.
func WithKeepAliveLogger(l *slog.Logger) KeepAliveOption {
	return func(k *KeepAlive) {
		if l != nil {
			k.logger = l
		}
	}
}

// WithKeepAliveMetrics records every run in m.
func WithKeepAliveMetrics(m *WatcherMetrics) KeepAliveOption {
	return func(k *KeepAlive) { k.metrics = m }
}

// NewKeepAlive validates schedule and timezone and returns a KeepAlive.
func NewKeepAlive(p Pinger, schedule, timezone string, opts ...KeepAliveOption) (*KeepAlive, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("keep-alive schedule %q: %w", schedule, err)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("keep-alive timezone %q: %w", timezone, err)
	}
	k := &KeepAlive{
		pinger:   p,
		schedule: schedule,
		location: loc,
		retry:    retry.KeepAliveConfig(),
		timeout:  2 * time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// Run schedules pings until ctx is canceled, then waits for a running
// ping to finish.
func (k *KeepAlive) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(k.location))
	if _, err := c.AddFunc(k.schedule, func() {
		_ = k.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("schedule keep-alive: %w", err)
	}

	k.logger.Info("keep-alive scheduled",
		slog.String("schedule", k.schedule),
		slog.String("timezone", k.location.String()))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	k.logger.Info("keep-alive stopped")
	return nil
}

// RunOnce pings the backend, retrying while it wakes up.
func (k *KeepAlive) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	start := time.Now()
	err := retry.WithBackoff(ctx, k.retry, func() error {
		return k.pinger.Ping(ctx)
	})
	duration := time.Since(start)
	k.metrics.RecordKeepAlive(err, duration)

	if err != nil {
		k.logger.Warn("keep-alive ping failed",
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return err
	}
	k.logger.Debug("keep-alive ping succeeded", slog.Duration("duration", duration))
	return nil
}
