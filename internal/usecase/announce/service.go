package announce

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"postlabor-feed/internal/domain/entity"
	"postlabor-feed/internal/resilience/circuitbreaker"
	"postlabor-feed/internal/usecase/feed"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxPerBatch   = 5
	DefaultMaxConcurrent = 4
	DefaultSendTimeout   = 30 * time.Second

	// maxSeen bounds the seen set. Past it the set is rebuilt from the
	// current batch.
	maxSeen = 1000
)

// Config bounds a Service.
type Config struct {
	// MaxPerBatch caps announcements per applied fetch. Extra new items are
	// marked seen without being announced.
	MaxPerBatch int
	// MaxConcurrent caps channels delivering at the same time.
	MaxConcurrent int
	// SendTimeout bounds one channel's delivery of one item.
	SendTimeout time.Duration
}

// DefaultConfig returns 5 items per batch, 4 concurrent channels and a 30s
// send timeout.
func DefaultConfig() Config {
	return Config{
		MaxPerBatch:   DefaultMaxPerBatch,
		MaxConcurrent: DefaultMaxConcurrent,
		SendTimeout:   DefaultSendTimeout,
	}
}

// Validate checks that every limit is positive.
func (c Config) Validate() error {
	if c.MaxPerBatch < 1 {
		return fmt.Errorf("%w: max per batch must be positive, got %d", ErrInvalidConfig, c.MaxPerBatch)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("%w: max concurrent must be positive, got %d", ErrInvalidConfig, c.MaxConcurrent)
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("%w: send timeout must be positive, got %v", ErrInvalidConfig, c.SendTimeout)
	}
	return nil
}

// ChannelHealthStatus is the delivery health of one channel.
type ChannelHealthStatus struct {
	Name               string `json:"name"`
	Enabled            bool   `json:"enabled"`
	CircuitBreakerOpen bool   `json:"circuit_breaker_open"`
	State              string `json:"state"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics enables announce_* metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithBreakerConfig overrides the per-channel circuit breaker settings.
// The channel name is filled in.
func WithBreakerConfig(cfg circuitbreaker.Config) Option {
	return func(s *Service) { s.breakerCfg = &cfg }
}

// Service announces new items from feed snapshots.
type Service struct {
	channels   []Channel
	breakers   map[string]*circuitbreaker.CircuitBreaker
	breakerCfg *circuitbreaker.Config
	cfg        Config
	logger     *slog.Logger
	metrics    *Metrics

	mu      sync.Mutex
	seen    map[int64]struct{}
	seeded  bool
	mode    feed.Mode
	lastSeq uint64
}

// NewService creates a Service delivering to channels.
func NewService(channels []Channel, cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		channels: channels,
		breakers: make(map[string]*circuitbreaker.CircuitBreaker, len(channels)),
		cfg:      cfg,
		logger:   slog.Default(),
		seen:     make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, ch := range channels {
		bc := circuitbreaker.WebhookConfig(ch.Name())
		if s.breakerCfg != nil {
			bc = *s.breakerCfg
			bc.Name = ch.Name()
		}
		s.breakers[ch.Name()] = circuitbreaker.New(bc)
	}
	s.metrics.setChannelsEnabled(s.enabledCount())
	return s, nil
}

// Enabled reports whether any channel is enabled.
func (s *Service) Enabled() bool {
	return s.enabledCount() > 0
}

func (s *Service) enabledCount() int {
	n := 0
	for _, ch := range s.channels {
		if ch.IsEnabled() {
			n++
		}
	}
	return n
}

// Run consumes snapshots until ctx is done or snapshots is closed.
func (s *Service) Run(ctx context.Context, snapshots <-chan feed.Snapshot) error {
	s.logger.Info("Announcer started", slog.Int("enabled_channels", s.enabledCount()))
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			s.Observe(ctx, snap)
		}
	}
}

// Observe handles one snapshot and blocks until its announcements are
// delivered or given up. It returns the items that were announced.
//
// Only Ready snapshots from a newly applied, successful fetch count. The
// first one, and the first one fetched after a mode switch, seeds the seen
// set.
func (s *Service) Observe(ctx context.Context, snap feed.Snapshot) []entity.ContentItem {
	fresh := s.selectNew(snap)
	if len(fresh) == 0 || !s.Enabled() {
		return fresh
	}
	s.dispatch(ctx, fresh)
	return fresh
}

func (s *Service) selectNew(snap feed.Snapshot) []entity.ContentItem {
	if snap.Phase != feed.PhaseReady {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Same Seq means no fetch was applied. That covers selection changes
	// and the mode switch itself, whose snapshot still carries the
	// previous mode's items.
	if s.seeded && snap.Seq == s.lastSeq {
		return nil
	}
	s.lastSeq = snap.Seq
	// A failed fetch keeps whatever items were already on screen.
	if snap.LastError != "" {
		return nil
	}

	if !s.seeded || snap.Mode != s.mode {
		s.seen = make(map[int64]struct{}, len(snap.Items))
		for _, it := range snap.Items {
			s.seen[it.ID] = struct{}{}
		}
		s.seeded = true
		s.mode = snap.Mode
		s.metrics.setSeen(len(s.seen))
		s.logger.Info("Seeded announced items",
			slog.Int("items", len(snap.Items)),
			slog.String("mode", string(snap.Mode)))
		return nil
	}

	var fresh []entity.ContentItem
	skipped := 0
	for _, it := range snap.Items {
		if _, ok := s.seen[it.ID]; ok {
			continue
		}
		s.seen[it.ID] = struct{}{}
		if len(fresh) < s.cfg.MaxPerBatch {
			fresh = append(fresh, it.Clone())
		} else {
			skipped++
		}
	}
	if skipped > 0 {
		s.logger.Warn("Announcement cap reached, skipping new items",
			slog.Int("skipped", skipped),
			slog.Int("max_per_batch", s.cfg.MaxPerBatch))
		s.metrics.recordSkipped(skipped)
	}

	if len(s.seen) > maxSeen {
		s.seen = make(map[int64]struct{}, len(snap.Items))
		for _, it := range snap.Items {
			s.seen[it.ID] = struct{}{}
		}
	}
	s.metrics.setSeen(len(s.seen))
	return fresh
}

// dispatch delivers items to every enabled channel. Each channel gets the
// items in feed order; channels run in parallel up to MaxConcurrent.
func (s *Service) dispatch(ctx context.Context, items []entity.ContentItem) {
	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrent)
	for _, ch := range s.channels {
		if !ch.IsEnabled() {
			continue
		}
		g.Go(func() error {
			for _, item := range items {
				s.notifyChannel(ctx, ch, item)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) notifyChannel(ctx context.Context, ch Channel, item entity.ContentItem) {
	logger := s.logger.With(
		slog.String("channel", ch.Name()),
		slog.Int64("item_id", item.ID))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in announcement channel",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	if ctx.Err() != nil {
		s.metrics.recordDropped(ch.Name(), "canceled")
		return
	}

	breaker := s.breakers[ch.Name()]
	if breaker.IsOpen() {
		logger.Warn("Channel temporarily disabled by circuit breaker")
		s.metrics.recordDropped(ch.Name(), "circuit_open")
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()

	s.metrics.recordDispatch(ch.Name())
	start := time.Now()
	_, err := circuitbreaker.Do(breaker, func() (struct{}, error) {
		return struct{}{}, ch.Send(sendCtx, item)
	})
	duration := time.Since(start)

	if circuitbreaker.IsRejection(err) {
		logger.Warn("Channel temporarily disabled by circuit breaker")
		s.metrics.recordDropped(ch.Name(), "circuit_open")
		return
	}
	s.metrics.recordResult(ch.Name(), err, duration)
	if err != nil {
		logger.Warn("Announcement failed",
			slog.String("title", item.Title),
			slog.Duration("send_duration", duration),
			slog.Any("error", err))
		return
	}
	logger.Info("Announcement sent",
		slog.String("title", item.Title),
		slog.Duration("send_duration", duration))
}

// ChannelHealth reports the breaker state of every channel.
func (s *Service) ChannelHealth() []ChannelHealthStatus {
	out := make([]ChannelHealthStatus, 0, len(s.channels))
	for _, ch := range s.channels {
		b := s.breakers[ch.Name()]
		out = append(out, ChannelHealthStatus{
			Name:               ch.Name(),
			Enabled:            ch.IsEnabled(),
			CircuitBreakerOpen: b.IsOpen(),
			State:              b.State().String(),
		})
	}
	return out
}
