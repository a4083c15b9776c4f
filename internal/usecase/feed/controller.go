package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"postlabor-feed/internal/domain/entity"
	"postlabor-feed/internal/observability/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// ErrClosed is returned by operations on a closed controller.
var ErrClosed = errors.New("feed controller closed")

// Fetch triggers, used as the trigger metric label.
const (
	TriggerInitial = "initial"
	TriggerPoll    = "poll"
	TriggerRefresh = "refresh"
	TriggerMode    = "mode"
)

// result outcomes reported to the test hook.
const (
	outcomeApplied   = "applied"
	outcomeStale     = "stale"
	outcomeDiscarded = "discarded"
)

// Option customizes a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithMetrics enables feed_controller_* metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithTickerFactory replaces time.NewTicker for polling.
func WithTickerFactory(f func(time.Duration) Ticker) Option {
	return func(c *Controller) { c.newTicker = f }
}

// WithClock replaces time.Now for UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller is the ContentFeedController.
//
// Every fetch gets a sequence number when it is issued. A result is applied
// only if no newer fetch has been issued since, so the most recently issued
// request always wins regardless of completion order. A failed fetch never
// clears items already on screen.
//
// All methods are safe for concurrent use.
type Controller struct {
	src       Source
	cfg       Config
	logger    *slog.Logger
	metrics   *Metrics
	newTicker func(time.Duration) Ticker
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      Snapshot
	issued     uint64
	refreshSeq uint64
	closed     bool
	ticker     Ticker
	pollStop   chan struct{}
	pollWG     sync.WaitGroup
	fetchWG    sync.WaitGroup
	inflight   map[uint64]context.CancelFunc

	subMu     sync.Mutex
	subs      map[int]chan Snapshot
	nextSub   int
	lastRev   uint64
	subClosed bool

	// onResult is called after each fetch result has been handled.
	onResult func(seq uint64, outcome string)
}

// NewController builds a controller in PhaseLoading. Nothing is fetched
// until Initialize, Refresh, SetMode or a poll tick.
func NewController(src Source, cfg Config, opts ...Option) (*Controller, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: source is required", entity.ErrInvalidInput)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, _ := ParseMode(string(cfg.Mode))
	cfg.Mode = mode

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		src:       src,
		cfg:       cfg,
		logger:    slog.Default(),
		newTicker: NewTimeTicker,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
		state:     Snapshot{Phase: PhaseLoading, Mode: cfg.Mode},
		subs:      make(map[int]chan Snapshot),
		inflight:  make(map[uint64]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.metrics.recordState(c.state)
	return c, nil
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Initialize issues the initial fetch. It returns immediately; the outcome
// is observable through Snapshot and Subscribe.
func (c *Controller) Initialize(ctx context.Context) {
	c.issue(ctx, TriggerInitial, false)
}

// Refresh issues a user-triggered fetch and sets Refreshing until that
// fetch, or a newer one, has been applied.
func (c *Controller) Refresh(ctx context.Context) {
	c.issue(ctx, TriggerRefresh, true)
}

// SetMode switches between the latest and archive collections and fetches
// the new collection. Setting the current mode is a no-op.
func (c *Controller) SetMode(ctx context.Context, mode Mode) error {
	mode, err := ParseMode(string(mode))
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state.Mode == mode {
		c.mu.Unlock()
		return nil
	}
	c.state.Mode = mode
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.notify(snap)
	c.issue(ctx, TriggerMode, false)
	return nil
}

// issue assigns the next sequence number and starts the fetch in its own
// goroutine. Caller cancellation is ignored so a request-scoped context
// cannot abort a refresh; Close cancels every fetch.
func (c *Controller) issue(ctx context.Context, trigger string, refresh bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.issued++
	seq := c.issued
	q := c.queryLocked()
	var snap Snapshot
	if refresh {
		c.refreshSeq = seq
		if !c.state.Refreshing {
			c.state.Refreshing = true
			snap = c.bumpLocked()
		}
	}
	fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.inflight[seq] = cancel
	c.fetchWG.Add(1)
	c.mu.Unlock()

	if snap.rev != 0 {
		c.notify(snap)
	}

	go func() {
		defer c.fetchWG.Done()
		defer c.release(seq)
		c.fetchAndApply(fctx, seq, trigger, q)
	}()
}

// release cancels and forgets the fetch issued as seq.
func (c *Controller) release(seq uint64) {
	c.mu.Lock()
	cancel, ok := c.inflight[seq]
	delete(c.inflight, seq)
	c.mu.Unlock()
	if ok {
		cancel()
	}
}

func (c *Controller) queryLocked() Query {
	return Query{Limit: c.cfg.BatchLimit, Archive: c.state.Mode == ModeArchive}
}

// fetchAndApply runs one bounded fetch and applies its result.
func (c *Controller) fetchAndApply(ctx context.Context, seq uint64, trigger string, q Query) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	ctx, span := tracing.StartInternalSpan(ctx, "feed.fetch",
		attribute.String("feed.trigger", trigger),
		attribute.Int64("feed.seq", int64(seq)),
		attribute.Bool("feed.archive", q.Archive),
	)
	defer span.End()

	start := time.Now()
	items, err := c.src.Fetch(ctx, q)
	c.metrics.recordFetch(trigger, err, time.Since(start))
	tracing.RecordError(span, err)

	c.apply(seq, trigger, items, err)
}

func (c *Controller) apply(seq uint64, trigger string, items []entity.ContentItem, err error) {
	c.mu.Lock()
	var (
		outcome string
		snap    Snapshot
	)
	switch {
	case c.closed:
		outcome = outcomeDiscarded
	case seq < c.issued:
		outcome = outcomeStale
	default:
		outcome = outcomeApplied
		if err == nil {
			if items == nil {
				items = []entity.ContentItem{}
			}
			c.state.Items = entity.CloneItems(items)
			c.state.Phase = PhaseReady
			c.state.LastError = ""
			c.state.UpdatedAt = c.now()
		} else {
			if len(c.state.Items) == 0 {
				c.state.Phase = PhaseError
			}
			c.state.LastError = err.Error()
		}
		c.state.Seq = seq
		if c.state.Refreshing && seq >= c.refreshSeq {
			c.state.Refreshing = false
		}
		snap = c.bumpLocked()
	}
	c.mu.Unlock()

	switch outcome {
	case outcomeDiscarded:
		c.metrics.recordDiscarded()
		c.logger.Debug("discarding feed result after close",
			slog.Uint64("seq", seq),
			slog.String("trigger", trigger))
	case outcomeStale:
		c.metrics.recordStale()
		c.logger.Debug("dropping superseded feed result",
			slog.Uint64("seq", seq),
			slog.String("trigger", trigger))
	default:
		c.metrics.recordState(snap)
		if err != nil {
			c.logger.Warn("feed fetch failed",
				slog.Uint64("seq", seq),
				slog.String("trigger", trigger),
				slog.Int("items_kept", len(snap.Items)),
				slog.Any("error", err))
		} else {
			c.logger.Debug("feed updated",
				slog.Uint64("seq", seq),
				slog.String("trigger", trigger),
				slog.Int("items", len(snap.Items)))
		}
		c.notify(snap)
	}

	if c.onResult != nil {
		c.onResult(seq, outcome)
	}
}

// StartPolling fetches on every tick of interval until Close. A
// non-positive interval uses Config.PollInterval. Calling it again replaces
// the running ticker.
func (c *Controller) StartPolling(interval time.Duration) error {
	if interval <= 0 {
		interval = c.cfg.PollInterval
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	oldTicker, oldStop := c.ticker, c.pollStop
	t := c.newTicker(interval)
	stop := make(chan struct{})
	c.ticker, c.pollStop = t, stop
	c.pollWG.Add(1)
	c.mu.Unlock()

	if oldTicker != nil {
		oldTicker.Stop()
		close(oldStop)
	}

	go c.pollLoop(t, stop)
	c.logger.Info("feed polling started", slog.Duration("interval", interval))
	return nil
}

// pollLoop fetches inline so ticks never overlap; ticks that arrive while a
// fetch is running are coalesced by the ticker.
func (c *Controller) pollLoop(t Ticker, stop <-chan struct{}) {
	defer c.pollWG.Done()
	for {
		select {
		case <-stop:
			return
		case <-c.ctx.Done():
			return
		case <-t.C():
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.issued++
		seq := c.issued
		q := c.queryLocked()
		c.mu.Unlock()

		c.fetchAndApply(c.ctx, seq, TriggerPoll, q)
	}
}

// Select makes the item with id the selection. It reports false, leaving
// the state unchanged, when id is not in the current batch.
func (c *Controller) Select(id int64) bool {
	c.mu.Lock()
	item, ok := entity.FindItem(c.state.Items, id)
	if !ok || c.closed {
		c.mu.Unlock()
		return false
	}
	sel := item.Clone()
	c.state.Selected = &sel
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.notify(snap)
	return true
}

// Toggle clears the selection if id is selected and selects it otherwise.
// It reports whether the state changed.
func (c *Controller) Toggle(id int64) bool {
	c.mu.Lock()
	if c.state.Selected != nil && c.state.Selected.ID == id && !c.closed {
		c.state.Selected = nil
		snap := c.bumpLocked()
		c.mu.Unlock()
		c.notify(snap)
		return true
	}
	c.mu.Unlock()
	return c.Select(id)
}

// Dismiss clears the selection.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	if c.state.Selected == nil || c.closed {
		c.mu.Unlock()
		return
	}
	c.state.Selected = nil
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// bumpLocked records a state mutation and returns the snapshot to publish.
func (c *Controller) bumpLocked() Snapshot {
	c.state.rev++
	return c.state.clone()
}

// Subscribe returns a channel that receives the current snapshot and then
// every later one. Delivery is latest-wins: a slow reader sees only the
// newest pending snapshot. The channel is closed by cancel or Close.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	c.subMu.Lock()
	if c.subClosed {
		c.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.Snapshot()
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// notify publishes snap to every subscriber unless a newer revision has
// already been published.
func (c *Controller) notify(snap Snapshot) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.subClosed || snap.rev <= c.lastRev {
		return
	}
	c.lastRev = snap.rev
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Close stops polling, cancels in-flight fetches and closes subscriber
// channels. It returns after the poll goroutine has exited; results that
// resolve afterwards are discarded. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	t, stop := c.ticker, c.pollStop
	c.ticker, c.pollStop = nil, nil
	cancels := make([]context.CancelFunc, 0, len(c.inflight))
	for seq, cancel := range c.inflight {
		cancels = append(cancels, cancel)
		delete(c.inflight, seq)
	}
	c.mu.Unlock()

	if t != nil {
		t.Stop()
		close(stop)
	}
	for _, cancel := range cancels {
		cancel()
	}
	c.cancel()
	c.pollWG.Wait()

	c.subMu.Lock()
	c.subClosed = true
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.subMu.Unlock()

	c.logger.Info("feed controller closed")
}

// Wait blocks until every fetch issued so far has finished.
func (c *Controller) Wait() {
	c.fetchWG.Wait()
}
