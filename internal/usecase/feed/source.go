package feed

import (
	"context"
	"time"

	"postlabor-feed/internal/domain/entity"
)

// Query describes one batch request.
type Query struct {
	// Limit is the maximum number of items; ignored when Archive is set.
	Limit   int
	Archive bool
}

// Source fetches a batch of content items.
type Source interface {
	// Fetch returns the batch described by q, newest first.
	//
	// Implementations must honor ctx cancellation. A successful empty
	// batch is returned as an empty slice with a nil error.
	Fetch(ctx context.Context, q Query) ([]entity.ContentItem, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, q Query) ([]entity.ContentItem, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, q Query) ([]entity.ContentItem, error) {
	return f(ctx, q)
}

// Ticker is the subset of *time.Ticker the controller needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}
