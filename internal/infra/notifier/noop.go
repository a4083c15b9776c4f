package notifier

import (
	"context"

	"postlabor-feed/internal/domain/entity"
)

// NoOpNotifier discards every announcement. It stands in for a disabled
// channel so callers never check for nil.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a NoOpNotifier.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// NotifyItem returns nil immediately.
func (n *NoOpNotifier) NotifyItem(ctx context.Context, item entity.ContentItem) error {
	return nil
}
