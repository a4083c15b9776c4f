// Package notifier posts research items to chat webhooks.
//
// Discord and Slack are supported. Both share the same delivery path:
// a token bucket limiter, one POST per attempt and a short retry loop that
// honors the service's retry_after hint on 429 responses.
package notifier

import (
	"context"

	"postlabor-feed/internal/domain/entity"
)

// Notifier sends one announcement about a research item.
// Implementations are safe for concurrent use.
type Notifier interface {
	// NotifyItem returns a non-nil error when the item could not be
	// delivered after all attempts.
	NotifyItem(ctx context.Context, item entity.ContentItem) error
}
