// Package announce posts newly seen research items to chat channels.
//
// A Service watches controller snapshots. The first Ready batch only seeds
// the set of seen ids; after that every id that was never seen is
// announced once, in feed order, to each enabled channel.
package announce

import (
	"context"

	"postlabor-feed/internal/domain/entity"
	"postlabor-feed/internal/infra/notifier"
)

// Channel is one delivery target (Discord, Slack).
//
// Implementations must be safe for concurrent use and must respect ctx.
// Retries and rate limiting happen inside Send.
type Channel interface {
	// Name is the lowercase identifier used in logs and metric labels.
	Name() string
	IsEnabled() bool
	Send(ctx context.Context, item entity.ContentItem) error
}

// NotifierChannel adapts a notifier.Notifier to Channel.
type NotifierChannel struct {
	name     string
	notifier notifier.Notifier
	enabled  bool
}

// NewNotifierChannel wraps n under the given name. A disabled channel
// holds a NoOpNotifier.
func NewNotifierChannel(name string, n notifier.Notifier, enabled bool) *NotifierChannel {
	if !enabled || n == nil {
		n = notifier.NewNoOpNotifier()
	}
	return &NotifierChannel{name: name, notifier: n, enabled: enabled}
}

// NewDiscordChannel builds the "discord" channel from config.
func NewDiscordChannel(config notifier.DiscordConfig, opts ...notifier.Option) *NotifierChannel {
	var n notifier.Notifier
	if config.Enabled {
		n = notifier.NewDiscordNotifier(config, opts...)
	}
	return NewNotifierChannel("discord", n, config.Enabled)
}

// NewSlackChannel builds the "slack" channel from config.
func NewSlackChannel(config notifier.SlackConfig, opts ...notifier.Option) *NotifierChannel {
	var n notifier.Notifier
	if config.Enabled {
		n = notifier.NewSlackNotifier(config, opts...)
	}
	return NewNotifierChannel("slack", n, config.Enabled)
}

func (c *NotifierChannel) Name() string { return c.name }

func (c *NotifierChannel) IsEnabled() bool { return c.enabled }

// Send validates item and delegates to the notifier.
func (c *NotifierChannel) Send(ctx context.Context, item entity.ContentItem) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if err := item.Validate(); err != nil {
		return err
	}
	return c.notifier.NotifyItem(ctx, item)
}
