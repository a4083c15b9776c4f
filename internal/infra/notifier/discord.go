package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"postlabor-feed/internal/domain/entity"
	"postlabor-feed/internal/resilience/ratelimit"
)

// DiscordConfig contains configuration for Discord webhook notifications.
type DiscordConfig struct {
	Enabled bool

	// WebhookURL includes the authentication token; never log it.
	WebhookURL string

	Timeout time.Duration
}

// DiscordNotifier posts research items to a Discord channel as embeds.
type DiscordNotifier struct {
	hook *webhook
}

// NewDiscordNotifier creates a DiscordNotifier. Discord allows 30 webhook
// messages per minute, so the limiter runs at 0.5 req/s with a burst of 3.
func NewDiscordNotifier(config DiscordConfig, opts ...Option) *DiscordNotifier {
	return &DiscordNotifier{
		hook: newWebhook("Discord", config.WebhookURL, config.Timeout, ratelimit.New(0.5, 3), opts),
	}
}

// DiscordWebhookPayload is the JSON body sent to a Discord webhook.
type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed is one Discord embed message.
type DiscordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
	Image       *DiscordEmbedImage  `json:"image,omitempty"`
	Footer      DiscordEmbedFooter  `json:"footer"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

// DiscordEmbedField is a titled block inside an embed.
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// DiscordEmbedImage is the large image shown under an embed.
type DiscordEmbedImage struct {
	URL string `json:"url"`
}

// DiscordEmbedFooter represents the footer of a Discord embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	// Discord limits
	maxTitleLength       = 256
	maxDescriptionLength = 4096
	maxFieldValueLength  = 1024
	maxEmbedSources      = 5
	maxEmbedKeyFacts     = 3

	// Discord blurple (#5865F2)
	discordBlueColor = 5793266

	footerText = "Post-labor research feed"
)

// buildEmbedPayload builds one embed per item. Key facts and sources
// become fields; the first source is the embed link.
func (d *DiscordNotifier) buildEmbedPayload(item entity.ContentItem) DiscordWebhookPayload {
	embed := DiscordEmbed{
		Title:       truncate(item.Title, maxTitleLength, truncationSuffix),
		Description: truncate(item.Summary, maxDescriptionLength, truncationSuffix),
		URL:         itemLink(item),
		Color:       discordBlueColor,
		Footer:      DiscordEmbedFooter{Text: footerText},
	}
	if !item.CreatedAt.IsZero() {
		embed.Timestamp = item.CreatedAt.UTC().Format(time.RFC3339)
	}
	if facts := item.KeyFactsPreview(maxEmbedKeyFacts); len(facts) > 0 {
		lines := make([]string, len(facts))
		for i, f := range facts {
			lines[i] = "• " + f
		}
		embed.Fields = append(embed.Fields, DiscordEmbedField{
			Name:  "Key facts",
			Value: truncate(strings.Join(lines, "\n"), maxFieldValueLength, truncationSuffix),
		})
	}
	if len(item.Sources) > 0 {
		var lines []string
		for i, s := range item.Sources {
			if i == maxEmbedSources {
				lines = append(lines, fmt.Sprintf("…and %d more", len(item.Sources)-maxEmbedSources))
				break
			}
			if s.URL != "" {
				lines = append(lines, fmt.Sprintf("[%s](%s)", sourceLabel(s), s.URL))
			} else {
				lines = append(lines, sourceLabel(s))
			}
		}
		embed.Fields = append(embed.Fields, DiscordEmbedField{
			Name:  fmt.Sprintf("Sources (%d)", len(item.Sources)),
			Value: truncate(strings.Join(lines, "\n"), maxFieldValueLength, truncationSuffix),
		})
	}
	if item.HasImage() {
		embed.Image = &DiscordEmbedImage{URL: item.ImageURL}
	}
	return DiscordWebhookPayload{Embeds: []DiscordEmbed{embed}}
}

// NotifyItem posts item to the configured Discord webhook.
func (d *DiscordNotifier) NotifyItem(ctx context.Context, item entity.ContentItem) error {
	return d.hook.deliver(ctx, item, d.buildEmbedPayload(item))
}

func sourceLabel(s entity.SourceRef) string {
	if s.Title != "" {
		return s.Title
	}
	if s.URL != "" {
		return s.URL
	}
	return "Untitled source"
}
