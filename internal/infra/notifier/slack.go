package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"postlabor-feed/internal/domain/entity"
	"postlabor-feed/internal/resilience/ratelimit"
)

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	Enabled bool

	// WebhookURL includes the authentication token; never log it.
	WebhookURL string

	Timeout time.Duration
}

// SlackNotifier posts research items to Slack via an Incoming Webhook.
type SlackNotifier struct {
	hook *webhook
}

// NewSlackNotifier creates a SlackNotifier limited to one message per
// second, the Incoming Webhook limit.
func NewSlackNotifier(config SlackConfig, opts ...Option) *SlackNotifier {
	return &SlackNotifier{
		hook: newWebhook("Slack", config.WebhookURL, config.Timeout, ratelimit.New(1.0, 1), opts),
	}
}

// SlackWebhookPayload is the Block Kit body sent to a Slack webhook.
type SlackWebhookPayload struct {
	Text   string       `json:"text"` // fallback for notifications
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock is one Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"` // section, context, image
	Text     *SlackTextObject  `json:"text,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
	ImageURL string            `json:"image_url,omitempty"`
	AltText  string            `json:"alt_text,omitempty"`
}

// SlackTextObject is a mrkdwn or plain_text object.
type SlackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	// Block Kit limits
	maxSectionTextLength = 3000
	maxContextTextLength = 2000
	maxFallbackLength    = 150
	maxSlackSources      = 3
)

// buildBlockKitPayload renders the title (linked to the first source) and
// summary as a section, key facts as a second section, then sources and the
// timestamp as context and the image last.
func (s *SlackNotifier) buildBlockKitPayload(item entity.ContentItem) SlackWebhookPayload {
	fallback := truncate("New research: "+item.Title, maxFallbackLength, truncationSuffix)

	title := "*" + item.Title + "*"
	if link := itemLink(item); link != "" {
		title = fmt.Sprintf("*<%s|%s>*", link, item.Title)
	}
	blocks := []SlackBlock{{
		Type: "section",
		Text: &SlackTextObject{
			Type: "mrkdwn",
			Text: truncate(title+"\n\n"+item.Summary, maxSectionTextLength, truncationSuffix),
		},
	}}

	if facts := item.KeyFactsPreview(maxEmbedKeyFacts); len(facts) > 0 {
		lines := make([]string, len(facts))
		for i, f := range facts {
			lines[i] = "• " + f
		}
		blocks = append(blocks, SlackBlock{
			Type: "section",
			Text: &SlackTextObject{
				Type: "mrkdwn",
				Text: truncate("*Key facts*\n"+strings.Join(lines, "\n"), maxSectionTextLength, truncationSuffix),
			},
		})
	}

	var ctxParts []string
	for i, src := range item.Sources {
		if i == maxSlackSources {
			ctxParts = append(ctxParts, fmt.Sprintf("+%d more", len(item.Sources)-maxSlackSources))
			break
		}
		if src.URL != "" {
			ctxParts = append(ctxParts, fmt.Sprintf("<%s|%s>", src.URL, sourceLabel(src)))
		} else {
			ctxParts = append(ctxParts, sourceLabel(src))
		}
	}
	ctxParts = append(ctxParts, item.FormatCreatedAt())
	blocks = append(blocks, SlackBlock{
		Type: "context",
		Elements: []SlackTextObject{{
			Type: "mrkdwn",
			Text: truncate(strings.Join(ctxParts, " • "), maxContextTextLength, truncationSuffix),
		}},
	})

	if item.HasImage() {
		blocks = append(blocks, SlackBlock{
			Type:     "image",
			ImageURL: item.ImageURL,
			AltText:  truncate(item.Title, maxFallbackLength, truncationSuffix),
		})
	}

	return SlackWebhookPayload{Text: fallback, Blocks: blocks}
}

// NotifyItem posts item to the configured Slack webhook.
func (s *SlackNotifier) NotifyItem(ctx context.Context, item entity.ContentItem) error {
	return s.hook.deliver(ctx, item, s.buildBlockKitPayload(item))
}
