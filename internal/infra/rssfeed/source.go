// Package rssfeed adapts an RSS or Atom feed to the feed.Source interface,
// so the controller can run against any syndicated research log instead of
// the research agent's JSON API.
package rssfeed

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"postlabor-feed/internal/domain/entity"
	"postlabor-feed/internal/resilience/circuitbreaker"
	"postlabor-feed/internal/resilience/retry"
	"postlabor-feed/internal/usecase/feed"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const (
	userAgent = "PostLaborFeedBot/1.0"

	// MaxSummaryRunes bounds the plain-text summary of an entry.
	MaxSummaryRunes = 600
)

// Source fetches a feed through a circuit breaker with retries.
type Source struct {
	client      *http.Client
	feedURL     string
	breaker     *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
	logger      *slog.Logger
}

// NewSource creates a Source for feedURL. The URL must be http(s).
func NewSource(client *http.Client, feedURL string) (*Source, error) {
	feedURL = strings.TrimSpace(feedURL)
	if err := entity.ValidateFeedURL(feedURL); err != nil {
		return nil, fmt.Errorf("rss source: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Source{
		client:      client,
		feedURL:     feedURL,
		breaker:     circuitbreaker.New(circuitbreaker.RSSFeedConfig()),
		retryConfig: retry.RSSFeedConfig(),
		logger:      slog.Default(),
	}, nil
}

// WithLogger sets the logger and returns s.
func (s *Source) WithLogger(logger *slog.Logger) *Source {
	s.logger = logger
	return s
}

// Fetch implements feed.Source. Archive returns every entry; otherwise at
// most q.Limit entries are returned.
func (s *Source) Fetch(ctx context.Context, q feed.Query) ([]entity.ContentItem, error) {
	var parsed *gofeed.Feed

	err := retry.WithBackoff(ctx, s.retryConfig, func() error {
		f, err := circuitbreaker.Do(s.breaker, func() (*gofeed.Feed, error) {
			return s.doFetch(ctx)
		})
		if err != nil {
			if circuitbreaker.IsRejection(err) {
				s.logger.Warn("rss circuit breaker open, request rejected",
					slog.String("url", s.feedURL),
					slog.String("state", s.breaker.State().String()))
			}
			return err
		}
		parsed = f
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch rss %s: %w", s.feedURL, err)
	}

	items := make([]entity.ContentItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if !q.Archive && q.Limit > 0 && len(items) >= q.Limit {
			break
		}
		item := toContentItem(parsed, it)
		if err := item.Validate(); err != nil {
			s.logger.Warn("skipping rss entry", slog.String("title", it.Title), slog.Any("error", err))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Source) doFetch(ctx context.Context) (*gofeed.Feed, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = userAgent
	fp.Client = s.client

	f, err := fp.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status}
		}
		return nil, err
	}
	return f, nil
}

func toContentItem(f *gofeed.Feed, it *gofeed.Item) entity.ContentItem {
	key := it.GUID
	if key == "" {
		key = it.Link
	}
	if key == "" {
		key = it.Title
	}

	html := it.Content
	if strings.TrimSpace(html) == "" {
		html = it.Description
	}

	item := entity.ContentItem{
		ID:       StableID(key),
		Title:    strings.TrimSpace(it.Title),
		Summary:  Truncate(PlainText(html), MaxSummaryRunes),
		ImageURL: imageURL(f, it, html),
	}
	if it.Link != "" {
		src := entity.SourceRef{Title: it.Title, URL: it.Link}
		if it.PublishedParsed != nil {
			src.Date = it.PublishedParsed.Format("2006-01-02")
		}
		item.Sources = []entity.SourceRef{src}
	}
	switch {
	case it.PublishedParsed != nil:
		item.CreatedAt = *it.PublishedParsed
		item.CreatedAtRaw = it.Published
	case it.UpdatedParsed != nil:
		item.CreatedAt = *it.UpdatedParsed
		item.CreatedAtRaw = it.Updated
	}
	return item
}

// StableID hashes key with FNV-1a into a positive 63-bit id.
func StableID(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	id := int64(h.Sum64() & (1<<63 - 1))
	if id == 0 {
		return 1
	}
	return id
}

// PlainText strips markup and collapses whitespace.
func PlainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}

func imageURL(f *gofeed.Feed, it *gofeed.Item, html string) string {
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	for _, enc := range it.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	if strings.TrimSpace(html) != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err == nil {
			if src, ok := doc.Find("img[src]").First().Attr("src"); ok && src != "" {
				return src
			}
		}
	}
	if f.Image != nil {
		return f.Image.URL
	}
	return ""
}
