// Package entity defines the core domain types of the research feed:
// ContentItem and its source references, topic history entries and the
// media channels shown by the carousel, together with their validation
// rules and domain-specific errors.
package entity

import (
	"fmt"
	"strings"
	"time"
)

// SourceRef is one citation attached to a ContentItem.
type SourceRef struct {
	Title string
	URL   string
	Date  string
}

// ContentItem is one research update received from the feed backend.
// Items are treated as immutable values once decoded; a new poll produces
// a new batch instead of editing items in place.
type ContentItem struct {
	ID       int64
	Title    string
	Summary  string
	Sources  []SourceRef
	KeyFacts []string
	// ImageURL is empty when the backend did not attach an image.
	ImageURL string
	// CreatedAt is zero when CreatedAtRaw could not be parsed.
	CreatedAt    time.Time
	CreatedAtRaw string
}

// createdAtLayouts lists the timestamp shapes the backend is known to emit:
// RFC 3339 from JSON serializers and the Postgres ::text rendering.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseCreatedAt parses a backend timestamp.
// It returns the zero time and false when no known layout matches.
func ParseCreatedAt(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// displayLayout mirrors the en-US "short month, day, year, 2-digit time" form.
const displayLayout = "Jan 2, 2006, 03:04 PM"

// FormatCreatedAt renders CreatedAt for display, or "Recently" when the
// timestamp is unknown.
func (c ContentItem) FormatCreatedAt() string {
	if c.CreatedAt.IsZero() {
		return "Recently"
	}
	return c.CreatedAt.Format(displayLayout)
}

// KeyFactsPreview returns at most n key facts.
func (c ContentItem) KeyFactsPreview(n int) []string {
	if n <= 0 || len(c.KeyFacts) == 0 {
		return nil
	}
	if n > len(c.KeyFacts) {
		n = len(c.KeyFacts)
	}
	return c.KeyFacts[:n]
}

// HasImage reports whether an image reference is attached.
func (c ContentItem) HasImage() bool {
	return strings.TrimSpace(c.ImageURL) != ""
}

// Clone returns a deep copy so callers cannot alias the stored batch.
func (c ContentItem) Clone() ContentItem {
	out := c
	if c.Sources != nil {
		out.Sources = make([]SourceRef, len(c.Sources))
		copy(out.Sources, c.Sources)
	}
	if c.KeyFacts != nil {
		out.KeyFacts = make([]string, len(c.KeyFacts))
		copy(out.KeyFacts, c.KeyFacts)
	}
	return out
}

// Validate checks the identity constraint of a decoded item.
func (c ContentItem) Validate() error {
	if c.ID <= 0 {
		return &ValidationError{Field: "id", Message: fmt.Sprintf("must be positive, got %d", c.ID)}
	}
	return nil
}

// CloneItems deep-copies a batch. A nil batch stays nil.
func CloneItems(items []ContentItem) []ContentItem {
	if items == nil {
		return nil
	}
	out := make([]ContentItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// FindItem returns the item with the given id from a batch.
func FindItem(items []ContentItem, id int64) (ContentItem, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return ContentItem{}, false
}

// TopicHistory is one entry of the backend's research history.
// Older backends return bare topic strings, in which case only Topic is set.
type TopicHistory struct {
	Topic           string
	Count           int
	LastResearch    time.Time
	LastResearchRaw string
}
