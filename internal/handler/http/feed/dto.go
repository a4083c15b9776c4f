// Package feed provides the read-only HTTP view of the feed controller:
// the current snapshot, single items from the held batch and a manual
// refresh trigger.
package feed

import (
	"time"

	"postlabor-feed/internal/domain/entity"
	feedUC "postlabor-feed/internal/usecase/feed"
)

// SourceDTO is one citation in wire shape.
type SourceDTO struct {
	Title string `json:"title" example:"BLS Productivity Report"`
	URL   string `json:"url" example:"https://www.bls.gov/productivity/"`
	Date  string `json:"date,omitempty" example:"2025-10-01"`
}

// ItemDTO is a research update in the same shape the research agent emits.
type ItemDTO struct {
	ID        int64       `json:"id" example:"42"`
	Topic     string      `json:"topic" example:"Automation and the wage share"`
	Summary   string      `json:"summary" example:"Labor's share of income kept falling..."`
	Sources   []SourceDTO `json:"sources"`
	KeyStats  []string    `json:"key_stats"`
	ImageURL  *string     `json:"image_url"`
	CreatedAt string      `json:"created_at" example:"2025-11-15T12:00:00Z"`
}

// SnapshotDTO is the feed state.
type SnapshotDTO struct {
	Phase      string     `json:"phase" example:"ready" enums:"loading,ready,error"`
	Items      []ItemDTO  `json:"items"`
	Selected   *ItemDTO   `json:"selected"`
	Dangling   bool       `json:"dangling"`
	Refreshing bool       `json:"refreshing"`
	LastError  string     `json:"last_error,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at"`
	Mode       string     `json:"mode" example:"latest" enums:"latest,archive"`
	Seq        uint64     `json:"seq"`
}

// RefreshDTO acknowledges a refresh request.
type RefreshDTO struct {
	Status string `json:"status" example:"refresh scheduled"`
}

// NewItemDTO converts item to its wire shape. created_at keeps the
// backend's raw string when one was received.
func NewItemDTO(item entity.ContentItem) ItemDTO {
	out := ItemDTO{
		ID:        item.ID,
		Topic:     item.Title,
		Summary:   item.Summary,
		Sources:   make([]SourceDTO, 0, len(item.Sources)),
		KeyStats:  make([]string, 0, len(item.KeyFacts)),
		CreatedAt: item.CreatedAtRaw,
	}
	for _, s := range item.Sources {
		out.Sources = append(out.Sources, SourceDTO{Title: s.Title, URL: s.URL, Date: s.Date})
	}
	out.KeyStats = append(out.KeyStats, item.KeyFacts...)
	if item.HasImage() {
		img := item.ImageURL
		out.ImageURL = &img
	}
	if out.CreatedAt == "" && !item.CreatedAt.IsZero() {
		out.CreatedAt = item.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func toSnapshotDTO(s feedUC.Snapshot) SnapshotDTO {
	out := SnapshotDTO{
		Phase:      s.Phase.String(),
		Items:      make([]ItemDTO, 0, len(s.Items)),
		Dangling:   s.Dangling(),
		Refreshing: s.Refreshing,
		LastError:  s.LastError,
		Mode:       string(s.Mode),
		Seq:        s.Seq,
	}
	for _, it := range s.Items {
		out.Items = append(out.Items, NewItemDTO(it))
	}
	if s.Selected != nil {
		sel := NewItemDTO(*s.Selected)
		out.Selected = &sel
	}
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}
