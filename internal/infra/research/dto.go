package research

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"postlabor-feed/internal/domain/entity"
)

type researchResponse struct {
	Updates []itemDTO `json:"updates"`
	Count   int       `json:"count"`
	Status  string    `json:"status"`
}

type itemDTO struct {
	ID        json.Number `json:"id"`
	Topic     string      `json:"topic"`
	Summary   string      `json:"summary"`
	Sources   []sourceDTO `json:"sources"`
	KeyStats  []string    `json:"key_stats"`
	ImageURL  *string     `json:"image_url"`
	CreatedAt string      `json:"created_at"`
}

type sourceDTO struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Date  string `json:"date"`
}

// UnmarshalJSON accepts either an object or a bare URL string; the agent
// has stored both shapes over time.
func (s *sourceDTO) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var url string
		if err := json.Unmarshal(data, &url); err != nil {
			return err
		}
		*s = sourceDTO{URL: url}
		return nil
	}
	type plain sourceDTO
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = sourceDTO(p)
	return nil
}

func (d itemDTO) toEntity() (entity.ContentItem, error) {
	id, err := d.ID.Int64()
	if err != nil {
		return entity.ContentItem{}, &entity.ValidationError{
			Field:   "id",
			Message: fmt.Sprintf("not an integer: %q", d.ID.String()),
		}
	}

	item := entity.ContentItem{
		ID:           id,
		Title:        d.Topic,
		Summary:      d.Summary,
		CreatedAtRaw: d.CreatedAt,
	}
	if d.ImageURL != nil {
		item.ImageURL = strings.TrimSpace(*d.ImageURL)
	}
	if len(d.KeyStats) > 0 {
		item.KeyFacts = append([]string(nil), d.KeyStats...)
	}
	if len(d.Sources) > 0 {
		item.Sources = make([]entity.SourceRef, 0, len(d.Sources))
		for _, s := range d.Sources {
			item.Sources = append(item.Sources, entity.SourceRef{Title: s.Title, URL: s.URL, Date: s.Date})
		}
	}
	if t, ok := entity.ParseCreatedAt(d.CreatedAt); ok {
		item.CreatedAt = t
	}

	if err := item.Validate(); err != nil {
		return entity.ContentItem{}, err
	}
	return item, nil
}

// toItems converts a decoded batch. Items failing validation are dropped
// and logged. The result is never nil.
func toItems(dtos []itemDTO, logger *slog.Logger) []entity.ContentItem {
	items := make([]entity.ContentItem, 0, len(dtos))
	for i, d := range dtos {
		item, err := d.toEntity()
		if err != nil {
			logger.Warn("dropping invalid research item",
				slog.Int("index", i),
				slog.String("id", d.ID.String()),
				slog.Any("error", err))
			continue
		}
		items = append(items, item)
	}
	return items
}

type topicsResponse struct {
	Topics []string `json:"topics"`
	Count  int      `json:"count"`
}

type historyResponse struct {
	History []historyDTO `json:"history"`
	Count   int          `json:"count"`
}

// historyDTO is either a bare topic string or an object.
type historyDTO struct {
	Topic        string `json:"topic"`
	Count        int    `json:"count"`
	LastResearch string `json:"last_research"`
}

func (h *historyDTO) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var topic string
		if err := json.Unmarshal(data, &topic); err != nil {
			return err
		}
		*h = historyDTO{Topic: topic}
		return nil
	}
	type plain historyDTO
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*h = historyDTO(p)
	return nil
}

func (h historyDTO) toEntity() entity.TopicHistory {
	out := entity.TopicHistory{
		Topic:           h.Topic,
		Count:           h.Count,
		LastResearchRaw: h.LastResearch,
	}
	if t, ok := entity.ParseCreatedAt(h.LastResearch); ok {
		out.LastResearch = t
	}
	return out
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Healthy reports whether the backend declared itself healthy.
func (h HealthStatus) Healthy() bool {
	return strings.EqualFold(h.Status, "healthy")
}

type pingResponse struct {
	Pong bool `json:"pong"`
}
