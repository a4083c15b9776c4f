// Package feed holds the ContentFeedController: it fetches bounded batches
// of research updates, polls on a fixed interval, applies results in
// issuance order, keeps stale data visible when a fetch fails, and owns the
// view state (selection, loading and error).
package feed

import (
	"fmt"
	"strings"
	"time"

	"postlabor-feed/internal/domain/entity"
)

// Phase is the lifecycle phase of the feed.
type Phase int

const (
	// PhaseLoading is the initial phase, before any fetch has been applied.
	PhaseLoading Phase = iota
	// PhaseReady means Items holds the latest successfully fetched batch.
	PhaseReady
	// PhaseError means the last fetch failed and there is nothing to show.
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Mode selects which backend collection is fetched.
type Mode string

const (
	// ModeLatest fetches the newest BatchLimit updates.
	ModeLatest Mode = "latest"
	// ModeArchive fetches every stored update.
	ModeArchive Mode = "archive"
)

// ParseMode parses "latest" or "archive" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLatest:
		return ModeLatest, nil
	case ModeArchive:
		return ModeArchive, nil
	default:
		return "", fmt.Errorf("%w: unknown feed mode %q", entity.ErrInvalidInput, s)
	}
}

// Snapshot is a point-in-time copy of the feed state. It shares no memory
// with the controller.
type Snapshot struct {
	Phase Phase
	// Items is nil until the first successful fetch; an applied empty
	// batch is an empty, non-nil slice.
	Items []entity.ContentItem
	// Selected is a copy of the item taken at select time. It stays set
	// even if a later batch no longer contains it.
	Selected   *entity.ContentItem
	Refreshing bool
	// LastError describes the most recent failed fetch and is cleared by
	// the next success.
	LastError string
	// UpdatedAt is the time of the last successful fetch.
	UpdatedAt time.Time
	Mode      Mode
	// Seq is the sequence number of the last applied fetch.
	Seq uint64

	rev uint64
}

// Dangling reports whether the selected item is absent from Items.
func (s Snapshot) Dangling() bool {
	if s.Selected == nil {
		return false
	}
	_, ok := entity.FindItem(s.Items, s.Selected.ID)
	return !ok
}

// HasItems reports whether there is anything to render.
func (s Snapshot) HasItems() bool {
	return len(s.Items) > 0
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Items = entity.CloneItems(s.Items)
	if s.Selected != nil {
		sel := s.Selected.Clone()
		out.Selected = &sel
	}
	return out
}
