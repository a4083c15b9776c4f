package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"postlabor-feed/internal/domain/entity"
	"postlabor-feed/internal/usecase/channel"
	"postlabor-feed/internal/usecase/feed"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	snap    feed.Snapshot
	updates chan feed.Snapshot

	toggled     []int64
	dismissed   int
	refreshed   int
	modes       []feed.Mode
	closed      bool
	unsubscribe int
}

func newFakeController(snap feed.Snapshot) *fakeController {
	return &fakeController{snap: snap, updates: make(chan feed.Snapshot, 1)}
}

func (f *fakeController) Snapshot() feed.Snapshot { return f.snap }
func (f *fakeController) Subscribe() (<-chan feed.Snapshot, func()) {
	return f.updates, func() { f.unsubscribe++ }
}
func (f *fakeController) Refresh(ctx context.Context) { f.refreshed++ }
func (f *fakeController) SetMode(ctx context.Context, mode feed.Mode) error {
	f.modes = append(f.modes, mode)
	return nil
}
func (f *fakeController) Toggle(id int64) bool {
	f.toggled = append(f.toggled, id)
	return true
}
func (f *fakeController) Dismiss() { f.dismissed++ }
func (f *fakeController) Close()   { f.closed = true }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(Model)
	}
	return m, cmd
}

func readyItems(ids ...int64) feed.Snapshot {
	items := make([]entity.ContentItem, len(ids))
	for i, id := range ids {
		items[i] = entity.ContentItem{
			ID:       id,
			Title:    "Update " + string(rune('A'+i)),
			Summary:  "Automation keeps reshaping the labor market.",
			KeyFacts: []string{"fact one", "fact two", "fact three"},
			Sources:  []entity.SourceRef{{Title: "BLS", URL: "https://www.bls.gov"}, {Title: "OECD"}},
		}
	}
	return feed.Snapshot{Phase: feed.PhaseReady, Items: items, Mode: feed.ModeLatest, Seq: 1}
}

func newSelector(t *testing.T, n int) *channel.Selector {
	t.Helper()
	sel, err := channel.NewSelector(entity.DefaultMediaChannels()[:n])
	require.NoError(t, err)
	return sel
}

func TestModel_InitDeliversSnapshots(t *testing.T) {
	ctrl := newFakeController(feed.Snapshot{Phase: feed.PhaseLoading})
	m := New(ctrl, nil)

	ctrl.updates <- readyItems(1, 2)
	msg := m.Init()()
	require.IsType(t, snapshotMsg{}, msg)

	next, cmd := m.Update(msg)
	m = next.(Model)
	assert.Equal(t, feed.PhaseReady, m.snap.Phase)
	assert.NotNil(t, cmd, "keeps listening")

	close(ctrl.updates)
	assert.Equal(t, subscriptionClosedMsg{}, cmd())
}

func TestModel_CursorAndSelection(t *testing.T) {
	ctrl := newFakeController(readyItems(7, 8, 9))
	m := New(ctrl, nil)

	m, _ = press(t, m, runes("j"), runes("j"), runes("j"))
	assert.Equal(t, 2, m.cursor, "cursor stops at the last item")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.cursor)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, []int64{8}, ctrl.toggled)
	assert.Equal(t, 1, ctrl.dismissed)

	next, _ := m.Update(snapshotMsg(readyItems(1)))
	assert.Equal(t, 0, next.(Model).cursor, "cursor is clamped to the new batch")
}

func TestModel_EnterOnEmptyFeedIsNoOp(t *testing.T) {
	ctrl := newFakeController(feed.Snapshot{Phase: feed.PhaseReady, Items: []entity.ContentItem{}})
	m := New(ctrl, nil)
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, ctrl.toggled)
}

func TestModel_RefreshAndMode(t *testing.T) {
	ctrl := newFakeController(readyItems(1))
	m := New(ctrl, nil)

	m, _ = press(t, m, runes("r"))
	assert.Equal(t, 1, ctrl.refreshed)
	assert.Equal(t, "refreshing...", m.flash)

	m, _ = press(t, m, runes("a"))
	assert.Equal(t, []feed.Mode{feed.ModeArchive}, ctrl.modes)

	archived := readyItems(1)
	archived.Mode = feed.ModeArchive
	next, _ := m.Update(snapshotMsg(archived))
	press(t, next.(Model), runes("a"))
	assert.Equal(t, []feed.Mode{feed.ModeArchive, feed.ModeLatest}, ctrl.modes)
}

func TestModel_FlashClearsOnlyForLatestGeneration(t *testing.T) {
	ctrl := newFakeController(readyItems(1))
	m := New(ctrl, nil)
	m, _ = press(t, m, runes("r"), runes("r"))

	next, _ := m.Update(clearFlashMsg{gen: 1})
	assert.Equal(t, "refreshing...", next.(Model).flash)
	next, _ = m.Update(clearFlashMsg{gen: 2})
	assert.Empty(t, next.(Model).flash)
}

func TestModel_Quit(t *testing.T) {
	ctrl := newFakeController(readyItems(1))
	m := New(ctrl, nil)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.True(t, ctrl.closed)
	assert.Equal(t, 1, ctrl.unsubscribe)
	assert.Empty(t, m.View())
}

func TestModel_ChannelTransition(t *testing.T) {
	sel := newSelector(t, 10)
	m := New(newFakeController(readyItems(1)), sel)

	m, cmd := press(t, m, runes("]"))
	require.NotNil(t, cmd)
	idx, _ := sel.Current()
	assert.Equal(t, 1, idx)
	assert.True(t, m.static)
	assert.Contains(t, m.View(), "STATIC")

	// A second switch before the reveal supersedes the first.
	m, _ = press(t, m, runes("["))
	next, _ := m.Update(revealMsg{gen: 1})
	assert.True(t, next.(Model).static)
	next, _ = m.Update(revealMsg{gen: 2})
	assert.False(t, next.(Model).static)
	assert.Contains(t, next.(Model).View(), "CH 01")

	m, _ = press(t, m, runes("0"))
	idx, _ = sel.Current()
	assert.Equal(t, 9, idx)

	m, cmd = press(t, m, runes("0"))
	assert.Nil(t, cmd, "selecting the current channel does nothing")
}

func TestModel_ChannelOutOfRange(t *testing.T) {
	sel := newSelector(t, 3)
	m := New(newFakeController(readyItems(1)), sel)

	m, _ = press(t, m, runes("9"))
	assert.Equal(t, "no such channel", m.flash)
	idx, _ := sel.Current()
	assert.Equal(t, 0, idx)
}

func TestView_Phases(t *testing.T) {
	tests := []struct {
		name string
		snap feed.Snapshot
		want string
		not  string
	}{
		{"loading skeleton", feed.Snapshot{Phase: feed.PhaseLoading}, "░", warmingUpText},
		{"error without items", feed.Snapshot{Phase: feed.PhaseError, LastError: "timeout"}, warmingUpText, emptyFeedText},
		{"ready and empty", feed.Snapshot{Phase: feed.PhaseReady, Items: []entity.ContentItem{}}, emptyFeedText, warmingUpText},
		{"stale batch shows transient error", func() feed.Snapshot {
			s := readyItems(1)
			s.LastError = "research backend returned status 503"
			return s
		}(), "! research backend returned status 503", warmingUpText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := New(newFakeController(tt.snap), nil).View()
			assert.Contains(t, view, tt.want)
			assert.NotContains(t, view, tt.not)
		})
	}
}

func TestView_CardAndDetail(t *testing.T) {
	snap := readyItems(4)
	snap.Items[0].CreatedAt = time.Date(2025, 11, 15, 14, 30, 0, 0, time.UTC)
	m := New(newFakeController(snap), nil)
	m.width = 120

	view := m.View()
	assert.Contains(t, view, "Update A")
	assert.Contains(t, view, "Nov 15, 2025, 02:30 PM")
	assert.Contains(t, view, "fact two")
	assert.NotContains(t, view, "fact three", "cards show two key facts")
	assert.Contains(t, view, "2 sources")

	gone := entity.ContentItem{ID: 99, Title: "Removed update", KeyFacts: []string{"a", "b", "fact three"}}
	snap.Selected = &gone
	m.snap = snap
	view = m.View()
	assert.Contains(t, view, "Removed update")
	assert.Contains(t, view, danglingMarker)
	assert.Contains(t, view, "fact three", "detail shows every fact")
}

func TestWrapLines(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		limit int
		lines int
	}{
		{"capped with ellipsis", strings.Repeat("word ", 40), 20, 3, 3},
		{"short", "short", 20, 3, 1},
		{"unlimited", strings.Repeat("word ", 40), 20, 0, 10},
		{"long word is broken", strings.Repeat("x", 45), 20, 0, 3},
		{"wide characters", strings.Repeat("労働のない未来 ", 12), 20, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := wrapLines(tt.text, tt.width, tt.limit)
			require.Len(t, lines, tt.lines)
			for _, l := range lines {
				assert.LessOrEqual(t, ansi.StringWidth(l), tt.width, "line %q", l)
			}
		})
	}

	assert.Nil(t, wrapLines("   ", 20, 3))
}

func TestWrapLines_SingleEllipsis(t *testing.T) {
	// The second line ends in a literal "…" before the cut.
	text := strings.Repeat("word ", 7) + "… " + strings.Repeat("more ", 20)
	lines := wrapLines(text, 20, 2)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[1], " …"))
	assert.Equal(t, 1, strings.Count(lines[1], "…"))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "hello", clip("hello", 10))
	assert.Equal(t, "hel…", clip("hello", 4))
	assert.Equal(t, "…", clip("hello", 1))

	wide := clip("労働のない未来", 7)
	assert.LessOrEqual(t, ansi.StringWidth(wide), 7)
	assert.True(t, strings.HasSuffix(wide, "…"))
}
