// Package tui is the terminal viewer of the research feed: a bubbletea
// program that renders controller snapshots as cards, a detail pane for
// the selected item and the media channel carousel.
package tui

import (
	"context"
	"errors"
	"time"

	"postlabor-feed/internal/usecase/channel"
	"postlabor-feed/internal/usecase/feed"

	tea "github.com/charmbracelet/bubbletea"
)

// Controller is the part of *feed.Controller the viewer drives.
type Controller interface {
	Snapshot() feed.Snapshot
	Subscribe() (<-chan feed.Snapshot, func())
	Refresh(ctx context.Context)
	SetMode(ctx context.Context, mode feed.Mode) error
	Toggle(id int64) bool
	Dismiss()
	Close()
}

// Each half of the channel change: static appears, then the new channel
// is revealed.
const transitionPhase = 150 * time.Millisecond

type snapshotMsg feed.Snapshot

type subscriptionClosedMsg struct{}

type revealMsg struct{ gen int }

type clearFlashMsg struct{ gen int }

// Model is the bubbletea model of the viewer.
type Model struct {
	ctrl     Controller
	channels *channel.Selector
	updates  <-chan feed.Snapshot
	unsub    func()

	snap   feed.Snapshot
	cursor int
	width  int
	height int

	static        bool
	transitionGen int

	flash    string
	flashGen int
	quitting bool

	styles styles
}

// New subscribes to ctrl. channels may be nil to hide the carousel.
func New(ctrl Controller, channels *channel.Selector) Model {
	updates, unsub := ctrl.Subscribe()
	return Model{
		ctrl:     ctrl,
		channels: channels,
		updates:  updates,
		unsub:    unsub,
		snap:     ctrl.Snapshot(),
		width:    80,
		styles:   defaultStyles(),
	}
}

func waitForSnapshot(ch <-chan feed.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return subscriptionClosedMsg{}
		}
		return snapshotMsg(s)
	}
}

func reveal(gen int) tea.Cmd {
	return tea.Tick(2*transitionPhase, func(time.Time) tea.Msg { return revealMsg{gen: gen} })
}

func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case snapshotMsg:
		m.snap = feed.Snapshot(msg)
		m.clampCursor()
		return m, waitForSnapshot(m.updates)

	case subscriptionClosedMsg:
		return m, nil

	case revealMsg:
		if msg.gen == m.transitionGen {
			m.static = false
		}
		return m, nil

	case clearFlashMsg:
		if msg.gen == m.flashGen {
			m.flash = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		m.unsub()
		m.ctrl.Close()
		return m, tea.Quit

	case "j", "down":
		if m.cursor < len(m.snap.Items)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if len(m.snap.Items) > 0 {
			m.ctrl.Toggle(m.snap.Items[m.cursor].ID)
		}
	case "esc":
		m.ctrl.Dismiss()
	case "r":
		m.ctrl.Refresh(context.Background())
		return m.setFlash("refreshing...")
	case "a":
		next := feed.ModeArchive
		if m.snap.Mode == feed.ModeArchive {
			next = feed.ModeLatest
		}
		if err := m.ctrl.SetMode(context.Background(), next); err != nil {
			return m.setFlash(err.Error())
		}
		m.cursor = 0
		return m.setFlash("mode: " + string(next))

	case "[", "]":
		if m.channels == nil {
			return m, nil
		}
		if key == "]" {
			m.channels.Next()
		} else {
			m.channels.Previous()
		}
		return m.startTransition()

	case "1", "2", "3", "4", "5", "6", "7", "8", "9", "0":
		if m.channels == nil {
			return m, nil
		}
		idx := int(key[0]-'0') - 1
		if key == "0" {
			idx = 9
		}
		changed, err := m.channels.SelectIndex(idx)
		if err != nil {
			if errors.Is(err, channel.ErrIndexOutOfRange) {
				return m.setFlash("no such channel")
			}
			return m.setFlash(err.Error())
		}
		if changed {
			return m.startTransition()
		}
	}
	return m, nil
}

func (m Model) startTransition() (tea.Model, tea.Cmd) {
	m.transitionGen++
	m.static = m.channels.Transition().Static
	return m, reveal(m.transitionGen)
}

func (m Model) setFlash(text string) (tea.Model, tea.Cmd) {
	m.flashGen++
	m.flash = text
	gen := m.flashGen
	return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg { return clearFlashMsg{gen: gen} })
}

func (m *Model) clampCursor() {
	switch {
	case len(m.snap.Items) == 0:
		m.cursor = 0
	case m.cursor >= len(m.snap.Items):
		m.cursor = len(m.snap.Items) - 1
	}
}
