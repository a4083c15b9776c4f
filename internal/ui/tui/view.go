package tui

import (
	"fmt"
	"strings"

	"postlabor-feed/internal/domain/entity"
	"postlabor-feed/internal/usecase/feed"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	warmingUpText  = "Research feed is warming up... Check back soon!"
	emptyFeedText  = "No research updates yet."
	danglingMarker = "(no longer in feed)"

	summaryLines  = 3
	cardFacts     = 2
	skeletonCards = 3
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	sections := []string{m.styles.header.Render("POST-LABOR RESEARCH FEED")}
	if m.channels != nil {
		sections = append(sections, m.viewChannel())
	}
	sections = append(sections, m.viewFeed())
	if m.snap.Selected != nil {
		sections = append(sections, m.viewDetail(*m.snap.Selected, m.snap.Dangling()))
	}
	sections = append(sections, m.viewStatus(), m.viewHelp())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewChannel() string {
	idx, ch := m.channels.Current()
	label := m.styles.channel.Render(ch.Label())
	if m.static {
		return label + " " + m.styles.static.Render("░▒▓ STATIC ▓▒░")
	}
	return fmt.Sprintf("%s %s %s", label, ch.Title,
		m.styles.faint.Render(fmt.Sprintf("(%d/%d %s)", idx+1, m.channels.Len(), ch.Src)))
}

func (m Model) viewFeed() string {
	switch {
	case m.snap.Phase == feed.PhaseLoading:
		return m.viewSkeleton()
	case m.snap.Phase == feed.PhaseError && !m.snap.HasItems():
		return m.styles.warn.Render(warmingUpText)
	case !m.snap.HasItems():
		return m.styles.faint.Render(emptyFeedText)
	}

	cards := make([]string, 0, len(m.snap.Items))
	for i, item := range m.snap.Items {
		cards = append(cards, m.viewCard(i, item))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (m Model) viewSkeleton() string {
	w := m.contentWidth()
	bar := func(frac int) string {
		return m.styles.skeleton.Render(strings.Repeat("░", max(1, w*frac/4)))
	}
	cards := make([]string, skeletonCards)
	for i := range cards {
		cards[i] = m.styles.card.Width(w).Render(strings.Join([]string{bar(2), bar(4), bar(3)}, "\n"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (m Model) viewCard(i int, item entity.ContentItem) string {
	w := m.contentWidth()
	inner := w - 2
	lines := []string{
		m.styles.title.Render(clip(item.Title, inner)),
		m.styles.date.Render(item.FormatCreatedAt()),
	}
	lines = append(lines, wrapLines(item.Summary, inner, summaryLines)...)
	for _, f := range item.KeyFactsPreview(cardFacts) {
		lines = append(lines, m.styles.fact.Render("• "+clip(f, inner-2)))
	}
	lines = append(lines, m.styles.faint.Render(sourceCount(len(item.Sources))))

	style := m.styles.card
	switch {
	case m.snap.Selected != nil && m.snap.Selected.ID == item.ID:
		style = m.styles.selected
	case i == m.cursor:
		style = m.styles.cursor
	}
	return style.Width(w).Render(strings.Join(lines, "\n"))
}

func (m Model) viewDetail(item entity.ContentItem, dangling bool) string {
	w := m.contentWidth()
	title := m.styles.title.Render(item.Title)
	if dangling {
		title += " " + m.styles.warn.Render(danglingMarker)
	}
	lines := []string{title, m.styles.date.Render(item.FormatCreatedAt()), ""}
	lines = append(lines, wrapLines(item.Summary, w-2, 0)...)
	if len(item.KeyFacts) > 0 {
		lines = append(lines, "", m.styles.header.Render("Key facts"))
		for _, f := range item.KeyFacts {
			lines = append(lines, m.styles.fact.Render("• "+f))
		}
	}
	if len(item.Sources) > 0 {
		lines = append(lines, "", m.styles.header.Render(fmt.Sprintf("Sources (%d)", len(item.Sources))))
		for _, s := range item.Sources {
			line := s.Title
			if s.URL != "" {
				line += " " + m.styles.faint.Render(s.URL)
			}
			lines = append(lines, "- "+line)
		}
	}
	if item.HasImage() {
		lines = append(lines, "", m.styles.faint.Render("image: "+item.ImageURL))
	}
	return m.styles.detail.Width(w).Render(strings.Join(lines, "\n"))
}

func (m Model) viewStatus() string {
	parts := []string{"mode: " + string(m.snap.Mode)}
	if m.snap.Refreshing {
		parts = append(parts, m.styles.warn.Render("refreshing..."))
	}
	if !m.snap.UpdatedAt.IsZero() {
		parts = append(parts, "updated "+m.snap.UpdatedAt.Local().Format("15:04:05"))
	}
	if m.snap.LastError != "" && m.snap.HasItems() {
		parts = append(parts, m.styles.errorText.Render("! "+clip(m.snap.LastError, 60)))
	}
	if m.flash != "" {
		parts = append(parts, m.flash)
	}
	return strings.Join(parts, " | ")
}

func (m Model) viewHelp() string {
	help := "j/k move • enter open • esc close • r refresh • a archive • q quit"
	if m.channels != nil {
		help = "[/] channel • 1-0 jump • " + help
	}
	return m.styles.help.Render(help)
}

func (m Model) contentWidth() int {
	// border and padding take 4 columns
	return max(20, m.width-4)
}

func sourceCount(n int) string {
	if n == 1 {
		return "1 source"
	}
	return fmt.Sprintf("%d sources", n)
}

// clip shortens s to w terminal cells, ending in "…" when cut.
func clip(s string, w int) string {
	if w <= 0 {
		return s
	}
	return ansi.Truncate(s, w, "…")
}

// wrapLines word-wraps s to w cells, breaking words longer than a line.
// With limit > 0 only the first limit lines are kept and the last one ends
// in "…".
func wrapLines(s string, w, limit int) []string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return nil
	}
	lines := strings.Split(ansi.Wrap(s, w, ""), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	if limit > 0 && len(lines) > limit {
		lines = lines[:limit]
		last := strings.TrimRight(lines[limit-1], " …")
		lines[limit-1] = ansi.Truncate(last, w-2, "") + " …"
	}
	return lines
}
