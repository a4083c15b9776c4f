package tui

import "github.com/charmbracelet/lipgloss"

var (
	cyan   = lipgloss.Color("#22D3EE")
	pink   = lipgloss.Color("#F472B6")
	muted  = lipgloss.Color("#6B7280")
	amber  = lipgloss.Color("#F59E0B")
	danger = lipgloss.Color("#F87171")
)

type styles struct {
	header    lipgloss.Style
	channel   lipgloss.Style
	static    lipgloss.Style
	card      lipgloss.Style
	cursor    lipgloss.Style
	selected  lipgloss.Style
	title     lipgloss.Style
	date      lipgloss.Style
	fact      lipgloss.Style
	faint     lipgloss.Style
	skeleton  lipgloss.Style
	detail    lipgloss.Style
	warn      lipgloss.Style
	errorText lipgloss.Style
	help      lipgloss.Style
}

func defaultStyles() styles {
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(muted).
		Padding(0, 1)
	return styles{
		header:    lipgloss.NewStyle().Bold(true).Foreground(cyan),
		channel:   lipgloss.NewStyle().Foreground(pink).Bold(true),
		static:    lipgloss.NewStyle().Foreground(muted),
		card:      card,
		cursor:    card.BorderForeground(cyan),
		selected:  card.BorderForeground(pink),
		title:     lipgloss.NewStyle().Bold(true),
		date:      lipgloss.NewStyle().Foreground(muted),
		fact:      lipgloss.NewStyle().Foreground(cyan),
		faint:     lipgloss.NewStyle().Faint(true),
		skeleton:  lipgloss.NewStyle().Foreground(muted),
		detail:    lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(pink).Padding(0, 1),
		warn:      lipgloss.NewStyle().Foreground(amber),
		errorText: lipgloss.NewStyle().Foreground(danger),
		help:      lipgloss.NewStyle().Foreground(muted),
	}
}
