package tui

import (
	"themerec/themes"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles of the terminal front end.
type Styles struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Error     lipgloss.Style
	Card      lipgloss.Style
	CardTitle lipgloss.Style
	Muted     lipgloss.Style
	Input     lipgloss.Style
	Help      lipgloss.Style
	Spinner   lipgloss.Style
}

// NewStyles derives the styles from the accent color of theme.
func NewStyles(theme themes.Theme) Styles {
	accent := lipgloss.Color(themes.Get(theme).Accent)
	muted := lipgloss.Color("245")

	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(accent),
		Subtitle:  lipgloss.NewStyle().Foreground(muted).Italic(true),
		Tab:       lipgloss.NewStyle().Padding(0, 1).Foreground(muted),
		ActiveTab: lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("230")).Background(accent),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Assistant: lipgloss.NewStyle().Foreground(accent),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 1),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1).
			MarginBottom(1),
		CardTitle: lipgloss.NewStyle().Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(muted),
		Input: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Spinner: lipgloss.NewStyle().Foreground(accent),
	}
}
