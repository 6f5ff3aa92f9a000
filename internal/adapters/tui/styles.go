package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	warning lipgloss.Style
	notice  lipgloss.Style
}

func newStyles() styles {
	return styles{
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		notice:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
}
