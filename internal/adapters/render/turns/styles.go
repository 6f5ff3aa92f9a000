package turns

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	round     lipgloss.Style
	agent     lipgloss.Style
	action    lipgloss.Style
	label     lipgloss.Style
	detail    lipgloss.Style
	strategy  lipgloss.Style
	warning   lipgloss.Style
	section   lipgloss.Style
	empty     lipgloss.Style
	role      lipgloss.Style
	prompt    lipgloss.Style
	stateIdle lipgloss.Style
	stateLive lipgloss.Style
	stateWait lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		round:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")).MarginTop(1),
		agent:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		action:    lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		label:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		detail:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		strategy:  lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")),
		warning:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:   lipgloss.NewStyle().MarginTop(1).PaddingLeft(2),
		empty:     lipgloss.NewStyle().Faint(true),
		role:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244")),
		prompt:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).PaddingLeft(2),
		stateIdle: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		stateLive: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		stateWait: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
}
