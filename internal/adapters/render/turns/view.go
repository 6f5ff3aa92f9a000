package turns

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/aconomy-watch/internal/domain"
)

const (
	goldIcon    = "🪙"
	wheatIcon   = "🌾"
	workerIcon  = "👷"
	buildingTag = "🏠"
	mannedIcon  = "👨‍🌾"
	idleIcon    = "❌"
	thoughtIcon = "💭"
	warningIcon = "⚠️"

	defaultMaxIcons = 20
)

type RenderOptions struct {
	// ShowPrompt includes the full prompt sent to the agent for each turn.
	ShowPrompt bool
	// MaxIcons caps repeated resource icons; the rest is shown as +N.
	MaxIcons int
	// Width wraps free text when positive.
	Width int
	// Title replaces the default heading.
	Title string
}

// View renders turns without going through a bubbletea program.
func View(turns []domain.TurnRecord, opts RenderOptions) string {
	return renderView(turns, opts, newStyles())
}

func renderView(turns []domain.TurnRecord, opts RenderOptions, s styles) string {
	title := opts.Title
	if title == "" {
		title = "aconomy"
	}
	lines := []string{
		s.title.Render(title),
		s.header.Render(fmt.Sprintf("turns: %d", len(turns))),
	}

	if len(turns) == 0 {
		lines = append(lines, s.empty.Render("No turns received yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	// Consecutive records sharing a turn index are shown under one round heading.
	for i, turn := range turns {
		if i == 0 || turns[i-1].TurnIndex != turn.TurnIndex {
			lines = append(lines, s.round.Render(fmt.Sprintf("Turn %d", turn.TurnIndex)))
		}
		lines = append(lines, s.section.Render(renderTurn(turn, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// ViewTurn renders a single turn without the history heading.
func ViewTurn(turn domain.TurnRecord, opts RenderOptions) string {
	return renderTurn(turn, opts, newStyles())
}

func renderTurn(turn domain.TurnRecord, opts RenderOptions, s styles) string {
	parts := []string{
		s.agent.Render(fmt.Sprintf("Agent %d // Turn %d", turn.AgentID, turn.TurnIndex)),
		s.label.Render("Action: ") + s.action.Render(turn.Action),
		s.label.Render("Start"),
	}
	parts = append(parts, stateLines(turn.StartState, opts, s)...)

	if strategy := strings.TrimSpace(turn.Strategy); strategy != "" {
		parts = append(parts, s.strategy.Render(wrap(strategy, opts.Width)))
	}

	parts = append(parts, s.label.Render("End"))
	parts = append(parts, stateLines(turn.EndState, opts, s)...)

	if rationale := strings.TrimSpace(turn.PostRationalisation); rationale != "" {
		parts = append(parts,
			s.label.Render(thoughtIcon+" Post rationalisation:"),
			s.detail.Render(wrap(rationale, opts.Width)),
		)
	}

	if turn.Failed() {
		parts = append(parts, s.warning.Render(fmt.Sprintf("%s Error: %s", warningIcon, turn.Error.Message)))
	}

	if opts.ShowPrompt {
		parts = append(parts, promptLines(turn.FullPrompt, opts, s)...)
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func stateLines(state domain.AgentState, opts RenderOptions, s styles) []string {
	lines := []string{
		s.detail.Render(fmt.Sprintf("  Gold: %s %d", goldIcon, state.Gold)),
		s.detail.Render("  Wheat: " + iconCount(state.Wheat, wheatIcon, opts.MaxIcons)),
		s.detail.Render("  Workers: " + iconCount(state.Workers, workerIcon, opts.MaxIcons)),
	}

	if len(state.Buildings) == 0 {
		return lines
	}

	lines = append(lines, s.detail.Render(fmt.Sprintf("  %s Buildings:", buildingTag)))
	for _, building := range state.Buildings {
		marker := idleIcon
		if building.Manned {
			marker = mannedIcon
		}
		lines = append(lines, s.detail.Render(fmt.Sprintf("    %s %s", building.Type, marker)))
	}
	return lines
}

func promptLines(prompt domain.Prompt, opts RenderOptions, s styles) []string {
	if !prompt.Present || len(prompt.Messages) == 0 {
		return []string{s.empty.Render("  (no prompt recorded)")}
	}

	lines := []string{s.label.Render("Prompt:")}
	for _, message := range prompt.Messages {
		lines = append(lines, s.role.Render("  "+message.Role))
		if content := strings.TrimSpace(message.Content); content != "" {
			lines = append(lines, s.prompt.Render(wrap(content, opts.Width)))
		}
	}
	return lines
}

func iconCount(count int, icon string, max int) string {
	if max <= 0 {
		max = defaultMaxIcons
	}
	if count <= 0 {
		return "-"
	}
	if count <= max {
		return strings.Repeat(icon, count)
	}
	return fmt.Sprintf("%s +%d", strings.Repeat(icon, max), count-max)
}

func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

// RenderStatus renders the one-line session status shown above the turn history.
func RenderStatus(status domain.SessionStatus, turnCount int) string {
	return renderStatus(status, turnCount, newStyles())
}

func renderStatus(status domain.SessionStatus, turnCount int, s styles) string {
	var label string
	switch status.State {
	case domain.SessionLoading:
		label = s.stateWait.Render("starting…")
	case domain.SessionStarted:
		label = s.stateLive.Render("live")
	case domain.SessionError:
		label = s.warning.Render("error: " + status.Err)
	default:
		label = s.stateIdle.Render("idle")
		if status.Err != "" {
			label += " " + s.warning.Render("("+status.Err+")")
		}
	}

	meta := fmt.Sprintf("turns: %d", turnCount)
	if status.Handle != "" {
		meta += " · session " + status.Handle.Short()
	}
	return label + "  " + s.header.Render(meta)
}
