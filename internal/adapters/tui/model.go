package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	turnsview "github.com/bnema/aconomy-watch/internal/adapters/render/turns"
	"github.com/bnema/aconomy-watch/internal/domain"
)

// Session is the part of the session controller the TUI drives.
type Session interface {
	Start(ctx context.Context, endpoint, credential string) error
	Stop(ctx context.Context) error
	Status() domain.SessionStatus
	Snapshot() []domain.TurnRecord
}

type CredentialSaver interface {
	Save(ctx context.Context, value string) error
}

type Config struct {
	Session       Session
	Credentials   CredentialSaver
	Notifications <-chan domain.Notification
	Endpoint      string
	Credential    string
	AutoStart     bool
}

type notificationMsg struct {
	notification domain.Notification
}

type notificationsClosedMsg struct{}

type actionDoneMsg struct {
	action string
	err    error
}

type credentialSavedMsg struct {
	value string
	err   error
}

const chromeHeight = 4

type Model struct {
	ctx           context.Context
	session       Session
	credentials   CredentialSaver
	notifications <-chan domain.Notification
	endpoint      string
	credential    string
	autoStart     bool

	keys     KeyMap
	entry    entryKeyMap
	help     help.Model
	spinner  spinner.Model
	viewport viewport.Model
	input    textinput.Model
	styles   styles

	status     domain.SessionStatus
	turnCount  int
	lastSeq    uint64
	showPrompt bool
	entering   bool
	notice     string
	warning    string
	width      int
	height     int
}

func New(ctx context.Context, cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "sk-..."
	input.Prompt = "API key: "
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'

	m := Model{
		ctx:           ctx,
		session:       cfg.Session,
		credentials:   cfg.Credentials,
		notifications: cfg.Notifications,
		endpoint:      cfg.Endpoint,
		credential:    strings.TrimSpace(cfg.Credential),
		autoStart:     cfg.AutoStart,
		keys:          DefaultKeyMap,
		entry:         entryKeyMap{submit: DefaultKeyMap.Submit, cancel: DefaultKeyMap.Cancel},
		help:          help.New(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
		),
		viewport: viewport.New(0, 0),
		input:    input,
		styles:   newStyles(),
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.waitForNotification()}
	if m.autoStart && m.credential != "" {
		cmds = append(cmds, m.startCmd())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-len(m.input.Prompt)-2, 10)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.refresh()
		return m, nil

	case notificationMsg:
		if msg.notification.Seq > m.lastSeq {
			m.lastSeq = msg.notification.Seq
		}
		if msg.notification.Kind == domain.NotifyParseFailed {
			m.warning = "skipped frame: " + msg.notification.Err
		}
		m.refresh()
		return m, m.waitForNotification()

	case notificationsClosedMsg:
		return m, nil

	case actionDoneMsg:
		m.warning = ""
		if msg.err != nil {
			m.warning = msg.action + " failed: " + msg.err.Error()
		}
		m.refresh()
		return m, nil

	case credentialSavedMsg:
		if msg.err != nil {
			m.warning = "save api key: " + msg.err.Error()
			return m, nil
		}
		m.credential = msg.value
		m.notice = "API key saved"
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.entering {
			return m.updateEntry(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Start):
		if !m.status.State.CanStart() {
			m.warning = domain.ErrSessionActive.Error()
			return m, nil
		}
		if m.credential == "" {
			m.notice = "enter an API key first"
			cmd := m.openEntry()
			return m, cmd
		}
		m.notice = ""
		return m, m.startCmd()

	case key.Matches(msg, m.keys.Stop):
		return m, m.stopCmd()

	case key.Matches(msg, m.keys.Prompts):
		m.showPrompt = !m.showPrompt
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.EnterKey):
		cmd := m.openEntry()
		return m, cmd

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		value := strings.TrimSpace(m.input.Value())
		m.closeEntry()
		if value == "" {
			m.warning = "api key is empty"
			return m, nil
		}
		return m, m.saveCredentialCmd(value)

	case key.Matches(msg, m.keys.Cancel):
		m.closeEntry()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) openEntry() tea.Cmd {
	m.entering = true
	m.input.Reset()
	return m.input.Focus()
}

func (m *Model) closeEntry() {
	m.entering = false
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) refresh() {
	if m.session == nil {
		return
	}

	turns := m.session.Snapshot()
	m.status = m.session.Status()
	m.turnCount = len(turns)

	follow := m.viewport.AtBottom()
	m.viewport.SetContent(turnsview.View(turns, turnsview.RenderOptions{
		ShowPrompt: m.showPrompt,
		Width:      max(m.viewport.Width-4, 0),
		Title:      "aconomy // " + m.endpoint,
	}))
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m Model) waitForNotification() tea.Cmd {
	if m.notifications == nil {
		return nil
	}
	ch := m.notifications
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return notificationsClosedMsg{}
		}
		return notificationMsg{notification: n}
	}
}

func (m Model) startCmd() tea.Cmd {
	ctx, session, endpoint, credential := m.ctx, m.session, m.endpoint, m.credential
	return func() tea.Msg {
		return actionDoneMsg{action: "start", err: session.Start(ctx, endpoint, credential)}
	}
}

func (m Model) stopCmd() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return actionDoneMsg{action: "stop", err: session.Stop(ctx)}
	}
}

func (m Model) saveCredentialCmd(value string) tea.Cmd {
	ctx, credentials := m.ctx, m.credentials
	return func() tea.Msg {
		if credentials == nil {
			return credentialSavedMsg{err: errors.New("no credential store configured")}
		}
		return credentialSavedMsg{value: value, err: credentials.Save(ctx, value)}
	}
}

func (m Model) View() string {
	status := turnsview.RenderStatus(m.status, m.turnCount)
	if m.status.State == domain.SessionLoading {
		status = m.spinner.View() + " " + status
	}

	lines := []string{status}
	switch {
	case m.warning != "":
		lines = append(lines, m.styles.warning.Render(m.warning))
	case m.notice != "":
		lines = append(lines, m.styles.notice.Render(m.notice))
	default:
		lines = append(lines, "")
	}

	lines = append(lines, m.viewport.View())

	if m.entering {
		lines = append(lines, m.input.View(), m.help.View(m.entry))
	} else {
		lines = append(lines, m.help.View(m.keys))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Run shows the interactive viewer until the user quits or ctx is cancelled.
func Run(ctx context.Context, cfg Config, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, cfg), opts...)

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
