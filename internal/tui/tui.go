// Package tui provides the live session dashboard behind `flexmon watch`.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/uddhav/creative-thinking/internal/render"
	"github.com/uddhav/creative-thinking/internal/store"
	xstrings "github.com/uddhav/creative-thinking/internal/strings"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginLeft(2)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// View represents the current view mode
type View int

const (
	ViewMain View = iota
	ViewSessions
	ViewHelp
)

// Source supplies the dashboard with data. Every call re-reads persisted
// state so changes made by other flexmon commands show up.
type Source interface {
	Status(ctx context.Context, sessionID string) (render.StatusView, error)
	Sessions(ctx context.Context) ([]store.Summary, error)
}

// Model is the dashboard model
type Model struct {
	src      Source
	session  string
	interval time.Duration
	renderer *render.Renderer

	view        View
	status      render.StatusView
	sessions    []store.Summary
	selectedIdx int
	err         error
	loading     bool
	ready       bool
	quitting    bool
	lastUpdate  time.Time

	spinner  spinner.Model
	viewport viewport.Model
	width    int
	height   int
}

// Message types
type statusMsg struct {
	view render.StatusView
	at   time.Time
}
type sessionsMsg []store.Summary
type errMsg struct{ err error }
type tickMsg time.Time

// New creates a dashboard for sessionID refreshed every interval.
func New(src Source, sessionID string, interval time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	if interval <= 0 {
		interval = 2 * time.Second
	}
	return Model{
		src:      src,
		session:  sessionID,
		interval: interval,
		renderer: render.New(false),
		view:     ViewMain,
		spinner:  s,
		loading:  true,
		viewport: viewport.New(80, 20),
	}
}

// Session returns the session being watched.
func (m Model) Session() string {
	return m.session
}

// Init initializes the dashboard
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.fetchStatus(),
		m.fetchSessions(),
		m.tick(),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.view != ViewMain {
				m.view = ViewMain
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		case "?":
			if m.view == ViewHelp {
				m.view = ViewMain
			} else {
				m.view = ViewHelp
			}
			return m, nil
		case "r":
			m.loading = true
			return m, m.fetchStatus()
		case "s":
			if m.view == ViewMain {
				m.view = ViewSessions
				return m, m.fetchSessions()
			}
		case "up", "k":
			if m.view == ViewSessions && m.selectedIdx > 0 {
				m.selectedIdx--
			}
		case "down", "j":
			if m.view == ViewSessions && m.selectedIdx < len(m.sessions)-1 {
				m.selectedIdx++
			}
		case "enter":
			if m.view == ViewSessions && len(m.sessions) > 0 {
				m.session = m.sessions[m.selectedIdx].ID
				m.view = ViewMain
				m.loading = true
				return m, m.fetchStatus()
			}
		case "esc":
			m.view = ViewMain
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		headerHeight := 4
		footerHeight := 3
		m.viewport = viewport.New(max(msg.Width-4, 20), max(msg.Height-headerHeight-footerHeight, 5))
		m.viewport.SetContent(m.renderer.Status(m.status))

	case statusMsg:
		m.status = msg.view
		m.lastUpdate = msg.at
		m.loading = false
		m.err = nil
		m.viewport.SetContent(m.renderer.Status(m.status))

	case sessionsMsg:
		m.sessions = msg
		if m.selectedIdx >= len(m.sessions) {
			m.selectedIdx = 0
		}

	case errMsg:
		m.loading = false
		m.err = msg.err

	case tickMsg:
		cmds = append(cmds, m.fetchStatus(), m.tick())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.view == ViewMain {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return fmt.Sprintf("\n  %s Loading...", m.spinner.View())
	}

	switch m.view {
	case ViewSessions:
		return m.viewSessions()
	case ViewHelp:
		return m.viewHelp()
	default:
		return m.viewMain()
	}
}

func (m Model) viewMain() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("flexmon watch") + "\n")

	line := fmt.Sprintf("session %s", m.session)
	if !m.lastUpdate.IsZero() {
		line += " │ updated " + m.lastUpdate.Format("15:04:05")
	}
	if m.loading {
		line = m.spinner.View() + " " + line
	}
	b.WriteString("  " + infoStyle.Render(line) + "\n")
	if m.err != nil {
		b.WriteString("  " + errorStyle.Render("error: "+m.err.Error()) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(boxStyle.Width(max(m.width-4, 20)).Render(m.viewport.View()) + "\n")
	b.WriteString(helpStyle.Render("  r: refresh │ s: sessions │ ?: help │ q: quit"))
	return b.String()
}

func (m Model) viewSessions() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Sessions") + "\n\n")

	if len(m.sessions) == 0 {
		b.WriteString(infoStyle.Render("  No sessions found\n"))
	} else {
		for i, s := range m.sessions {
			cursor := "  "
			style := infoStyle
			if i == m.selectedIdx {
				cursor = "▶ "
				style = activeStyle
			}
			line := fmt.Sprintf("%s%-26s %-24s flex %.2f  %s",
				cursor,
				s.ID,
				xstrings.Truncate(s.Problem, 24),
				s.Flexibility,
				s.UpdatedAt.Format("Jan 02 15:04"),
			)
			b.WriteString(style.Render(line) + "\n")
		}
	}

	b.WriteString(helpStyle.Render("\n  enter: watch │ esc: back │ j/k: navigate"))
	return b.String()
}

func (m Model) viewHelp() string {
	help := `
  flexmon watch - Help

  NAVIGATION
    r         Refresh now
    s         Pick another session
    ?         Toggle help
    q         Quit

  SESSIONS
    j/k       Navigate up/down
    enter     Watch session
    esc       Back to main
`
	return titleStyle.Render("Help") + "\n" + infoStyle.Render(help) + helpStyle.Render("\n  press ? to return")
}

// Commands

func (m Model) fetchStatus() tea.Cmd {
	src, session := m.src, m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		v, err := src.Status(ctx, session)
		if err != nil {
			return errMsg{err}
		}
		return statusMsg{view: v, at: time.Now()}
	}
}

func (m Model) fetchSessions() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		list, err := src.Sessions(ctx)
		if err != nil {
			return errMsg{err}
		}
		return sessionsMsg(list)
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run starts the dashboard
func Run(src Source, sessionID string, interval time.Duration) error {
	p := tea.NewProgram(New(src, sessionID, interval), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
