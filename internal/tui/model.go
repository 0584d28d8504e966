// Package tui is the optional full-screen dashboard shown while a run is in
// progress.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"gwbench/internal/runner"
	"gwbench/internal/stats"
	"gwbench/internal/tui/live"
	"gwbench/internal/tui/result"
	"gwbench/internal/tui/styles"

	tea "github.com/charmbracelet/bubbletea"
)

// DoneMsg ends the live view once the runner has returned.
type DoneMsg struct {
	Summary stats.Summary
	Elapsed time.Duration
	Err     error
}

type Model struct {
	Cfg     runner.Config
	Updates runner.StatsUpdateChan
	Cancel  context.CancelFunc

	Live   live.Model
	Result result.Model

	Done     bool
	Err      error
	Quitting bool
	Width    int
	Height   int
}

func NewModel(cfg runner.Config, updates runner.StatsUpdateChan, cancel context.CancelFunc) Model {
	return Model{
		Cfg:     cfg,
		Updates: updates,
		Cancel:  cancel,
		Live:    live.NewModel(),
	}
}

// NewProgram renders m to out, which is normally stderr so stdout keeps
// only the report.
func NewProgram(m Model, out io.Writer) *tea.Program {
	return tea.NewProgram(m, tea.WithOutput(out))
}

func waitForUpdate(ch runner.StatsUpdateChan) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.Updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		var cmd tea.Cmd
		m.Live, cmd = m.Live.Update(msg)
		m.Result, _ = m.Result.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.Quitting = true
			if m.Cancel != nil {
				m.Cancel()
			}
			return m, tea.Quit
		}

	case runner.StatsSnapshot:
		var cmd tea.Cmd
		m.Live, cmd = m.Live.Update(msg)
		return m, tea.Batch(cmd, waitForUpdate(m.Updates))

	case DoneMsg:
		m.Done = true
		m.Err = msg.Err
		m.Result = result.NewModel(msg.Summary, msg.Elapsed)
		m.Result.Width = m.Width
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.Live, cmd = m.Live.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.Quitting && !m.Done {
		return styles.Subtle.Render("Run cancelled.") + "\n"
	}

	s := strings.Builder{}
	s.WriteString(styles.Title.Render("gwbench"))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Endpoint: %s | Bucket: %s | Workers: %d | Write ratio: %.2f\n",
		m.Cfg.Endpoint, m.Cfg.Bucket, m.Cfg.Threads, m.Cfg.WriteRatio))
	s.WriteString("\n")

	if m.Done {
		if m.Err != nil {
			s.WriteString(styles.Error.Render(m.Err.Error()))
			s.WriteString("\n")
			return s.String()
		}
		s.WriteString(m.Result.View())
		return s.String()
	}

	s.WriteString(m.Live.View())
	s.WriteString("\n")
	s.WriteString(styles.Subtle.Render("Press q to cancel"))
	s.WriteString("\n")
	return s.String()
}
