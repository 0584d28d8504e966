package live

import (
	"fmt"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gwbench/internal/runner"
	"gwbench/internal/tui/components"
	"gwbench/internal/tui/styles"
)

type Model struct {
	Stats    runner.StatsSnapshot
	Progress progress.Model

	QpsLine     components.Sparkline
	LatencyLine components.Sparkline

	LastUpdate time.Time
	LastReads  uint64

	Width  int
	Height int
}

func NewModel() Model {
	return Model{
		Progress:    progress.New(progress.WithDefaultGradient()),
		QpsLine:     components.NewSparkline(40, 1, "Reads/s", styles.Active),
		LatencyLine: components.NewSparkline(40, 1, "Read latency P90 (ms)", styles.Warn),
		LastUpdate:  time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runner.StatsSnapshot:
		now := time.Now()
		dt := now.Sub(m.LastUpdate).Seconds()
		if dt < 0.01 {
			dt = 0.01
		}

		// QPS over the last tick rather than since start
		qps := float64(msg.Reads-m.LastReads) / dt
		if msg.Reads < m.LastReads {
			qps = 0
		}

		m.QpsLine.Add(uint64(qps))
		m.LatencyLine.Add(uint64(msg.P90Ms))

		m.Stats = msg
		m.LastReads = msg.Reads
		m.LastUpdate = now

		cmd := m.Progress.SetPercent(msg.Progress())
		return m, cmd

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = msg.Width - 4

		half := (msg.Width / 2) - 4
		if half < 10 {
			half = 10
		}
		m.QpsLine.Width = half
		m.LatencyLine.Width = half
		return m, nil

	case progress.FrameMsg:
		prog, cmd := m.Progress.Update(msg)
		m.Progress = prog.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// ErrorRate is failed requests as a share of reads, in percent.
func (m Model) ErrorRate() float64 {
	if m.Stats.Reads == 0 {
		return 0
	}
	return float64(m.Stats.Errors) / float64(m.Stats.Reads) * 100
}

func (m Model) View() string {
	s := strings.Builder{}

	errRate := m.ErrorRate()
	var errColor lipgloss.Style
	if errRate > 5.0 {
		errColor = styles.Error
	} else if errRate > 1.0 {
		errColor = styles.Warn
	} else {
		errColor = styles.Active
	}

	col1 := fmt.Sprintf("READS: %d\nWRITES: %d", m.Stats.Reads, m.Stats.Writes)
	col2 := fmt.Sprintf("ERR: %.2f%%\nFAIL: %d", errRate, m.Stats.Errors)
	col3 := fmt.Sprintf("READ: %s\nRATE: %.2f MiB/s",
		bytefmt.ByteSize(m.Stats.Bytes), m.Stats.MBps)

	grid := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(col1),
		styles.Box.Render(errColor.Render(col2)),
		styles.Box.Render(col3),
	)
	s.WriteString(grid)
	s.WriteString("\n\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(m.QpsLine.View()),
		styles.Box.Render(m.LatencyLine.View()),
	))
	s.WriteString("\n\n")

	latencies := fmt.Sprintf(
		"P50: %.2f ms  |  P90: %.2f ms  |  P99: %.2f ms  |  Max: %.2f ms",
		m.Stats.P50Ms,
		m.Stats.P90Ms,
		m.Stats.P99Ms,
		m.Stats.MaxMs,
	)
	width := m.Width - 4
	if width < 20 {
		width = 20
	}
	s.WriteString(styles.Box.Width(width).Render(latencies))
	s.WriteString("\n\n")

	s.WriteString(m.Progress.View())
	s.WriteString(styles.Subtle.Render(fmt.Sprintf("  %s / %s",
		m.Stats.Elapsed.Round(time.Second), m.Stats.Duration)))

	return s.String()
}
