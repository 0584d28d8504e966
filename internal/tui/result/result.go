package result

import (
	"fmt"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	tea "github.com/charmbracelet/bubbletea"

	"gwbench/internal/stats"
	"gwbench/internal/tui/styles"
)

type Model struct {
	Summary stats.Summary
	Elapsed time.Duration

	Width  int
	Height int
}

func NewModel(s stats.Summary, elapsed time.Duration) Model {
	return Model{Summary: s, Elapsed: elapsed}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
	}
	return m, nil
}

func (m Model) View() string {
	s := strings.Builder{}
	sum := m.Summary

	s.WriteString(styles.Title.Render("Test Complete"))
	s.WriteString("\n\n")

	s.WriteString(styles.Active.Render("Overview"))
	s.WriteString("\n")

	overview := fmt.Sprintf(
		"Wall time:  %s\nReads:      %d\nWrites:     %d\nErrors:     %d (%.2f%%)\nRead bytes: %s\nQPS:        %.2f\nThroughput: %.2f MiB/s",
		m.Elapsed.Round(time.Millisecond), sum.Requests, sum.Writes,
		sum.Errors, sum.ErrorRate(), bytefmt.ByteSize(uint64(sum.BytesRead)),
		sum.QPS, sum.ThroughputMBps,
	)
	s.WriteString(styles.Box.Render(overview))
	s.WriteString("\n\n")

	s.WriteString(styles.Active.Render("Read latency"))
	s.WriteString("\n")

	latency := fmt.Sprintf(
		"Avg: %.2f ms\nP50: %.2f ms\nP95: %.2f ms\nP99: %.2f ms\nMax: %.2f ms",
		sum.Mean, sum.P50, sum.P95, sum.P99, sum.Max,
	)
	s.WriteString(styles.Box.Render(latency))
	s.WriteString("\n")

	return s.String()
}
