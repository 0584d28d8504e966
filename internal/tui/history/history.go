package history

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gwbench/internal/stats"
	"gwbench/internal/storage"
	"gwbench/internal/tui/result"
	"gwbench/internal/tui/styles"
)

// Model browses stored runs. Enter opens the selected run's summary, esc
// goes back.
type Model struct {
	Items []storage.HistoryItem
	Table table.Model

	detail *result.Model

	Width  int
	Height int
}

func NewModel(items []storage.HistoryItem) Model {
	columns := []table.Column{
		{Title: "Time", Width: 20},
		{Title: "Endpoint", Width: 30},
		{Title: "Threads", Width: 8},
		{Title: "Reqs", Width: 10},
		{Title: "QPS", Width: 10},
		{Title: "p99 ms", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := Model{Items: items, Table: t}
	m.Table.SetRows(Rows(items))
	return m
}

// Rows formats items as table rows, one per run.
func Rows(items []storage.HistoryItem) []table.Row {
	rows := make([]table.Row, len(items))
	for i, item := range items {
		rows[i] = table.Row{
			item.Timestamp.Format(time.RFC822),
			item.Config.Endpoint,
			fmt.Sprintf("%d", item.Config.Threads),
			fmt.Sprintf("%d", item.Summary.Requests),
			fmt.Sprintf("%.2f", item.Summary.QPS),
			fmt.Sprintf("%.2f", item.Summary.P99Ms),
		}
	}
	return rows
}

// ToSummary rebuilds the report figures kept for a stored run.
func ToSummary(item storage.HistoryItem) stats.Summary {
	return stats.Summary{
		Requests:       item.Summary.Requests,
		Errors:         item.Summary.Errors,
		Writes:         item.Summary.Writes,
		BytesRead:      item.Summary.BytesRead,
		DurationSec:    item.Config.DurationSec,
		QPS:            item.Summary.QPS,
		ThroughputMBps: item.Summary.ThroughputMBps,
		P50:            item.Summary.P50Ms,
		P95:            item.Summary.P95Ms,
		P99:            item.Summary.P99Ms,
		Mean:           item.Summary.MeanMs,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Table.SetWidth(msg.Width - 4)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.detail = nil
			return m, nil
		case "enter":
			i := m.Table.Cursor()
			if i >= 0 && i < len(m.Items) {
				item := m.Items[i]
				d := result.NewModel(ToSummary(item), time.Duration(item.Config.DurationSec*float64(time.Second)))
				m.detail = &d
			}
			return m, nil
		}
	}

	if m.detail != nil {
		return m, nil
	}
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.detail != nil {
		return m.detail.View() + "\n" + styles.Subtle.Render("esc: back  q: quit")
	}
	if len(m.Items) == 0 {
		return styles.Subtle.Render("no runs recorded yet, run with --history") + "\n"
	}
	return styles.Box.Render(m.Table.View()) + "\n" + styles.Subtle.Render("enter: details  q: quit")
}
