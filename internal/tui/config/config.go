package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"gwbench/internal/runner"
	"gwbench/internal/tui/styles"
)

const (
	fieldEndpoint = iota
	fieldBucket
	fieldObjects
	fieldObjectBytes
	fieldRangeBytes
	fieldThreads
	fieldDuration
	fieldWriteRatio
	fieldCount
)

type Field struct {
	Label string
	Input textinput.Model
}

// Model is the form shown before a dashboard run when no endpoint was given.
type Model struct {
	Config runner.Config

	Fields []Field
	Focus  int

	// Submitted is set when enter is pressed on the last field, Aborted on esc.
	Submitted bool
	Aborted   bool
	Err       error

	Width  int
	Height int
}

func newInput(placeholder, value string, width int) textinput.Model {
	t := textinput.New()
	t.Placeholder = placeholder
	t.SetValue(value)
	t.Width = width
	return t
}

func NewModel(cfg runner.Config) Model {
	m := Model{
		Config: cfg,
		Fields: make([]Field, fieldCount),
	}

	m.Fields[fieldEndpoint] = Field{Label: "Endpoint", Input: newInput("http://localhost:8080", cfg.Endpoint, 50)}
	m.Fields[fieldBucket] = Field{Label: "Bucket", Input: newInput("prompt-cache", cfg.Bucket, 30)}
	m.Fields[fieldObjects] = Field{Label: "Objects", Input: newInput("100", strconv.Itoa(cfg.Objects), 10)}
	m.Fields[fieldObjectBytes] = Field{Label: "Object bytes", Input: newInput("65536", strconv.Itoa(cfg.ObjectBytes), 10)}
	m.Fields[fieldRangeBytes] = Field{Label: "Range bytes (0 = whole object)", Input: newInput("16384", strconv.Itoa(cfg.RangeBytes), 10)}
	m.Fields[fieldThreads] = Field{Label: "Threads", Input: newInput("4", strconv.Itoa(cfg.Threads), 10)}
	m.Fields[fieldDuration] = Field{Label: "Duration (s)", Input: newInput("30", strconv.Itoa(int(cfg.Duration/time.Second)), 10)}
	m.Fields[fieldWriteRatio] = Field{Label: "Write ratio", Input: newInput("0", strconv.FormatFloat(cfg.WriteRatio, 'g', -1, 64), 10)}

	m.Fields[fieldEndpoint].Input.Focus()
	m.Fields[fieldEndpoint].Input.PromptStyle = styles.Active
	m.Fields[fieldEndpoint].Input.TextStyle = styles.Active
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch s := msg.String(); s {
		case "esc", "ctrl+c":
			m.Aborted = true
			return m, tea.Quit

		case "tab", "shift+tab", "enter", "up", "down":
			if s == "enter" && m.Focus == len(m.Fields)-1 {
				if _, err := m.GetConfig(); err != nil {
					m.Err = err
					return m, nil
				}
				m.Submitted = true
				return m, tea.Quit
			}

			if s == "up" || s == "shift+tab" {
				m.Focus--
			} else {
				m.Focus++
			}

			if m.Focus > len(m.Fields)-1 {
				m.Focus = 0
			} else if m.Focus < 0 {
				m.Focus = len(m.Fields) - 1
			}

			for i := 0; i <= len(m.Fields)-1; i++ {
				if i == m.Focus {
					m.Fields[i].Input.Focus()
					m.Fields[i].Input.PromptStyle = styles.Active
					m.Fields[i].Input.TextStyle = styles.Active
				} else {
					m.Fields[i].Input.Blur()
					m.Fields[i].Input.PromptStyle = lipgloss.NewStyle()
					m.Fields[i].Input.TextStyle = lipgloss.NewStyle()
				}
			}
			return m, nil
		}
	}

	m.Err = nil
	for i := range m.Fields {
		m.Fields[i].Input, cmd = m.Fields[i].Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// GetConfig applies the form values on top of the initial config.
func (m Model) GetConfig() (runner.Config, error) {
	c := m.Config
	value := func(i int) string { return strings.TrimSpace(m.Fields[i].Input.Value()) }

	ints := []struct {
		field int
		dst   *int
	}{
		{fieldObjects, &c.Objects},
		{fieldObjectBytes, &c.ObjectBytes},
		{fieldRangeBytes, &c.RangeBytes},
		{fieldThreads, &c.Threads},
	}
	for _, f := range ints {
		n, err := strconv.Atoi(value(f.field))
		if err != nil {
			return c, errors.Errorf("%s: not a number", m.Fields[f.field].Label)
		}
		*f.dst = n
	}

	secs, err := strconv.Atoi(value(fieldDuration))
	if err != nil {
		return c, errors.Errorf("%s: not a number", m.Fields[fieldDuration].Label)
	}
	c.Duration = time.Duration(secs) * time.Second

	if c.WriteRatio, err = strconv.ParseFloat(value(fieldWriteRatio), 64); err != nil {
		return c, errors.Errorf("%s: not a number", m.Fields[fieldWriteRatio].Label)
	}

	c.Endpoint = value(fieldEndpoint)
	c.Bucket = value(fieldBucket)
	return c, c.Validate()
}

func (m Model) View() string {
	s := strings.Builder{}

	s.WriteString(styles.Title.Render("Run configuration"))
	s.WriteString("\n\n")

	for i := range m.Fields {
		s.WriteString(styles.Subtle.Render(m.Fields[i].Label))
		s.WriteString("\n")
		s.WriteString(m.Fields[i].Input.View())
		s.WriteString("\n\n")
	}

	if m.Err != nil {
		s.WriteString(styles.Error.Render(fmt.Sprintf("%v", m.Err)))
		s.WriteString("\n")
	}
	s.WriteString("\n")
	s.WriteString(styles.Active.Render("[Enter] on the last field starts the run, [Esc] cancels"))

	return styles.Box.Render(s.String())
}
