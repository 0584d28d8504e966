package config

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gwbench/internal/runner"
)

func press(m Model, k tea.KeyType) Model {
	next, _ := m.Update(tea.KeyMsg{Type: k})
	return next.(Model)
}

func TestGetConfigDefaults(t *testing.T) {
	cfg := runner.DefaultConfig()
	cfg.Endpoint = "http://localhost:8080"

	got, err := NewModel(cfg).GetConfig()
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if got.Threads != cfg.Threads || got.Duration != cfg.Duration || got.Objects != cfg.Objects || got.Bucket != cfg.Bucket {
		t.Errorf("form changed the config: %+v", got)
	}
}

func TestGetConfigEdited(t *testing.T) {
	m := NewModel(runner.DefaultConfig())
	m.Fields[fieldEndpoint].Input.SetValue("https://gw.example:9000")
	m.Fields[fieldThreads].Input.SetValue("16")
	m.Fields[fieldDuration].Input.SetValue("5")
	m.Fields[fieldWriteRatio].Input.SetValue("0.25")

	got, err := m.GetConfig()
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if got.Endpoint != "https://gw.example:9000" || got.Threads != 16 || got.Duration != 5*time.Second || got.WriteRatio != 0.25 {
		t.Errorf("unexpected config: %+v", got)
	}
}

func TestGetConfigRejects(t *testing.T) {
	cases := map[string]func(*Model){
		"empty endpoint": func(m *Model) { m.Fields[fieldEndpoint].Input.SetValue("") },
		"bad threads":    func(m *Model) { m.Fields[fieldThreads].Input.SetValue("many") },
		"zero objects":   func(m *Model) { m.Fields[fieldObjects].Input.SetValue("0") },
		"bad ratio":      func(m *Model) { m.Fields[fieldWriteRatio].Input.SetValue("x") },
	}
	for name, edit := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := runner.DefaultConfig()
			cfg.Endpoint = "http://localhost:8080"
			m := NewModel(cfg)
			edit(&m)
			if _, err := m.GetConfig(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestFocusAndSubmit(t *testing.T) {
	cfg := runner.DefaultConfig()
	cfg.Endpoint = "http://localhost:8080"
	m := NewModel(cfg)

	m = press(m, tea.KeyShiftTab)
	if m.Focus != fieldCount-1 {
		t.Fatalf("shift+tab from the first field should wrap, focus=%d", m.Focus)
	}
	m = press(m, tea.KeyEnter)
	if !m.Submitted {
		t.Error("enter on the last field should submit")
	}
}

func TestInvalidSubmitStays(t *testing.T) {
	m := NewModel(runner.DefaultConfig())
	m.Focus = fieldCount - 1
	m = press(m, tea.KeyEnter)
	if m.Submitted || m.Err == nil {
		t.Errorf("submitted without endpoint: submitted=%v err=%v", m.Submitted, m.Err)
	}
}

func TestEscAborts(t *testing.T) {
	m := press(NewModel(runner.DefaultConfig()), tea.KeyEsc)
	if !m.Aborted {
		t.Error("esc should abort")
	}
}
