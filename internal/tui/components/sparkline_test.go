package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestSparklineWindow(t *testing.T) {
	s := NewSparkline(3, 1, "qps", lipgloss.NewStyle())
	for _, v := range []uint64{100, 1, 2, 8} {
		s.Add(v)
	}
	if len(s.Data) != 3 || s.Max != 8 || s.Last() != 8 {
		t.Fatalf("data=%v max=%d", s.Data, s.Max)
	}
	lines := strings.Split(s.View(), "\n")
	if len(lines) != 2 || lines[0] != "qps" {
		t.Fatalf("view %q", s.View())
	}
	if !strings.HasSuffix(lines[1], "█") {
		t.Fatalf("newest max value should render as a full block: %q", lines[1])
	}
}

func TestLevel(t *testing.T) {
	if level(5, 0) != " " || level(0, 10) != " " || level(10, 10) != "█" {
		t.Fatal("unexpected levels")
	}
}
