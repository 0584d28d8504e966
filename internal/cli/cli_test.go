package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"gwbench/internal/runner"
	"gwbench/internal/stats"

	"github.com/fatih/color"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, "[----]"},
		{0.5, "[██--]"},
		{1, "[████]"},
		{2, "[████]"},
		{-1, "[----]"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.pct, 4); got != tt.want {
			t.Errorf("progressBar(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestPrintHeader(t *testing.T) {
	color.NoColor = true
	cfg := runner.DefaultConfig()
	cfg.Endpoint = "http://gw:9000"

	var buf bytes.Buffer
	PrintHeader(&buf, cfg, false)
	out := buf.String()
	for _, want := range []string{"http://gw:9000", "100 x 64K", "first 16K", "Workers    : 4", "HTTP/1.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("header missing %q:\n%s", want, out)
		}
	}
}

func TestMonitorPrintsSnapshots(t *testing.T) {
	updates := make(runner.StatsUpdateChan, 1)
	updates <- runner.StatsSnapshot{Elapsed: time.Second, Duration: 2 * time.Second, QPS: 12.5, Errors: 3}

	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		Monitor(ctx, &buf, updates)
		close(done)
	}()
	for len(updates) > 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done

	if !strings.Contains(buf.String(), " 50% ") || !strings.Contains(buf.String(), "QPS: 12.5") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestPrintSummary(t *testing.T) {
	color.NoColor = true
	s := stats.Summarize(stats.Result{Count: 10, Errors: 1, Latencies: []float64{1, 2, 3}}, time.Second)
	var buf bytes.Buffer
	PrintSummary(&buf, s, time.Second)
	if !strings.Contains(buf.String(), "Errors         : 1 (10.00%)") {
		t.Fatalf("got:\n%s", buf.String())
	}
}
