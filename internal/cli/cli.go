// Package cli draws the headless console: run header, preload bar and a
// one-line live progress display, all on stderr.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gwbench/internal/runner"
	"gwbench/internal/stats"

	"code.cloudfoundry.org/bytefmt"
	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Interactive reports whether stderr is a terminal worth drawing on.
func Interactive() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func PrintHeader(w io.Writer, cfg runner.Config, http2 bool) {
	title := color.New(color.FgCyan, color.Bold)
	rule := strings.Repeat("=", 70)

	title.Fprintf(w, "\nGWBENCH OBJECT GATEWAY LOAD TEST\n")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Endpoint   : %s\n", cfg.Endpoint)
	fmt.Fprintf(w, "Bucket     : %s\n", cfg.Bucket)
	fmt.Fprintf(w, "Objects    : %d x %s\n", cfg.Objects, bytefmt.ByteSize(uint64(cfg.ObjectBytes)))
	if cfg.RangeBytes > 0 {
		fmt.Fprintf(w, "Reads      : ranged, first %s\n", bytefmt.ByteSize(uint64(cfg.RangeBytes)))
	} else {
		fmt.Fprintf(w, "Reads      : full object\n")
	}
	fmt.Fprintf(w, "Workers    : %d\n", cfg.Threads)
	fmt.Fprintf(w, "Duration   : %s\n", cfg.Duration)
	fmt.Fprintf(w, "Write ratio: %.2f\n", cfg.WriteRatio)
	if cfg.HotsetSize > 0 {
		fmt.Fprintf(w, "Hot set    : %d keys, %.0f%% of reads\n", cfg.HotsetSize, cfg.HotsetTraffic*100)
	}
	if cfg.RateLimit > 0 {
		fmt.Fprintf(w, "Rate limit : %.0f reads/s\n", cfg.RateLimit)
	}
	proto := "HTTP/1.1"
	if http2 {
		proto = "HTTP/2"
	}
	fmt.Fprintf(w, "Protocol   : %s\n", proto)
	fmt.Fprintln(w, rule)
}

// PreloadBar follows the preload on a pb progress bar.
type PreloadBar struct {
	bar *pb.ProgressBar
}

func NewPreloadBar(w io.Writer, total int) *PreloadBar {
	bar := pb.New(total)
	bar.SetWriter(w)
	bar.SetRefreshRate(125 * time.Millisecond)
	bar.SetTemplateString(`{{string . "prefix"}}{{counters . }} {{bar . }} {{percent . }} {{speed . }}`)
	bar.Set("prefix", "preload ")
	bar.Start()
	return &PreloadBar{bar: bar}
}

// Observe is a runner.ProgressFunc.
func (p *PreloadBar) Observe(done, total int) {
	p.bar.SetCurrent(int64(done))
}

func (p *PreloadBar) Finish() {
	p.bar.Finish()
}

// Monitor prints a progress line for every snapshot until ctx is done.
func Monitor(ctx context.Context, w io.Writer, updates runner.StatsUpdateChan) {
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w)
			return
		case s := <-updates:
			pct := s.Progress()
			fmt.Fprintf(w, "\r%s %3.0f%% | %s/%s | QPS: %.1f | %s/s | p99: %.2fms | Err: %d ",
				progressBar(pct, 20), pct*100,
				s.Elapsed.Round(time.Second), s.Duration,
				s.QPS,
				bytefmt.ByteSize(uint64(s.MBps*1024*1024)),
				s.P99Ms,
				s.Errors,
			)
		}
	}
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

// PrintSummary writes a human-readable summary.
func PrintSummary(w io.Writer, s stats.Summary, elapsed time.Duration) {
	bold := color.New(color.Bold)
	rule := strings.Repeat("=", 70)

	bold.Fprintf(w, "\nLOAD TEST RESULTS\n")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Wall time      : %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Reads          : %d\n", s.Requests)
	fmt.Fprintf(w, "Writes         : %d\n", s.Writes)
	errLine := fmt.Sprintf("Errors         : %d (%.2f%%)\n", s.Errors, s.ErrorRate())
	if s.Errors > 0 {
		color.New(color.FgRed).Fprint(w, errLine)
	} else {
		fmt.Fprint(w, errLine)
	}
	fmt.Fprintf(w, "Read volume    : %s\n", bytefmt.ByteSize(uint64(s.BytesRead)))
	fmt.Fprintf(w, "QPS            : %.2f\n", s.QPS)
	fmt.Fprintf(w, "Throughput     : %.2f MiB/s\n", s.ThroughputMBps)
	fmt.Fprintf(w, "\nREAD LATENCY (ms)\n")
	fmt.Fprintf(w, "   Min : %.2f\n", s.Min)
	fmt.Fprintf(w, "   P50 : %.2f\n", s.P50)
	fmt.Fprintf(w, "   P95 : %.2f\n", s.P95)
	fmt.Fprintf(w, "   P99 : %.2f\n", s.P99)
	fmt.Fprintf(w, "   Max : %.2f\n", s.Max)
	fmt.Fprintln(w, rule)
}
