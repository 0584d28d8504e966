package storage

import (
	"time"
)

// MaxItems bounds how many runs the history keeps.
const MaxItems = 100

type HistoryItem struct {
	ID        string     `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Config    RunConfig  `json:"config"`
	Summary   RunSummary `json:"summary"`
}

// RunConfig is the part of the run configuration worth comparing across runs.
type RunConfig struct {
	Endpoint    string  `json:"endpoint"`
	Bucket      string  `json:"bucket"`
	Objects     int     `json:"objects"`
	ObjectBytes int     `json:"object_bytes"`
	RangeBytes  int     `json:"range_bytes"`
	DurationSec float64 `json:"duration_sec"`
	Threads     int     `json:"threads"`
	WriteRatio  float64 `json:"write_ratio"`
	HTTP2       bool    `json:"http2"`
}

type RunSummary struct {
	Requests       int64   `json:"requests"`
	Errors         int64   `json:"errors"`
	Writes         int64   `json:"writes"`
	BytesRead      int64   `json:"bytes_read"`
	QPS            float64 `json:"qps"`
	ThroughputMBps float64 `json:"throughput_mb_s"`
	P50Ms          float64 `json:"p50_ms"`
	P95Ms          float64 `json:"p95_ms"`
	P99Ms          float64 `json:"p99_ms"`
	MeanMs         float64 `json:"mean_ms"`
}
