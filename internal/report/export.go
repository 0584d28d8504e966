package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"gwbench/internal/stats"
	"gwbench/internal/transport"
)

// RunInfo identifies a run in exported files.
type RunInfo struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Endpoint  string    `json:"endpoint"`
	Bucket    string    `json:"bucket"`
	Objects   int       `json:"objects"`
	Threads   int       `json:"threads"`
	Duration  string    `json:"duration"`
}

type summaryFile struct {
	Run            RunInfo `json:"run"`
	Requests       int64   `json:"requests"`
	Errors         int64   `json:"errors"`
	Writes         int64   `json:"writes"`
	BytesRead      int64   `json:"bytes_read"`
	QPS            float64 `json:"qps"`
	ThroughputMBps float64 `json:"throughput_mb_s"`
	P50Ms          float64 `json:"p50_ms"`
	P95Ms          float64 `json:"p95_ms"`
	P99Ms          float64 `json:"p99_ms"`
	MinMs          float64 `json:"min_ms"`
	MaxMs          float64 `json:"max_ms"`
	MeanMs         float64 `json:"mean_ms"`
	ErrorRatePct   float64 `json:"error_rate_pct"`
}

// ExportSummary writes the summary as JSON.
func ExportSummary(info RunInfo, s stats.Summary, filename string) error {
	out := summaryFile{
		Run:            info,
		Requests:       s.Requests,
		Errors:         s.Errors,
		Writes:         s.Writes,
		BytesRead:      s.BytesRead,
		QPS:            s.QPS,
		ThroughputMBps: s.ThroughputMBps,
		P50Ms:          s.P50,
		P95Ms:          s.P95,
		P99Ms:          s.P99,
		MinMs:          s.Min,
		MaxMs:          s.Max,
		MeanMs:         s.Mean,
		ErrorRatePct:   s.ErrorRate(),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// ExportCSV exports samples to a JMeter-compatible CSV file.
// Schema: timeStamp,elapsed,label,responseCode,responseMessage,threadName,dataType,success,failureMessage,bytes,sentBytes,grpThreads,allThreads,URL,Latency,IdleTime,Connect
func ExportCSV(samples []stats.Sample, threads int, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{
		"timeStamp", "elapsed", "label", "responseCode", "responseMessage",
		"threadName", "dataType", "success", "failureMessage", "bytes",
		"sentBytes", "grpThreads", "allThreads", "URL", "Latency", "IdleTime", "Connect",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	allThreads := strconv.Itoa(threads)
	for _, s := range samples {
		ok := s.Err == ""
		if s.Op == stats.OpRead {
			ok = ok && transport.IsReadSuccess(s.Status)
		} else {
			ok = ok && transport.IsSuccess(s.Status)
		}

		received, sent := s.Bytes, 0
		if s.Op == stats.OpWrite {
			received, sent = 0, s.Bytes
		}
		elapsed := strconv.FormatInt(int64(s.LatencyMs), 10)

		record := []string{
			strconv.FormatInt(s.StartUnixMs, 10),
			elapsed,
			string(s.Op),
			strconv.Itoa(s.Status),
			http.StatusText(s.Status),
			fmt.Sprintf("worker-%d", s.Worker),
			"bin",
			strconv.FormatBool(ok),
			s.Err,
			strconv.Itoa(received),
			strconv.Itoa(sent),
			allThreads,
			allThreads,
			s.Key,
			elapsed, // Latency
			"0",     // IdleTime
			"0",     // Connect happens before the timed loop
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
