package stats

import "time"

const bytesPerMB = 1024 * 1024

// Summary holds the derived metrics of a finished run.
type Summary struct {
	Requests       int64
	Errors         int64
	Writes         int64
	BytesRead      int64
	DurationSec    float64
	QPS            float64
	ThroughputMBps float64
	P50            float64
	P95            float64
	P99            float64
	Min            float64
	Max            float64
	Mean           float64
}

// Summarize computes rates over the configured duration and latency
// percentiles over the pooled samples. Rates are 0 when duration <= 0.
func Summarize(res Result, duration time.Duration) Summary {
	s := Summary{
		Requests:    res.Count,
		Errors:      res.Errors,
		Writes:      res.Writes,
		BytesRead:   res.BytesRead,
		DurationSec: duration.Seconds(),
	}
	if s.DurationSec > 0 {
		s.QPS = float64(res.Count) / s.DurationSec
		s.ThroughputMBps = float64(res.BytesRead) / bytesPerMB / s.DurationSec
	} else {
		s.DurationSec = 0
	}

	sorted := Sorted(res.Latencies)
	s.P50 = Percentile(sorted, 50)
	s.P95 = Percentile(sorted, 95)
	s.P99 = Percentile(sorted, 99)
	if n := len(sorted); n > 0 {
		s.Min = sorted[0]
		s.Max = sorted[n-1]
		var sum float64
		for _, v := range sorted {
			sum += v
		}
		s.Mean = sum / float64(n)
	}
	return s
}

// ErrorRate returns errors as a percentage of reads.
func (s Summary) ErrorRate() float64 {
	if s.Requests == 0 {
		return 0
	}
	return float64(s.Errors) / float64(s.Requests) * 100
}
