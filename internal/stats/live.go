package stats

import (
	"sync/atomic"
	"time"
)

// Live holds one worker's running counters for progress display. Only the
// owning worker writes to it; monitors read it concurrently.
type Live struct {
	Reads  uint64
	Errors uint64
	Bytes  uint64
	Writes uint64

	// read latency, microseconds
	Latency *SafeHistogram
}

func NewLive() *Live {
	return &Live{Latency: NewSafeHistogram()}
}

func (l *Live) AddRead(ok bool, bytes int, latency time.Duration) {
	atomic.AddUint64(&l.Reads, 1)
	if ok {
		atomic.AddUint64(&l.Bytes, uint64(bytes))
	} else {
		atomic.AddUint64(&l.Errors, 1)
	}
	l.Latency.Record(latency)
}

func (l *Live) AddWrite(ok bool) {
	atomic.AddUint64(&l.Writes, 1)
	if !ok {
		atomic.AddUint64(&l.Errors, 1)
	}
}

// LiveTotals is a point-in-time sum over several Live counters.
type LiveTotals struct {
	Reads   uint64
	Errors  uint64
	Bytes   uint64
	Writes  uint64
	Latency LatencyView
}

// SumLive reads every counter once and merges the latency histograms.
func SumLive(lives []*Live) LiveTotals {
	var t LiveTotals
	hs := make([]*SafeHistogram, 0, len(lives))
	for _, l := range lives {
		t.Reads += atomic.LoadUint64(&l.Reads)
		t.Errors += atomic.LoadUint64(&l.Errors)
		t.Bytes += atomic.LoadUint64(&l.Bytes)
		t.Writes += atomic.LoadUint64(&l.Writes)
		hs = append(hs, l.Latency)
	}
	t.Latency = MergeHistograms(hs...)
	return t
}

// ErrorRate returns errors as a percentage of reads.
func (t LiveTotals) ErrorRate() float64 {
	if t.Reads == 0 {
		return 0
	}
	return float64(t.Errors) / float64(t.Reads) * 100
}
