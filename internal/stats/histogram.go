package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// SafeHistogram is a thread-safe wrapper around hdrhistogram.
// Values are latencies in microseconds.
type SafeHistogram struct {
	hist *hdrhistogram.Histogram
	mu   sync.Mutex
}

func newHistogram() *hdrhistogram.Histogram {
	// 1us to 10min, 3 significant figures
	return hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3)
}

func NewSafeHistogram() *SafeHistogram {
	return &SafeHistogram{hist: newHistogram()}
}

// Record records d, clamped to the histogram range.
func (h *SafeHistogram) Record(d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.hist.RecordValue(us); err != nil {
		_ = h.hist.RecordValue(h.hist.HighestTrackableValue())
	}
}

// mergeInto adds this histogram's counts to dst.
func (h *SafeHistogram) mergeInto(dst *hdrhistogram.Histogram) {
	h.mu.Lock()
	defer h.mu.Unlock()
	dst.Merge(h.hist)
}

func (h *SafeHistogram) TotalCount() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.TotalCount()
}

// LatencyView is a read-only percentile view over merged histograms.
type LatencyView struct {
	hist *hdrhistogram.Histogram
}

// MergeHistograms folds hs into a fresh histogram.
func MergeHistograms(hs ...*SafeHistogram) LatencyView {
	out := newHistogram()
	for _, h := range hs {
		if h != nil {
			h.mergeInto(out)
		}
	}
	return LatencyView{hist: out}
}

// QuantileMs returns the q-th percentile (0..100) in milliseconds.
func (v LatencyView) QuantileMs(q float64) float64 {
	if v.hist.TotalCount() == 0 {
		return 0
	}
	return float64(v.hist.ValueAtQuantile(q)) / 1000.0
}

func (v LatencyView) MeanMs() float64 {
	return v.hist.Mean() / 1000.0
}

func (v LatencyView) MaxMs() float64 {
	return float64(v.hist.Max()) / 1000.0
}

func (v LatencyView) TotalCount() int64 {
	return v.hist.TotalCount()
}
