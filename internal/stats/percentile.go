package stats

import "sort"

// Percentile returns the nearest-rank percentile p (0..100) of an ascending
// slice: the element at floor((p/100)*(len-1)). No interpolation. An empty
// slice yields 0.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int((p / 100) * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Sorted returns an ascending copy of latencies.
func Sorted(latencies []float64) []float64 {
	out := make([]float64, len(latencies))
	copy(out, latencies)
	sort.Float64s(out)
	return out
}
