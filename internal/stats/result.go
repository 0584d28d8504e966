package stats

// Op names a request kind in per-request samples.
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// Sample is one timed request, kept only when an export asks for it.
type Sample struct {
	Op          Op
	Key         string
	Status      int
	LatencyMs   float64
	Bytes       int
	Worker      int
	StartUnixMs int64
	Err         string
}

// Result is the outcome of a workload: a worker's local totals before the
// merge, or the pooled totals after every worker has merged.
//
// Count is the number of reads attempted. Errors covers failed reads and
// failed writes, so Count >= Errors does not hold once writes fail. Writes
// counts attempted writes and is not part of Count.
type Result struct {
	Count     int64
	Errors    int64
	BytesRead int64
	Writes    int64
	// Latencies holds one sample per read in milliseconds, unordered.
	Latencies []float64
	Samples   []Sample
}

// RecordRead adds one read outcome to a local result.
func (r *Result) RecordRead(latencyMs float64, ok bool, bodyBytes int) {
	r.Count++
	r.Latencies = append(r.Latencies, latencyMs)
	if ok {
		r.BytesRead += int64(bodyBytes)
	} else {
		r.Errors++
	}
}

// RecordWrite adds one write outcome. Writes carry no latency sample.
func (r *Result) RecordWrite(ok bool) {
	r.Writes++
	if !ok {
		r.Errors++
	}
}
