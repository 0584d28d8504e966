package stats

import "sync"

// Aggregator pools worker results. Each worker calls Merge exactly once after
// its loop ends; Result is only meaningful after all of them have returned.
type Aggregator struct {
	mu     sync.Mutex
	res    Result
	merges int
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Merge adds local to the shared totals and appends its latency pool.
func (a *Aggregator) Merge(local Result) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.res.Count += local.Count
	a.res.Errors += local.Errors
	a.res.BytesRead += local.BytesRead
	a.res.Writes += local.Writes
	a.res.Latencies = append(a.res.Latencies, local.Latencies...)
	a.res.Samples = append(a.res.Samples, local.Samples...)
	a.merges++
}

// Merges returns how many workers have merged so far.
func (a *Aggregator) Merges() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.merges
}

// Result returns the pooled totals.
func (a *Aggregator) Result() Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.res
}
