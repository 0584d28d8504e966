// Package metrics exposes the live counters of a running load over HTTP in
// the Prometheus format.
package metrics

import (
	"gwbench/internal/runner"

	"github.com/prometheus/client_golang/prometheus"
)

// SnapshotFunc returns the current live counters.
type SnapshotFunc func() runner.StatsSnapshot

// Collector turns a snapshot into metrics on every scrape, so nothing is
// recorded on the request path.
type Collector struct {
	snapshot SnapshotFunc

	reads    *prometheus.Desc
	errors   *prometheus.Desc
	writes   *prometheus.Desc
	bytes    *prometheus.Desc
	qps      *prometheus.Desc
	mbps     *prometheus.Desc
	latency  *prometheus.Desc
	progress *prometheus.Desc
}

func NewCollector(snapshot SnapshotFunc) *Collector {
	return &Collector{
		snapshot: snapshot,
		reads:    prometheus.NewDesc("gwbench_live_requests_total", "Reads issued so far.", nil, nil),
		errors:   prometheus.NewDesc("gwbench_live_errors_total", "Failed requests so far.", nil, nil),
		writes:   prometheus.NewDesc("gwbench_live_writes_total", "Writes issued so far.", nil, nil),
		bytes:    prometheus.NewDesc("gwbench_live_bytes_read_total", "Bytes read so far.", nil, nil),
		qps:      prometheus.NewDesc("gwbench_live_qps", "Reads per second since the load started.", nil, nil),
		mbps:     prometheus.NewDesc("gwbench_live_throughput_mb_s", "Read throughput in MiB/s since the load started.", nil, nil),
		latency:  prometheus.NewDesc("gwbench_live_latency_ms", "Read latency percentiles from the live histograms.", []string{"quantile"}, nil),
		progress: prometheus.NewDesc("gwbench_live_progress_ratio", "Elapsed share of the configured duration.", nil, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.reads
	ch <- c.errors
	ch <- c.writes
	ch <- c.bytes
	ch <- c.qps
	ch <- c.mbps
	ch <- c.latency
	ch <- c.progress
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.snapshot()
	ch <- prometheus.MustNewConstMetric(c.reads, prometheus.CounterValue, float64(s.Reads))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(s.Errors))
	ch <- prometheus.MustNewConstMetric(c.writes, prometheus.CounterValue, float64(s.Writes))
	ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.CounterValue, float64(s.Bytes))
	ch <- prometheus.MustNewConstMetric(c.qps, prometheus.GaugeValue, s.QPS)
	ch <- prometheus.MustNewConstMetric(c.mbps, prometheus.GaugeValue, s.MBps)
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, s.P50Ms, "0.50")
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, s.P90Ms, "0.90")
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, s.P99Ms, "0.99")
	ch <- prometheus.MustNewConstMetric(c.progress, prometheus.GaugeValue, s.Progress())
}
