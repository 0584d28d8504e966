package report

import (
	"io"

	"gwbench/internal/stats"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "gwbench"

// WritePrometheus renders the summary in the Prometheus text exposition format.
func WritePrometheus(w io.Writer, s stats.Summary) error {
	reg := prometheus.NewRegistry()

	counter := func(name, help string, v float64) {
		c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
		c.Add(v)
		reg.MustRegister(c)
	}
	gauge := func(name, help string, v float64) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
		g.Set(v)
		reg.MustRegister(g)
	}

	counter("requests_total", "Total read requests.", float64(s.Requests))
	counter("errors_total", "Total failed requests.", float64(s.Errors))
	counter("writes_total", "Total write requests.", float64(s.Writes))
	counter("bytes_read_total", "Total bytes read.", float64(s.BytesRead))
	gauge("qps", "Reads per second over the configured duration.", s.QPS)
	gauge("throughput_mb_s", "Read throughput in MiB/s.", s.ThroughputMBps)

	latency := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "latency_ms",
		Help:      "Read latency percentiles.",
	}, []string{"quantile"})
	latency.WithLabelValues("0.50").Set(s.P50)
	latency.WithLabelValues("0.95").Set(s.P95)
	latency.WithLabelValues("0.99").Set(s.P99)
	reg.MustRegister(latency)

	families, err := reg.Gather()
	if err != nil {
		return errors.Wrap(err, "gather report metrics")
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return errors.Wrap(err, "encode report metrics")
		}
	}
	return nil
}
