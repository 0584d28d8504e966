// Package report renders a finished run: the key/value report on stdout,
// its Prometheus text form, and file exports of the per-request samples.
package report

import (
	"bytes"
	"fmt"
	"io"

	"gwbench/internal/stats"
)

// WriteText prints the fixed report lines in order.
func WriteText(w io.Writer, s stats.Summary) error {
	_, err := fmt.Fprintf(w,
		"requests %d\nerrors %d\nqps %.2f\nthroughput_mb_s %.2f\np50_ms %.2f\np95_ms %.2f\np99_ms %.2f\n",
		s.Requests, s.Errors, s.QPS, s.ThroughputMBps, s.P50, s.P95, s.P99)
	return err
}

// WriteGatewayMetrics appends the gateway's own /metrics page between
// markers, or one error line when it could not be fetched. In Prometheus
// mode the markers are comments so the output stays parseable.
func WriteGatewayMetrics(w io.Writer, body []byte, fetchErr error, prom bool) error {
	prefix := ""
	if prom {
		prefix = "# "
	}
	if fetchErr != nil {
		_, err := fmt.Fprintf(w, "%sgateway_metrics_error %v\n", prefix, fetchErr)
		return err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%sgateway_metrics_begin\n", prefix)
	buf.Write(body)
	if len(body) > 0 && body[len(body)-1] != '\n' {
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, "%sgateway_metrics_end\n", prefix)
	_, err := w.Write(buf.Bytes())
	return err
}
