// File: internal/observability/metrics.go
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteMetrics dumps every metric in the default registry to path in the
// Prometheus text format, for node_exporter's textfile collector.
func WriteMetrics(path string) error {
	return writeMetrics(path, prometheus.DefaultGatherer)
}

func writeMetrics(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
