package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func SetupPrometheus(cs ...prometheus.Collector) *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()

	// Add Go module build info and runtime metrics
	promRegistry.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
	)
	for _, c := range cs {
		promRegistry.MustRegister(c)
	}

	return promRegistry
}

// WriteTextfile dumps the registry in the node exporter textfile format,
// so short-lived CLI runs can still be scraped.
func WriteTextfile(path string, reg *prometheus.Registry) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
