package pipeline

import (
	"fmt"
	"log"
	"strings"

	"visaprep/internal/config"
	"visaprep/internal/metrics"
	"visaprep/internal/metrics/datadog"
	"visaprep/internal/metrics/prompush"
)

// SetupMetrics installs the configured metrics backend and returns the
// function that flushes it at the end of the run. "none" keeps the nop
// backend.
func SetupMetrics(m config.Metrics, job string) (flush func(), err error) {
	var b metrics.Backend
	switch strings.ToLower(m.Backend) {
	case "", "none":
		return func() {}, nil
	case "pushgateway", "prom", "prometheus":
		if b, err = prompush.NewBackend(job, m.PushgatewayURL); err != nil {
			return nil, fmt.Errorf("metrics: pushgateway: %w", err)
		}
	case "datadog", "dogstatsd":
		if b, err = datadog.NewBackend(datadog.Config{
			Addr:       m.StatsdAddr,
			Namespace:  "visaprep.",
			GlobalTags: []string{"job:" + job},
		}); err != nil {
			return nil, fmt.Errorf("metrics: datadog: %w", err)
		}
	default:
		return nil, fmt.Errorf("metrics: unknown backend %q", m.Backend)
	}

	log.Printf("metrics: backend=%s job=%s", m.Backend, job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}, nil
}
