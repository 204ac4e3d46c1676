// Package prompush pushes pipeline metrics to a Prometheus Pushgateway.
//
// Batch runs exit before any scraper would see them, so the collectors are
// kept in a private registry and pushed once on Flush, grouped under the
// job name.
package prompush

import (
	"fmt"

	"visaprep/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	stageCounter  *prometheus.CounterVec // step, status
	stageDuration *prometheus.SummaryVec // step, status
	rowCounter    *prometheus.CounterVec // kind
	columnCounter *prometheus.CounterVec // step
	fillCounter   *prometheus.CounterVec // step
	batchCounter  prometheus.Counter
}

// NewBackend constructs a Pushgateway backend. jobName becomes the
// Pushgateway grouping key and defaults to "visaprep".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "visaprep"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stageCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StageTotal,
			Help: "Pipeline stage executions by stage and status.",
		}, []string{"step", "status"}),
		stageDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StageDuration,
			Help:       "Pipeline stage duration in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"step", "status"}),
		rowCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Case rows by kind (loaded, kept, written, dropped_<reason>).",
		}, []string{"kind"}),
		columnCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.ColumnsDropped,
			Help: "Columns removed, by stage.",
		}, []string{"step"}),
		fillCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.CellsFilled,
			Help: "Missing cells imputed, by stage.",
		}, []string{"step"}),
		batchCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Batches flushed to the database sink.",
		}),
	}

	for name, c := range map[string]prometheus.Collector{
		"stage counter":  b.stageCounter,
		"stage summary":  b.stageDuration,
		"row counter":    b.rowCounter,
		"column counter": b.columnCounter,
		"fill counter":   b.fillCounter,
		"batch counter":  b.batchCounter,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}
	return b, nil
}

// IncCounter routes a counter update to its collector. Unknown names and
// nil collectors are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StageTotal:
		if b.stageCounter != nil {
			b.stageCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
		}
	case metrics.RowsTotal:
		if b.rowCounter != nil {
			b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
		}
	case metrics.ColumnsDropped:
		if b.columnCounter != nil {
			b.columnCounter.WithLabelValues(labels["step"]).Add(delta)
		}
	case metrics.CellsFilled:
		if b.fillCounter != nil {
			b.fillCounter.WithLabelValues(labels["step"]).Add(delta)
		}
	case metrics.BatchesTotal:
		if b.batchCounter != nil {
			b.batchCounter.Add(delta)
		}
	}
}

// ObserveHistogram records a stage duration.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StageDuration || b.stageDuration == nil {
		return
	}
	b.stageDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
