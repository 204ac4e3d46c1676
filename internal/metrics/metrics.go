// Package metrics records operational counters and timings of a cleaning
// run behind a pluggable Backend. Until SetBackend installs a real one, every
// call goes to a no-op backend, so stages can always record.
//
// Concrete backends live in subpackages (prompush, datadog) and map the
// metric names below onto their own collectors.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by the Record helpers.
const (
	StageTotal      = "visa_stage_total"
	StageDuration   = "visa_stage_duration_seconds"
	RowsTotal       = "visa_rows_total"
	ColumnsDropped  = "visa_columns_dropped_total"
	CellsFilled     = "visa_cells_filled_total"
	BatchesTotal    = "visa_batches_total"
	statusSucceeded = "success"
	statusFailed    = "failure"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration-style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

// Reset restores the no-op backend.
func Reset() {
	mu.Lock()
	backend = nopBackend{}
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one execution of a pipeline stage and observes its
// duration, labelled with success or failure.
func RecordStep(job, stage string, err error, d time.Duration) {
	status := statusSucceeded
	if err != nil {
		status = statusFailed
	}
	lbls := Labels{"job": job, "step": stage, "status": status}

	b := current()
	b.IncCounter(StageTotal, 1, lbls)
	b.ObserveHistogram(StageDuration, d.Seconds(), lbls)
}

// RecordRow adds delta to the row counter of kind. Kinds used by the
// pipeline are "loaded", "kept", "written" and "dropped_<reason>".
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordColumnDropped counts one column removed by stage.
func RecordColumnDropped(job, stage string) {
	current().IncCounter(ColumnsDropped, 1, Labels{"job": job, "step": stage})
}

// RecordFilled adds n imputed cells for stage.
func RecordFilled(job, stage string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(CellsFilled, float64(n), Labels{"job": job, "step": stage})
}

// RecordBatches increments the sink batch counter.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{"job": job})
}
