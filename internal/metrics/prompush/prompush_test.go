package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"visaprep/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write: %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric has no counter value")
	}
	return m.GetCounter().GetValue()
}

func summaryCountSum(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("summary observer is not a prometheus.Metric")
	}
	m := &dto.Metric{}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Summary.Write: %v", err)
	}
	s := m.GetSummary()
	return s.GetSampleCount(), s.GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		job     string
		url     string
		wantErr bool
		wantJob string
	}{
		{name: "missing gateway URL", job: "visa_prep", wantErr: true},
		{name: "default job", url: "http://pushgateway:9091", wantJob: "visaprep"},
		{name: "explicit job", job: "visa_eda", url: "http://pushgateway:9091", wantJob: "visa_eda"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, err := NewBackend(tt.job, tt.url)
			if tt.wantErr {
				if err == nil || b != nil {
					t.Fatalf("NewBackend(%q, %q) = %v, %v; want nil, error", tt.job, tt.url, b, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend: %v", err)
			}
			if b.jobName != tt.wantJob || b.gatewayURL != tt.url {
				t.Fatalf("backend job/url = %q/%q; want %q/%q", b.jobName, b.gatewayURL, tt.wantJob, tt.url)
			}
		})
	}
}

func TestIncCounter(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("visa_prep", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter(metrics.StageTotal, 3, metrics.Labels{"step": "dedupe", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 5, metrics.Labels{"kind": "dropped_duplicate"})
	b.IncCounter(metrics.ColumnsDropped, 1, metrics.Labels{"step": "drop_sparse"})
	b.IncCounter(metrics.CellsFilled, 4, metrics.Labels{"step": "impute"})
	b.IncCounter(metrics.BatchesTotal, 2, nil)
	b.IncCounter(metrics.BatchesTotal, 0.5, nil)
	b.IncCounter("unknown_metric", 10, metrics.Labels{"foo": "bar"})

	tests := []struct {
		name string
		c    prometheus.Counter
		want float64
	}{
		{"stage", b.stageCounter.WithLabelValues("dedupe", "success"), 3},
		{"rows", b.rowCounter.WithLabelValues("dropped_duplicate"), 5},
		{"columns", b.columnCounter.WithLabelValues("drop_sparse"), 1},
		{"fills", b.fillCounter.WithLabelValues("impute"), 4},
		{"batches", b.batchCounter, 2.5},
		{"untouched", b.stageCounter.WithLabelValues("x", "y"), 0},
	}
	for _, tt := range tests {
		if got := counterValue(t, tt.c); got != tt.want {
			t.Errorf("%s counter = %v; want %v", tt.name, got, tt.want)
		}
	}
}

func TestNilCollectors(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.StageTotal, 1, metrics.Labels{"step": "s", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"kind": "loaded"})
	b.IncCounter(metrics.ColumnsDropped, 1, nil)
	b.IncCounter(metrics.CellsFilled, 1, nil)
	b.IncCounter(metrics.BatchesTotal, 1, nil)
	b.ObserveHistogram(metrics.StageDuration, 1, nil)
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("visa_prep", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	lbls := metrics.Labels{"step": "impute", "status": "success"}
	b.ObserveHistogram(metrics.StageDuration, 1.5, lbls)
	b.ObserveHistogram("other_metric", 2.0, lbls)

	n, sum := summaryCountSum(t, b.stageDuration, "impute", "success")
	if n != 1 || sum != 1.5 {
		t.Fatalf("summary count/sum = %d/%v; want 1/1.5", n, sum)
	}
}

func TestFlush(t *testing.T) {
	t.Parallel()

	type pushed struct {
		method string
		path   string
		body   string
	}
	reqs := make(chan pushed, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqs <- pushed{r.Method, r.URL.Path, string(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	b, err := NewBackend("visa_prep", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter(metrics.RowsTotal, 10, metrics.Labels{"kind": "loaded"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	select {
	case got := <-reqs:
		if got.method != http.MethodPut {
			t.Errorf("method = %s; want PUT", got.method)
		}
		if !strings.Contains(got.path, "/job/visa_prep") {
			t.Errorf("path = %q; want job grouping", got.path)
		}
		if got.body == "" {
			t.Error("push body is empty")
		}
	default:
		t.Fatal("Flush sent no request")
	}
}

func BenchmarkIncCounterRows(b *testing.B) {
	backend, err := NewBackend("visa_prep", "http://example.com")
	if err != nil {
		b.Fatalf("NewBackend: %v", err)
	}
	labels := metrics.Labels{"kind": "loaded"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backend.IncCounter(metrics.RowsTotal, 1, labels)
	}
}
