package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is an in-memory Backend for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []counterCall
	histograms []histCall
	flushes    int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

// install swaps in a fake backend for the duration of the test. Tests using
// it must not run in parallel since the backend is process-global.
func install(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	SetBackend(fb)
	t.Cleanup(Reset)
	return fb
}

func TestRecordStep(t *testing.T) {
	fb := install(t)

	RecordStep("visa_prep", "dedupe", nil, 2*time.Second)
	RecordStep("visa_prep", "derive_duration", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("calls = %d counters, %d histograms; want 2, 2", len(fb.counters), len(fb.histograms))
	}

	tests := []struct {
		i          int
		step       string
		status     string
		wantSecond float64
	}{
		{0, "dedupe", "success", 2.0},
		{1, "derive_duration", "failure", 1.5},
	}
	for _, tt := range tests {
		c := fb.counters[tt.i]
		if c.name != StageTotal || c.delta != 1 {
			t.Fatalf("counter[%d] = %#v; want %s delta 1", tt.i, c, StageTotal)
		}
		if c.labels["job"] != "visa_prep" || c.labels["step"] != tt.step || c.labels["status"] != tt.status {
			t.Fatalf("counter[%d] labels = %v", tt.i, c.labels)
		}
		h := fb.histograms[tt.i]
		if h.name != StageDuration {
			t.Fatalf("hist[%d].name = %q; want %q", tt.i, h.name, StageDuration)
		}
		if h.value < tt.wantSecond-0.001 || h.value > tt.wantSecond+0.001 {
			t.Fatalf("hist[%d].value = %v; want ~%v", tt.i, h.value, tt.wantSecond)
		}
	}
}

func TestRecordCounters(t *testing.T) {
	fb := install(t)

	RecordRow("j", "loaded", 3)
	RecordRow("j", "loaded", 0) // ignored
	RecordRow("j", "dropped_duplicate", 2)
	RecordColumnDropped("j", "drop_sparse")
	RecordFilled("j", "impute", 7)
	RecordFilled("j", "impute", 0) // ignored
	RecordBatches("j", 2)
	RecordBatches("j", -1) // ignored

	want := []struct {
		name  string
		delta float64
		key   string
		value string
	}{
		{RowsTotal, 3, "kind", "loaded"},
		{RowsTotal, 2, "kind", "dropped_duplicate"},
		{ColumnsDropped, 1, "step", "drop_sparse"},
		{CellsFilled, 7, "step", "impute"},
		{BatchesTotal, 2, "job", "j"},
	}
	if len(fb.counters) != len(want) {
		t.Fatalf("counter calls = %d; want %d: %#v", len(fb.counters), len(want), fb.counters)
	}
	for i, w := range want {
		c := fb.counters[i]
		if c.name != w.name || c.delta != w.delta || c.labels[w.key] != w.value {
			t.Errorf("counter[%d] = %#v; want %s %v %s=%s", i, c, w.name, w.delta, w.key, w.value)
		}
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	fb := install(t)

	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if fb.flushes != 1 {
		t.Fatalf("flushes = %d; want 1", fb.flushes)
	}

	SetBackend(nil)
	if current() != Backend(fb) {
		t.Fatal("SetBackend(nil) replaced the backend")
	}

	Reset()
	if _, ok := current().(nopBackend); !ok {
		t.Fatalf("Reset left %T installed", current())
	}
	if err := Flush(); err != nil {
		t.Fatalf("nop Flush: %v", err)
	}
}
