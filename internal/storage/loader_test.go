package storage

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"testing"
	"time"

	"visaprep/pkg/records"
)

// caseTable returns n cleaned cases with ids C0..C(n-1).
func caseTable(n int) records.Table {
	tbl := records.NewTable([]string{"case_id", "work_city", "processing_time_days"})
	for i := 0; i < n; i++ {
		tbl.Rows = append(tbl.Rows, records.Record{
			"case_id":              "C" + strconv.Itoa(i),
			"work_city":            "Austin",
			"processing_time_days": int64(i),
		})
	}
	return tbl
}

func TestLoadBatches(t *testing.T) {
	t.Parallel()

	copyErr := errors.New("copy failed")
	tests := []struct {
		name        string
		rows        int
		batchSize   int
		failOn      int // 1-based copy call that fails; 0 never
		wantTotal   int64
		wantBatches int64
		wantSizes   []int
		wantErr     error
	}{
		{name: "remainder_batch", rows: 7, batchSize: 3, wantTotal: 7, wantBatches: 3, wantSizes: []int{3, 3, 1}},
		{name: "exact_multiple", rows: 4, batchSize: 2, wantTotal: 4, wantBatches: 2, wantSizes: []int{2, 2}},
		{name: "empty_table", rows: 0, batchSize: 5, wantSizes: nil},
		{name: "second_batch_fails", rows: 5, batchSize: 2, failOn: 2, wantTotal: 4, wantBatches: 1, wantSizes: []int{2, 2}, wantErr: copyErr},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			cols := []string{"case_id", "processing_time_days"}

			var sizes []int
			copyFn := func(_ context.Context, got []string, rows [][]any) (int64, error) {
				if !reflect.DeepEqual(got, cols) {
					t.Errorf("columns = %v; want %v", got, cols)
				}
				sizes = append(sizes, len(rows))
				if len(sizes) == tc.failOn {
					return int64(len(rows)), copyErr
				}
				return int64(len(rows)), nil
			}

			total, batches, err := LoadBatches(ctx, cols, Rows(ctx, caseTable(tc.rows), cols), tc.batchSize, copyFn)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v; want %v", err, tc.wantErr)
			}
			if total != tc.wantTotal || batches != tc.wantBatches {
				t.Fatalf("total=%d batches=%d; want %d and %d", total, batches, tc.wantTotal, tc.wantBatches)
			}
			if !reflect.DeepEqual(sizes, tc.wantSizes) {
				t.Fatalf("batch sizes = %v; want %v", sizes, tc.wantSizes)
			}
		})
	}
}

func TestLoadBatchesRejectsBadArgs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	noop := func(context.Context, []string, [][]any) (int64, error) { return 0, nil }

	if _, _, err := LoadBatches(ctx, nil, nil, 0, noop); err == nil {
		t.Error("batchSize 0: want error")
	}
	if _, _, err := LoadBatches(ctx, nil, nil, 1, nil); err == nil {
		t.Error("nil copyFn: want error")
	}
}

func TestLoadBatchesStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan []any)
	errCh := make(chan error, 1)
	go func() {
		_, _, err := LoadBatches(ctx, []string{"case_id"}, in, 2, func(context.Context, []string, [][]any) (int64, error) {
			return 0, nil
		})
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v; want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("LoadBatches did not return after cancel")
	}
}

func TestRowsProjectsAndBlanksMissing(t *testing.T) {
	t.Parallel()

	tbl := records.NewTable([]string{"work_city", "processing_time_days"})
	tbl.Rows = []records.Record{
		{"work_city": "Austin", "processing_time_days": int64(14)},
		{"work_city": nil, "processing_time_days": int64(3)},
	}

	var got [][]any
	for r := range Rows(context.Background(), tbl, []string{"processing_time_days", "work_city"}) {
		got = append(got, r)
	}
	want := [][]any{{int64(14), "Austin"}, {int64(3), nil}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Rows = %v, want %v", got, want)
	}
}
