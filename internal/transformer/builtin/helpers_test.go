package builtin

import (
	"context"
	"testing"

	"visaprep/internal/transformer"
	"visaprep/pkg/records"
)

// tbl builds a table from column names and positional rows.
func tbl(cols []string, rows ...[]any) records.Table {
	t := records.NewTable(cols)
	for _, row := range rows {
		r := make(records.Record, len(cols))
		for i, c := range cols {
			if i < len(row) {
				r[c] = row[i]
			} else {
				r[c] = nil
			}
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

func apply(t *testing.T, tr transformer.Transformer, in records.Table) records.Table {
	t.Helper()
	out, err := tr.Apply(context.Background(), in)
	if err != nil {
		t.Fatalf("%s: %v", tr.Name(), err)
	}
	return out
}

// recorder collects Events callbacks.
type recorder struct {
	rows  map[string]int
	cols  []string
	fills map[string]int
}

func newRecorder() (*recorder, *transformer.Events) {
	rec := &recorder{rows: map[string]int{}, fills: map[string]int{}}
	return rec, &transformer.Events{
		RowDropped:    func(_, reason string, _ records.Record) { rec.rows[reason]++ },
		ColumnDropped: func(_, col string, _, _ int) { rec.cols = append(rec.cols, col) },
		CellsFilled:   func(_, col string, n int, _ any) { rec.fills[col] += n },
	}
}
