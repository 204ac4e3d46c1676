package builtin

import (
	"context"

	"visaprep/internal/transformer"
	"visaprep/pkg/records"
)

// DefaultSparseThreshold is the share of rows a column must fill to be kept.
const DefaultSparseThreshold = 0.4

// DropSparse removes columns whose non-missing count is below
// Threshold × rows. A column exactly at the threshold is kept.
// A zero Threshold selects DefaultSparseThreshold.
type DropSparse struct {
	Threshold float64
	Events    *transformer.Events
}

func (DropSparse) Name() string { return "drop_sparse" }

func (d DropSparse) Apply(_ context.Context, t records.Table) (records.Table, error) {
	thr := d.Threshold
	if thr == 0 {
		thr = DefaultSparseThreshold
	}
	n := len(t.Rows)
	min := thr * float64(n)

	missing := t.MissingCounts()
	var drop []string
	for _, c := range t.Columns {
		present := n - missing[c]
		if float64(present) < min {
			drop = append(drop, c)
			d.Events.DropColumn(d.Name(), c, present, n)
		}
	}
	t.DropColumns(drop...)
	return t, nil
}
