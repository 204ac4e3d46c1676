package builtin

import (
	"context"

	"visaprep/internal/schema"
	"visaprep/internal/transformer"
	"visaprep/pkg/records"
)

// Require removes any row missing a value for one of Fields.
type Require struct {
	Fields []string
	Events *transformer.Events
}

func (Require) Name() string { return "require" }

// Apply filters rows in place. A listed field that is not a column at all is
// a schema error.
func (r Require) Apply(_ context.Context, t records.Table) (records.Table, error) {
	if err := schema.RequireColumns(t, r.Name(), r.Fields...); err != nil {
		return t, err
	}
	out := t.Rows[:0]
	for _, rec := range t.Rows {
		ok := true
		for _, f := range r.Fields {
			v := rec[f]
			if records.IsMissing(v) || v == "" {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, rec)
			continue
		}
		r.Events.DropRow(r.Name(), "missing_required", rec)
	}
	t.Rows = out
	return t, nil
}
