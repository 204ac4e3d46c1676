package builtin

import (
	"context"
	"strings"

	"github.com/go-gota/gota/series"

	"visaprep/internal/schema"
	"visaprep/internal/transformer"
	"visaprep/pkg/records"
)

// DefaultFillText replaces missing text cells.
const DefaultFillText = "unknown"

// Impute fills every missing cell so that no column keeps a gap.
//
// Numeric columns are converted to float64 and their gaps filled with the
// median of the present values. Every other column gets FillText. A column
// is numeric when Types declares it so, or, when undeclared, when every
// present value parses as a number. A declared-numeric cell that does not
// parse becomes a gap. A numeric column with no present value at all is
// treated as text, since it has no median.
type Impute struct {
	FillText string
	// Types maps column -> "number" or "text". Aliases: numeric, float, int,
	// integer; string, category.
	Types  map[string]string
	Events *transformer.Events
}

func (Impute) Name() string { return "impute" }

func (im Impute) Apply(_ context.Context, t records.Table) (records.Table, error) {
	fill := im.FillText
	if fill == "" {
		fill = DefaultFillText
	}

	for _, col := range t.Columns {
		numeric, declared := im.declaredNumeric(col)
		if !declared {
			switch t.KindOf(col) {
			case records.KindNumber, records.KindInteger:
				numeric = true
			case records.KindDate:
				numeric = false
			default:
				k := schema.InferKind(t.Column(col))
				numeric = k == records.KindNumber || k == records.KindInteger
			}
		}

		if numeric {
			if med, ok := coerceNumeric(t.Rows, col); ok {
				n := fillMissing(t.Rows, col, med)
				t.SetKind(col, records.KindNumber)
				im.Events.Fill(im.Name(), col, n, med)
				continue
			}
		}
		n := fillMissing(t.Rows, col, fill)
		if t.KindOf(col) != records.KindDate {
			t.SetKind(col, records.KindText)
		}
		im.Events.Fill(im.Name(), col, n, fill)
	}
	return t, nil
}

func (im Impute) declaredNumeric(col string) (numeric, declared bool) {
	typ, ok := im.Types[col]
	if !ok {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "number", "numeric", "float", "int", "integer":
		return true, true
	case "text", "string", "category":
		return false, true
	default:
		return false, false
	}
}

// coerceNumeric rewrites col as float64 or nil and returns the median of the
// present values. ok is false when no value is present; the column is left
// untouched in that case.
func coerceNumeric(rows []records.Record, col string) (median float64, ok bool) {
	vals := make([]float64, 0, len(rows))
	for _, r := range rows {
		if f, ok := schema.ParseNumber(r[col]); ok {
			vals = append(vals, f)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	for _, r := range rows {
		if f, ok := schema.ParseNumber(r[col]); ok {
			r[col] = f
		} else {
			r[col] = nil
		}
	}
	return Median(vals), true
}

func fillMissing(rows []records.Record, col string, v any) int {
	n := 0
	for _, r := range rows {
		if records.IsMissing(r[col]) {
			r[col] = v
			n++
		}
	}
	return n
}

// Median returns the median of vals, averaging the two middle values for an
// even count. It is NaN for an empty slice.
func Median(vals []float64) float64 {
	return series.Floats(vals).Median()
}
