// Package records defines the in-memory tabular model shared by the loader,
// the transform chain, the report writer and the storage sinks.
//
// A Record maps a column name to a value. Values are one of:
//
//	nil        missing
//	string     text (also every freshly loaded cell)
//	float64    numeric
//	int64      integer (derived counts such as processing_time_days)
//	time.Time  date
//
// Table keeps the column order from the source header so that previews,
// reports and sinks are deterministic.
package records

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Record is a single row keyed by column name.
type Record map[string]any

// Kind is the semantic type of a column.
type Kind string

const (
	KindText    Kind = "text"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindDate    Kind = "date"
)

// Table is an ordered collection of rows with an ordered schema.
//
// Kinds is optional; columns without an entry are treated as KindText.
type Table struct {
	Columns []string
	Rows    []Record
	Kinds   map[string]Kind
}

// NewTable returns an empty table with the given columns.
func NewTable(columns []string) Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return Table{Columns: cols, Kinds: map[string]Kind{}}
}

// Shape returns (rows, columns).
func (t Table) Shape() (int, int) { return len(t.Rows), len(t.Columns) }

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// HasColumn reports whether name is part of the schema.
func (t Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnIndex returns the position of name in Columns, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// KindOf returns the recorded kind of a column, KindText when unknown.
func (t Table) KindOf(name string) Kind {
	if k, ok := t.Kinds[name]; ok && k != "" {
		return k
	}
	return KindText
}

// SetKind records the kind of a column, allocating Kinds when needed.
func (t *Table) SetKind(name string, k Kind) {
	if t.Kinds == nil {
		t.Kinds = map[string]Kind{}
	}
	t.Kinds[name] = k
}

// AddColumn appends name to the schema if it is not present yet.
func (t *Table) AddColumn(name string, k Kind) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
	t.SetKind(name, k)
}

// DropColumns removes the named columns from the schema and from every row.
func (t *Table) DropColumns(names ...string) {
	if len(names) == 0 {
		return
	}
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	kept := t.Columns[:0]
	for _, c := range t.Columns {
		if _, ok := drop[c]; !ok {
			kept = append(kept, c)
		}
	}
	t.Columns = kept
	for _, r := range t.Rows {
		for n := range drop {
			delete(r, n)
		}
	}
	for n := range drop {
		delete(t.Kinds, n)
	}
}

// Head returns a table sharing the first n rows.
func (t Table) Head(n int) Table {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return Table{Columns: t.Columns, Rows: t.Rows[:n], Kinds: t.Kinds}
}

// Column returns the values of one column in row order.
func (t Table) Column(name string) []any {
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[name]
	}
	return out
}

// MissingCounts returns the number of missing cells per column.
func (t Table) MissingCounts() map[string]int {
	out := make(map[string]int, len(t.Columns))
	for _, c := range t.Columns {
		out[c] = 0
	}
	for _, r := range t.Rows {
		for _, c := range t.Columns {
			if IsMissing(r[c]) {
				out[c]++
			}
		}
	}
	return out
}

// IsMissing reports whether v counts as a missing value. NaN floats are
// missing as well as nil.
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case time.Time:
		return x.IsZero()
	default:
		return false
	}
}

// Format renders a value for previews and text sinks. Missing values render
// as the empty string; dates as YYYY-MM-DD.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		if x.IsZero() {
			return ""
		}
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return fmt.Sprintf("%.1f", x)
		}
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}

// String renders the table shape, mostly for logs and test failures.
func (t Table) String() string {
	r, c := t.Shape()
	return fmt.Sprintf("Table(%d x %d: %s)", r, c, strings.Join(t.Columns, ","))
}
