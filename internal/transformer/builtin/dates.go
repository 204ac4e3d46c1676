package builtin

import (
	"context"
	"log"
	"math"
	"strconv"
	"time"

	"visaprep/internal/schema"
	"visaprep/internal/transformer"
	"visaprep/pkg/records"
)

// Default column names of the case files.
const (
	DefaultReceivedColumn = "case_received_date"
	DefaultDecisionColumn = "decision_date"
	DefaultDurationColumn = "processing_time_days"
	DefaultMonthColumn    = "month"
)

// Drop reasons reported through transformer.Events.
const (
	ReasonUnparseableDate  = "unparseable_date"
	ReasonNegativeDuration = "negative_duration"
	ReasonOverCap          = "duration_over_cap"
	ReasonMissingDuration  = "missing_duration"
)

// DeriveDuration parses the received and decision date columns, drops rows
// where either date is unusable, and adds Output = whole days elapsed.
// Rows with a negative duration are dropped too.
type DeriveDuration struct {
	Received string
	Decision string
	Output   string
	// MonthFirst reads ambiguous numeric dates as MM/DD instead of DD/MM.
	MonthFirst bool
	// Layouts are extra time layouts tried before the built-in ones.
	Layouts []string
	Events  *transformer.Events
}

func (DeriveDuration) Name() string { return "derive_duration" }

func (d DeriveDuration) columns() (rec, dec, out string) {
	rec, dec, out = d.Received, d.Decision, d.Output
	if rec == "" {
		rec = DefaultReceivedColumn
	}
	if dec == "" {
		dec = DefaultDecisionColumn
	}
	if out == "" {
		out = DefaultDurationColumn
	}
	return rec, dec, out
}

func (d DeriveDuration) Apply(ctx context.Context, t records.Table) (records.Table, error) {
	recCol, decCol, outCol := d.columns()
	if err := schema.RequireColumns(t, d.Name(), recCol, decCol); err != nil {
		return t, err
	}

	if err := ctx.Err(); err != nil {
		return t, err
	}
	p := schema.NewDateParser(!d.MonthFirst, d.Layouts...)
	bad := ParseDateColumns(t, p, recCol, decCol)
	for _, col := range []string{recCol, decCol} {
		log.Printf("derive_duration: column=%s unparseable=%d", col, bad[col])
	}

	var dropped, negative int
	out := t.Rows[:0]
	for _, r := range t.Rows {
		rt, ok1 := r[recCol].(time.Time)
		dt, ok2 := r[decCol].(time.Time)
		if !ok1 || !ok2 {
			dropped++
			d.Events.DropRow(d.Name(), ReasonUnparseableDate, r)
			continue
		}
		days := WholeDays(rt, dt)
		if days < 0 {
			negative++
			d.Events.DropRow(d.Name(), ReasonNegativeDuration, r)
			continue
		}
		r[outCol] = days
		out = append(out, r)
	}
	t.Rows = out
	t.AddColumn(outCol, records.KindInteger)
	if dropped > 0 || negative > 0 {
		log.Printf("derive_duration: dropped rows missing_date=%d negative=%d kept=%d", dropped, negative, len(out))
	}
	return t, nil
}

// ParseDateColumn converts col to time.Time values in place, choosing the
// column's dominant layout first. Values that do not parse become missing.
// It returns how many present values failed to parse.
func ParseDateColumn(t records.Table, col string, p *schema.DateParser) int {
	return ParseDateColumns(t, p, col)[col]
}

// ParseDateColumns converts every named column to time.Time values in
// place. One layout is detected over the samples of all columns together so
// that the dates of a row share a day/month convention. Integral numbers
// (compact dates such as 20200501 read as numeric) are parsed from their
// digits. It returns the number of present values per column that failed
// to parse.
func ParseDateColumns(t records.Table, p *schema.DateParser, cols ...string) map[string]int {
	var samples []string
	for _, col := range cols {
		for _, r := range t.Rows {
			if s, ok := dateText(r[col]); ok {
				samples = append(samples, s)
			}
		}
	}
	layout := p.DetectLayout(samples)

	bad := make(map[string]int, len(cols))
	for _, col := range cols {
		for _, r := range t.Rows {
			v := r[col]
			if tm, ok := v.(time.Time); ok {
				if tm.IsZero() {
					r[col] = nil
				}
				continue
			}
			if records.IsMissing(v) {
				r[col] = nil
				continue
			}
			s, ok := dateText(v)
			if !ok {
				r[col] = nil
				bad[col]++
				continue
			}
			if tm, ok := p.Parse(s, layout); ok {
				r[col] = tm
			} else {
				r[col] = nil
				bad[col]++
			}
		}
		t.SetKind(col, records.KindDate)
	}
	return bad
}

// dateText returns the text form of a date cell. Integral numbers render
// without exponent or fraction.
func dateText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int:
		return strconv.Itoa(x), true
	case float64:
		if x == math.Trunc(x) && x > 0 && x < 1e9 {
			return strconv.FormatInt(int64(x), 10), true
		}
	}
	return "", false
}

// WholeDays returns floor((to - from) / 24h).
func WholeDays(from, to time.Time) int64 {
	secs := to.Unix() - from.Unix()
	days := secs / 86400
	if secs%86400 != 0 && secs < 0 {
		days--
	}
	return days
}

// CapDuration drops rows whose duration exceeds Max days, and rows without
// a duration at all.
type CapDuration struct {
	Column string
	Max    int64
	Events *transformer.Events
}

func (CapDuration) Name() string { return "cap_duration" }

func (c CapDuration) Apply(_ context.Context, t records.Table) (records.Table, error) {
	col := c.Column
	if col == "" {
		col = DefaultDurationColumn
	}
	if err := schema.RequireColumns(t, c.Name(), col); err != nil {
		return t, err
	}
	out := t.Rows[:0]
	for _, r := range t.Rows {
		v, ok := asInt(r[col])
		switch {
		case !ok:
			c.Events.DropRow(c.Name(), ReasonMissingDuration, r)
		case v > c.Max:
			c.Events.DropRow(c.Name(), ReasonOverCap, r)
		default:
			out = append(out, r)
		}
	}
	t.Rows = out
	return t, nil
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	}
	if f, ok := schema.ParseNumber(v); ok {
		return int64(f), true
	}
	return 0, false
}

// DeriveMonth adds Output = month (1-12) of the Source date column.
// String dates are parsed day-first; a row without a usable date gets a
// missing month.
type DeriveMonth struct {
	Source string
	Output string
}

func (DeriveMonth) Name() string { return "derive_month" }

func (m DeriveMonth) Apply(_ context.Context, t records.Table) (records.Table, error) {
	src, out := m.Source, m.Output
	if src == "" {
		src = DefaultReceivedColumn
	}
	if out == "" {
		out = DefaultMonthColumn
	}
	if err := schema.RequireColumns(t, m.Name(), src); err != nil {
		return t, err
	}
	if t.KindOf(src) != records.KindDate {
		ParseDateColumn(t, src, schema.NewDateParser(true))
	}
	for _, r := range t.Rows {
		if tm, ok := r[src].(time.Time); ok && !tm.IsZero() {
			r[out] = int64(tm.Month())
		} else {
			r[out] = nil
		}
	}
	t.AddColumn(out, records.KindInteger)
	return t, nil
}
