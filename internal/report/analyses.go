package report

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"
	"time"

	"visaprep/internal/schema"
	"visaprep/pkg/records"
)

// Sheet is one tabular output: a CSV file and a workbook sheet.
type Sheet struct {
	File   string
	Header []string
	Rows   [][]any
}

// Name is the workbook sheet name: the file name without extension, cut to
// the 31 characters a sheet name may hold.
func (s Sheet) Name() string {
	n := s.File
	if i := len(n) - len(".csv"); i > 0 && n[i:] == ".csv" {
		n = n[:i]
	}
	if len(n) > 31 {
		n = n[:31]
	}
	return n
}

// Options names the columns the analyses read.
type Options struct {
	Duration   string
	Received   string
	Month      string
	Status     string
	Dimensions []string
	// Seed makes the pairplot sample reproducible.
	Seed uint64
}

const (
	distributionBins = 50
	numericBins      = 30
	topStatuses      = 10
	topDimension     = 5
	pairplotRows     = 2000
)

// NumericColumns lists the columns of t that hold numbers: columns of a
// numeric kind, and text columns whose present values all parse as numbers.
// Date columns never count.
func NumericColumns(t records.Table) []string {
	var out []string
	for _, c := range t.Columns {
		switch t.KindOf(c) {
		case records.KindNumber, records.KindInteger:
			out = append(out, c)
		case records.KindDate:
		default:
			k := schema.InferKind(t.Column(c))
			if k == records.KindNumber || k == records.KindInteger {
				out = append(out, c)
			}
		}
	}
	return out
}

// floats returns col as float64 with NaN for missing or non-numeric cells.
func floats(t records.Table, col string) []float64 {
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		if f, ok := schema.ParseNumber(r[col]); ok {
			out[i] = f
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func present(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func distribution(file string, vals []float64, bins int) Sheet {
	s := Sheet{File: file, Header: []string{"bin_start", "bin_end", "count"}}
	for _, b := range Histogram(vals, bins) {
		s.Rows = append(s.Rows, []any{b.Lo, b.Hi, b.Count})
	}
	return s
}

func numericalDistribution(t records.Table, cols []string) Sheet {
	s := Sheet{File: "numerical_distribution.csv", Header: []string{"column", "bin_start", "bin_end", "count"}}
	for _, c := range cols {
		for _, b := range Histogram(present(floats(t, c)), numericBins) {
			s.Rows = append(s.Rows, []any{c, b.Lo, b.Hi, b.Count})
		}
	}
	return s
}

// group collects durations per key in order of first appearance.
type group struct {
	keys []string
	vals map[string][]float64
}

func groupBy(t records.Table, key func(records.Record) (string, bool), dur []float64) group {
	g := group{vals: map[string][]float64{}}
	for i, r := range t.Rows {
		if math.IsNaN(dur[i]) {
			continue
		}
		k, ok := key(r)
		if !ok {
			continue
		}
		if _, seen := g.vals[k]; !seen {
			g.keys = append(g.keys, k)
		}
		g.vals[k] = append(g.vals[k], dur[i])
	}
	return g
}

func columnKey(col string) func(records.Record) (string, bool) {
	return func(r records.Record) (string, bool) {
		v := r[col]
		if records.IsMissing(v) {
			return "", false
		}
		return records.Format(v), true
	}
}

func statusAverage(t records.Table, o Options, dur []float64) Sheet {
	s := Sheet{File: "visa_status_avg_processing.csv", Header: []string{o.Status, "avg_processing_days", "cases"}}
	if !t.HasColumn(o.Status) {
		return s
	}
	g := groupBy(t, columnKey(o.Status), dur)
	type avg struct {
		key   string
		mean  float64
		cases int
	}
	avgs := make([]avg, 0, len(g.keys))
	for _, k := range g.keys {
		avgs = append(avgs, avg{k, mean(g.vals[k]), len(g.vals[k])})
	}
	sort.SliceStable(avgs, func(i, j int) bool { return avgs[i].mean > avgs[j].mean })
	for i, a := range avgs {
		if i == topStatuses {
			break
		}
		s.Rows = append(s.Rows, []any{a.key, a.mean, a.cases})
	}
	return s
}

func statusBoxplot(t records.Table, o Options, dur []float64) Sheet {
	s := Sheet{File: "visa_status_boxplot.csv", Header: []string{
		o.Status, "count", "min", "low_whisker", "q1", "median", "q3", "high_whisker", "max", "outliers",
	}}
	if !t.HasColumn(o.Status) {
		return s
	}
	g := groupBy(t, columnKey(o.Status), dur)
	for _, k := range g.keys {
		b := BoxOf(g.vals[k])
		s.Rows = append(s.Rows, []any{k, b.Count, b.Min, b.LowWhisker, b.Q1, b.Median, b.Q3, b.HighWhisker, b.Max, b.OutlierCount})
	}
	return s
}

func correlation(t records.Table, cols []string) Sheet {
	s := Sheet{File: "correlation_heatmap.csv", Header: append([]string{""}, cols...)}
	series := make([][]float64, len(cols))
	for i, c := range cols {
		series[i] = floats(t, c)
	}
	for i, c := range cols {
		row := []any{c}
		for j := range cols {
			row = append(row, Pearson(series[i], series[j]))
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// monthOf reads the month column when the chain derived one, and the
// received date otherwise.
func monthOf(o Options) func(records.Record) (string, bool) {
	return func(r records.Record) (string, bool) {
		if m, ok := schema.ParseNumber(r[o.Month]); ok && m >= 1 && m <= 12 {
			return records.Format(int64(m)), true
		}
		if tm, ok := r[o.Received].(time.Time); ok && !tm.IsZero() {
			return records.Format(int64(tm.Month())), true
		}
		return "", false
	}
}

func monthlyTrend(t records.Table, o Options, dur []float64) Sheet {
	s := Sheet{File: "monthly_trend.csv", Header: []string{"month", "avg_processing_days", "cases"}}
	g := groupBy(t, monthOf(o), dur)
	type month struct {
		n     int64
		mean  float64
		cases int
	}
	months := make([]month, 0, len(g.keys))
	for _, k := range g.keys {
		n, _ := schema.ParseNumber(k)
		months = append(months, month{int64(n), mean(g.vals[k]), len(g.vals[k])})
	}
	slices.SortFunc(months, func(a, b month) int { return cmp.Compare(a.n, b.n) })
	for _, m := range months {
		s.Rows = append(s.Rows, []any{m.n, m.mean, m.cases})
	}
	return s
}

// pairplotSample draws up to pairplotRows rows without replacement and
// keeps them in table order.
func pairplotSample(t records.Table, cols []string, seed uint64) Sheet {
	s := Sheet{File: "pairplot_sample.csv", Header: slices.Clone(cols)}
	idx := make([]int, t.Len())
	for i := range idx {
		idx[i] = i
	}
	if len(idx) > pairplotRows {
		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		idx = idx[:pairplotRows]
		slices.Sort(idx)
	}
	for _, i := range idx {
		r := t.Rows[i]
		row := make([]any, len(cols))
		for j, c := range cols {
			if f, ok := schema.ParseNumber(r[c]); ok {
				row[j] = f
			}
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

func missingValues(t records.Table) Sheet {
	s := Sheet{File: "missing_values.csv", Header: []string{"column", "missing"}}
	counts := t.MissingCounts()
	cols := slices.Clone(t.Columns)
	slices.SortStableFunc(cols, func(a, b string) int { return cmp.Compare(counts[b], counts[a]) })
	for _, c := range cols {
		s.Rows = append(s.Rows, []any{c, counts[c]})
	}
	return s
}

// dimensionAnalysis averages the duration per (status, dim) pair and keeps
// the dim values that appear in the most pairs, at most topDimension of
// them. Ties go to the alphabetically first value. Rows are sorted by
// status, then dim value.
func dimensionAnalysis(t records.Table, o Options, dim string, dur []float64) Sheet {
	s := Sheet{File: dim + "_analysis.csv", Header: []string{o.Status, dim, "avg_processing_days"}}
	if !t.HasColumn(o.Status) || !t.HasColumn(dim) {
		return s
	}
	statusKey, dimKey := columnKey(o.Status), columnKey(dim)
	type pair struct{ status, dim string }
	g := groupBy(t, func(r records.Record) (string, bool) {
		st, ok1 := statusKey(r)
		d, ok2 := dimKey(r)
		return st + "\x00" + d, ok1 && ok2
	}, dur)

	pairs := make([]pair, 0, len(g.keys))
	perDim := map[string]int{}
	for _, k := range g.keys {
		st, d, _ := strings.Cut(k, "\x00")
		p := pair{st, d}
		pairs = append(pairs, p)
		perDim[p.dim]++
	}

	dims := make([]string, 0, len(perDim))
	for d := range perDim {
		dims = append(dims, d)
	}
	slices.SortFunc(dims, func(a, b string) int {
		if c := cmp.Compare(perDim[b], perDim[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(dims) > topDimension {
		dims = dims[:topDimension]
	}
	keep := map[string]bool{}
	for _, d := range dims {
		keep[d] = true
	}

	slices.SortFunc(pairs, func(a, b pair) int {
		if c := cmp.Compare(a.status, b.status); c != 0 {
			return c
		}
		return cmp.Compare(a.dim, b.dim)
	})
	for _, p := range pairs {
		if keep[p.dim] {
			s.Rows = append(s.Rows, []any{p.status, p.dim, mean(g.vals[p.status+"\x00"+p.dim])})
		}
	}
	return s
}
