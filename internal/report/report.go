// Package report computes the exploratory summaries of a cleaned case table
// and writes them as CSV and JSON files plus one XLSX workbook.
package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"visaprep/pkg/records"
)

// Output file names.
const (
	SummaryFile  = "processing_time_summary.json"
	QualityFile  = "data_quality.json"
	WorkbookFile = "eda_report.xlsx"
)

// Report holds every computed output.
type Report struct {
	Summary Summary
	Sheets  []Sheet
}

// Build computes the report from t. The duration column must exist.
func Build(t records.Table, o Options) (Report, error) {
	if !t.HasColumn(o.Duration) {
		return Report{}, fmt.Errorf("report: duration column %q not in table", o.Duration)
	}
	dur := floats(t, o.Duration)
	num := NumericColumns(t)

	r := Report{Summary: Describe(present(dur))}
	r.Sheets = []Sheet{
		distribution("processing_time_distribution.csv", present(dur), distributionBins),
		numericalDistribution(t, num),
		statusAverage(t, o, dur),
		statusBoxplot(t, o, dur),
		correlation(t, num),
		monthlyTrend(t, o, dur),
		pairplotSample(t, num, o.Seed),
		missingValues(t),
	}
	for _, d := range o.Dimensions {
		r.Sheets = append(r.Sheets, dimensionAnalysis(t, o, d, dur))
	}
	return r, nil
}

// WriteOptions configures Write.
type WriteOptions struct {
	Dir      string
	Workbook bool
	// Quality is written as data_quality.json when non-nil.
	Quality any
}

// Write stores r under opts.Dir, creating it when needed. Files are
// independent and written concurrently; the first failure cancels the
// rest. It returns the written paths.
func Write(ctx context.Context, r Report, opts WriteOptions) ([]string, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: create %s: %w", opts.Dir, err)
	}
	start := time.Now()

	paths := []string{filepath.Join(opts.Dir, SummaryFile)}
	jobs := []func() error{func() error { return writeJSON(paths[0], r.Summary) }}

	if opts.Quality != nil {
		p := filepath.Join(opts.Dir, QualityFile)
		paths = append(paths, p)
		jobs = append(jobs, func() error { return writeJSON(p, opts.Quality) })
	}
	for _, s := range r.Sheets {
		p := filepath.Join(opts.Dir, s.File)
		paths = append(paths, p)
		jobs = append(jobs, func() error { return writeCSV(p, s) })
	}
	if opts.Workbook {
		p := filepath.Join(opts.Dir, WorkbookFile)
		paths = append(paths, p)
		jobs = append(jobs, func() error { return writeWorkbook(p, r) })
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return job()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Printf("report: dir=%s files=%d elapsed=%s", opts.Dir, len(paths), time.Since(start).Truncate(time.Millisecond))
	return paths, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}

func writeCSV(path string, s Sheet) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("report: close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(s.Header); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	rec := make([]string, 0, len(s.Header))
	for _, row := range s.Rows {
		rec = rec[:0]
		for _, v := range row {
			rec = append(rec, cellText(v))
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("report: write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}

// cellText renders a value for CSV output. Floats use the shortest exact
// representation; NaN becomes an empty cell.
func cellText(v any) string {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return records.Format(v)
	}
}
