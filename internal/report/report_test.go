package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"visaprep/pkg/records"
)

func day(s string) time.Time {
	tm, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return tm
}

// edaTable mimics the output of the EDA chain.
func edaTable() records.Table {
	t := records.NewTable([]string{"case_received_date", "visa_status", "work_city", "work_state", "wage", "processing_time_days", "month"})
	add := func(recv, status, city, state string, wage any, days int64) {
		r := records.Record{
			"case_received_date":   day(recv),
			"visa_status":          status,
			"work_city":            city,
			"work_state":           state,
			"wage":                 wage,
			"processing_time_days": days,
			"month":                int64(day(recv).Month()),
		}
		t.Rows = append(t.Rows, r)
	}
	add("2020-05-01", "Certified", "Austin", "TX", "100", 14)
	add("2020-05-03", "Certified", "Boston", "MA", "200", 10)
	add("2020-06-01", "Denied", "Austin", "TX", "300", 30)
	add("2020-06-10", "Withdrawn", "Denver", "CO", nil, 2)
	add("2020-07-01", "Denied", "Boston", "MA", "400", 50)
	t.SetKind("case_received_date", records.KindDate)
	t.SetKind("processing_time_days", records.KindInteger)
	t.SetKind("month", records.KindInteger)
	return t
}

func edaOptions() Options {
	return Options{
		Duration:   "processing_time_days",
		Received:   "case_received_date",
		Month:      "month",
		Status:     "visa_status",
		Dimensions: []string{"work_city", "work_state"},
		Seed:       42,
	}
}

func sheet(t *testing.T, r Report, file string) Sheet {
	t.Helper()
	for _, s := range r.Sheets {
		if s.File == file {
			return s
		}
	}
	t.Fatalf("no sheet %s", file)
	return Sheet{}
}

func TestNumericColumns(t *testing.T) {
	t.Parallel()

	got := NumericColumns(edaTable())
	want := []string{"wage", "processing_time_days", "month"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NumericColumns = %v, want %v", got, want)
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	r, err := Build(edaTable(), edaOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if r.Summary.Count != 5 || r.Summary.Max != 50 || !approx(r.Summary.Q50, 14) {
		t.Fatalf("summary = %+v", r.Summary)
	}

	avg := sheet(t, r, "visa_status_avg_processing.csv")
	wantAvg := [][]any{{"Denied", 40.0, 2}, {"Certified", 12.0, 2}, {"Withdrawn", 2.0, 1}}
	if !reflect.DeepEqual(avg.Rows, wantAvg) {
		t.Fatalf("status avg = %v", avg.Rows)
	}

	trend := sheet(t, r, "monthly_trend.csv")
	wantTrend := [][]any{{int64(5), 12.0, 2}, {int64(6), 16.0, 2}, {int64(7), 50.0, 1}}
	if !reflect.DeepEqual(trend.Rows, wantTrend) {
		t.Fatalf("monthly trend = %v", trend.Rows)
	}

	missing := sheet(t, r, "missing_values.csv")
	if missing.Rows[0][0] != "wage" || missing.Rows[0][1] != 1 {
		t.Fatalf("missing first row = %v", missing.Rows[0])
	}

	corr := sheet(t, r, "correlation_heatmap.csv")
	if len(corr.Rows) != 3 || corr.Rows[1][0] != "processing_time_days" || !approx(corr.Rows[1][2].(float64), 1) {
		t.Fatalf("correlation = %v", corr.Rows)
	}

	city := sheet(t, r, "work_city_analysis.csv")
	if city.Header[1] != "work_city" || len(city.Rows) != 5 {
		t.Fatalf("city analysis = %v %v", city.Header, city.Rows)
	}
	if first := city.Rows[0]; first[0] != "Certified" || first[1] != "Austin" || first[2] != 14.0 {
		t.Fatalf("first city row = %v", first)
	}

	if pp := sheet(t, r, "pairplot_sample.csv"); len(pp.Rows) != 5 || pp.Rows[3][0] != nil {
		t.Fatalf("pairplot = %v", pp.Rows)
	}
	if got := len(sheet(t, r, "processing_time_distribution.csv").Rows); got != 50 {
		t.Fatalf("distribution bins = %d", got)
	}
	if got := len(sheet(t, r, "numerical_distribution.csv").Rows); got != 90 {
		t.Fatalf("numerical bins = %d", got)
	}
}

func TestDimensionTopFive(t *testing.T) {
	t.Parallel()

	tbl := records.NewTable([]string{"visa_status", "work_state", "processing_time_days"})
	states := []string{"TX", "CA", "NY", "WA", "MA", "CO", "FL"}
	for i, st := range states {
		// TX..MA get two statuses each, CO and FL only one.
		tbl.Rows = append(tbl.Rows, records.Record{"visa_status": "Certified", "work_state": st, "processing_time_days": int64(i)})
		if i < 5 {
			tbl.Rows = append(tbl.Rows, records.Record{"visa_status": "Denied", "work_state": st, "processing_time_days": int64(10 + i)})
		}
	}
	s := dimensionAnalysis(tbl, edaOptions(), "work_state", floats(tbl, "processing_time_days"))
	seen := map[string]bool{}
	for _, row := range s.Rows {
		seen[row[1].(string)] = true
	}
	if len(seen) != 5 || seen["CO"] || seen["FL"] {
		t.Fatalf("kept states = %v", seen)
	}
	if s.Rows[0][0] != "Certified" || s.Rows[0][1] != "CA" {
		t.Fatalf("rows not sorted by status, state: %v", s.Rows[0])
	}
}

func TestPairplotSampleIsSeeded(t *testing.T) {
	t.Parallel()

	tbl := records.NewTable([]string{"x"})
	for i := 0; i < 5000; i++ {
		tbl.Rows = append(tbl.Rows, records.Record{"x": int64(i)})
	}
	a := pairplotSample(tbl, []string{"x"}, 7)
	b := pairplotSample(tbl, []string{"x"}, 7)
	if len(a.Rows) != pairplotRows || !reflect.DeepEqual(a.Rows, b.Rows) {
		t.Fatalf("sample not reproducible: %d rows", len(a.Rows))
	}
	for i := 1; i < len(a.Rows); i++ {
		if a.Rows[i][0].(float64) <= a.Rows[i-1][0].(float64) {
			t.Fatalf("sample not in table order at %d", i)
		}
	}
}

func TestBuildRequiresDuration(t *testing.T) {
	t.Parallel()
	if _, err := Build(records.NewTable([]string{"a"}), edaOptions()); err == nil {
		t.Fatal("expected error")
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	r, err := Build(edaTable(), edaOptions())
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(t.TempDir(), "outputs")
	quality := map[string]any{"run_id": "r1", "rows_final": 5}
	paths, err := Write(context.Background(), r, WriteOptions{Dir: dir, Workbook: true, Quality: quality})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(paths) != len(r.Sheets)+3 {
		t.Fatalf("paths = %d", len(paths))
	}
	for _, p := range paths {
		if fi, err := os.Stat(p); err != nil || fi.Size() == 0 {
			t.Fatalf("%s not written: %v", p, err)
		}
	}

	f, err := os.Open(filepath.Join(dir, "visa_status_avg_processing.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"visa_status", "avg_processing_days", "cases"}, {"Denied", "40", "2"}, {"Certified", "12", "2"}, {"Withdrawn", "2", "1"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("csv = %v", rows)
	}

	b, err := os.ReadFile(filepath.Join(dir, QualityFile))
	if err != nil || !strings.Contains(string(b), `"run_id": "r1"`) {
		t.Fatalf("quality file = %s, %v", b, err)
	}
	var sum map[string]any
	b, _ = os.ReadFile(filepath.Join(dir, SummaryFile))
	if err := json.Unmarshal(b, &sum); err != nil || sum["count"] != 5.0 {
		t.Fatalf("summary = %v, %v", sum, err)
	}

	wb, err := excelize.OpenFile(filepath.Join(dir, WorkbookFile))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer wb.Close()
	sheets := wb.GetSheetList()
	if len(sheets) != len(r.Sheets)+1 || sheets[0] != "summary" {
		t.Fatalf("sheets = %v", sheets)
	}
	got, err := wb.GetRows("visa_status_avg_processing")
	if err != nil || len(got) != 4 || got[1][0] != "Denied" {
		t.Fatalf("workbook rows = %v, %v", got, err)
	}
}

func TestWriteCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, _ := Build(edaTable(), edaOptions())
	if _, err := Write(ctx, r, WriteOptions{Dir: t.TempDir()}); err == nil {
		t.Fatal("expected context error")
	}
}
