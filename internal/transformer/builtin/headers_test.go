package builtin

import (
	"reflect"
	"testing"

	"visaprep/pkg/records"
)

func TestNormalizeHeaders(t *testing.T) {
	t.Parallel()

	in := tbl([]string{" Case Status", "Work City ", "DECISION DATE"},
		[]any{"Certified", "Zürich", "15/05/2020"},
		[]any{"Denied", nil, "16/05/2020"},
	)
	in.SetKind("Work City ", records.KindText)

	out := apply(t, NormalizeHeaders{}, in)
	wantCols := []string{"case_status", "work_city", "decision_date"}
	if !reflect.DeepEqual(out.Columns, wantCols) {
		t.Fatalf("columns=%v", out.Columns)
	}
	wantRows := []records.Record{
		{"case_status": "Certified", "work_city": "Zürich", "decision_date": "15/05/2020"},
		{"case_status": "Denied", "work_city": nil, "decision_date": "16/05/2020"},
	}
	if !reflect.DeepEqual(out.Rows, wantRows) {
		t.Fatalf("rows=%v", out.Rows)
	}
	if _, ok := out.Kinds["work_city"]; !ok {
		t.Fatalf("kind not carried over: %v", out.Kinds)
	}
}

func TestNormalizeHeaders_Idempotent(t *testing.T) {
	t.Parallel()

	cases := [][]string{
		{"A B", "a b", " c "},
		{"Émployer Name", "employer_name", ""},
		{"x", "y"},
	}
	for _, cols := range cases {
		once := apply(t, NormalizeHeaders{}, tbl(cols, make([]any, len(cols))))
		snapshot := append([]string(nil), once.Columns...)
		twice := apply(t, NormalizeHeaders{}, once)
		if !reflect.DeepEqual(twice.Columns, snapshot) {
			t.Fatalf("%v: once=%v twice=%v", cols, snapshot, twice.Columns)
		}
		if len(twice.Rows[0]) != len(cols) {
			t.Fatalf("%v: row lost keys: %v", cols, twice.Rows[0])
		}
	}
}

func TestNormalize_TrimAndRepair(t *testing.T) {
	t.Parallel()

	in := tbl([]string{"a", "b", "c", "d"},
		[]any{"  foo ", "New\u00c2\u00a0York", 1.5, "  \t"},
	)
	out := apply(t, Normalize{}, in)
	want := records.Record{"a": "foo", "b": "New York", "c": 1.5, "d": nil}
	if !reflect.DeepEqual(out.Rows[0], want) {
		t.Fatalf("got %#v want %#v", out.Rows[0], want)
	}
}
