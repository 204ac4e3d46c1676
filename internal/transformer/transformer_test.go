package transformer

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"visaprep/pkg/records"
)

/*
addColumn appends a constant column; used to verify mutation flows through
Chain.
*/
func addColumn(name string, v any) Transformer {
	return Func{Label: "add_" + name, Fn: func(_ context.Context, t records.Table) (records.Table, error) {
		t.AddColumn(name, records.KindText)
		for _, r := range t.Rows {
			r[name] = v
		}
		return t, nil
	}}
}

/*
keepFirst keeps the first n rows, shrinking the table.
*/
func keepFirst(n int) Transformer {
	return Func{Label: "head", Fn: func(_ context.Context, t records.Table) (records.Table, error) {
		t.Rows = t.Rows[:n]
		return t, nil
	}}
}

func sample() records.Table {
	t := records.NewTable([]string{"a"})
	t.Rows = []records.Record{{"a": "1"}, {"a": "2"}, {"a": "3"}}
	return t
}

func TestChainApply_OrderAndMutation(t *testing.T) {
	t.Parallel()

	c := Chain{addColumn("b", "x"), keepFirst(2), addColumn("c", "y")}
	got, err := c.Apply(context.Background(), sample())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := []records.Record{
		{"a": "1", "b": "x", "c": "y"},
		{"a": "2", "b": "x", "c": "y"},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Fatalf("rows=%v want %v", got.Rows, want)
	}
	if !reflect.DeepEqual(got.Columns, []string{"a", "b", "c"}) {
		t.Fatalf("columns=%v", got.Columns)
	}
}

func TestChainRun_ObservesSteps(t *testing.T) {
	t.Parallel()

	var steps []Step
	c := Chain{addColumn("b", 1), keepFirst(1)}
	if _, err := c.Run(context.Background(), sample(), func(s Step) { steps = append(steps, s) }); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("steps=%d", len(steps))
	}
	if s := steps[0]; s.Name != "add_b" || s.RowsIn != 3 || s.RowsOut != 3 || s.ColsIn != 1 || s.ColsOut != 2 {
		t.Fatalf("step0=%+v", s)
	}
	if s := steps[1]; s.RowsIn != 3 || s.RowsOut != 1 {
		t.Fatalf("step1=%+v", s)
	}
}

func TestChainRun_StopsOnError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ran := false
	c := Chain{
		Func{Label: "fail", Fn: func(_ context.Context, t records.Table) (records.Table, error) { return t, boom }},
		Func{Label: "after", Fn: func(_ context.Context, t records.Table) (records.Table, error) { ran = true; return t, nil }},
	}
	var last Step
	_, err := c.Run(context.Background(), sample(), func(s Step) { last = s })
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	if ran {
		t.Fatal("stage after failure ran")
	}
	if last.Name != "fail" || last.Err == nil {
		t.Fatalf("last step=%+v", last)
	}
}

func TestChainApply_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Chain{keepFirst(1)}).Apply(ctx, sample()); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
}

func TestChainApply_Empty(t *testing.T) {
	t.Parallel()

	in := sample()
	got, err := Chain(nil).Apply(context.Background(), in)
	if err != nil || got.Len() != 3 {
		t.Fatalf("got %v err %v", got, err)
	}
}

func TestEvents_NilSafe(t *testing.T) {
	t.Parallel()

	var e *Events
	e.DropRow("s", "r", nil)
	e.DropColumn("s", "c", 0, 1)
	e.Fill("s", "c", 1, "x")

	var rows, cols, fills int
	e = &Events{
		RowDropped:    func(string, string, records.Record) { rows++ },
		ColumnDropped: func(string, string, int, int) { cols++ },
		CellsFilled:   func(string, string, int, any) { fills++ },
	}
	e.DropRow("s", "r", nil)
	e.DropColumn("s", "c", 0, 1)
	e.Fill("s", "c", 0, "x") // zero fills are not reported
	e.Fill("s", "c", 2, "x")
	if rows != 1 || cols != 1 || fills != 1 {
		t.Fatalf("rows=%d cols=%d fills=%d", rows, cols, fills)
	}
}

func TestChainNames(t *testing.T) {
	t.Parallel()

	if got := (Chain{addColumn("b", 1), keepFirst(1)}).Names(); !reflect.DeepEqual(got, []string{"add_b", "head"}) {
		t.Fatalf("names=%v", got)
	}
}
