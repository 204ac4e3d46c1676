// Package transformer runs an ordered chain of table transforms. Each stage
// receives the table produced by the previous one and owns it from then on.
package transformer

import (
	"context"
	"fmt"
	"time"

	"visaprep/pkg/records"
)

// Transformer rewrites a whole table. Implementations may mutate the input
// and return it.
type Transformer interface {
	Name() string
	Apply(ctx context.Context, t records.Table) (records.Table, error)
}

// Step describes one finished stage of a chain run.
type Step struct {
	Name    string
	RowsIn  int
	RowsOut int
	ColsIn  int
	ColsOut int
	Elapsed time.Duration
	Err     error
}

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs every stage in order. It stops at the first error or when ctx
// is cancelled between stages.
func (c Chain) Apply(ctx context.Context, t records.Table) (records.Table, error) {
	return c.Run(ctx, t, nil)
}

// Run is Apply with a per-stage observer. observe may be nil.
func (c Chain) Run(ctx context.Context, t records.Table, observe func(Step)) (records.Table, error) {
	out := t
	for _, tr := range c {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		rIn, cIn := out.Shape()
		start := time.Now()
		next, err := tr.Apply(ctx, out)
		st := Step{Name: tr.Name(), RowsIn: rIn, ColsIn: cIn, Elapsed: time.Since(start), Err: err}
		if err == nil {
			st.RowsOut, st.ColsOut = next.Shape()
		}
		if observe != nil {
			observe(st)
		}
		if err != nil {
			return out, fmt.Errorf("%s: %w", tr.Name(), err)
		}
		out = next
	}
	return out, nil
}

// Names lists the stage names in order.
func (c Chain) Names() []string {
	out := make([]string, len(c))
	for i, tr := range c {
		out[i] = tr.Name()
	}
	return out
}

// Events receives what stages remove or fill so that callers can account
// for it. A nil *Events ignores everything.
type Events struct {
	RowDropped    func(stage, reason string, rec records.Record)
	ColumnDropped func(stage, column string, present, total int)
	CellsFilled   func(stage, column string, n int, fill any)
}

// DropRow reports a removed row.
func (e *Events) DropRow(stage, reason string, rec records.Record) {
	if e != nil && e.RowDropped != nil {
		e.RowDropped(stage, reason, rec)
	}
}

// DropColumn reports a removed column with its non-missing count.
func (e *Events) DropColumn(stage, column string, present, total int) {
	if e != nil && e.ColumnDropped != nil {
		e.ColumnDropped(stage, column, present, total)
	}
}

// Fill reports n missing cells of column replaced by fill.
func (e *Events) Fill(stage, column string, n int, fill any) {
	if e != nil && e.CellsFilled != nil && n > 0 {
		e.CellsFilled(stage, column, n, fill)
	}
}

// Func adapts a function to Transformer; handy for one-off stages in tools
// and tests.
type Func struct {
	Label string
	Fn    func(ctx context.Context, t records.Table) (records.Table, error)
}

func (f Func) Name() string { return f.Label }

func (f Func) Apply(ctx context.Context, t records.Table) (records.Table, error) {
	return f.Fn(ctx, t)
}
