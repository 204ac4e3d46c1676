package storage

import (
	"context"
	"fmt"
	"log"

	"visaprep/pkg/records"
)

// WriteOptions configures Write.
type WriteOptions struct {
	Kind       string
	DSN        string
	Table      string
	Columns    []string // empty means every column of the table
	AutoCreate bool
	BatchSize  int
}

// WriteResult reports what Write flushed.
type WriteResult struct {
	Rows    int64
	Batches int64
}

// Write opens the backend of opts.Kind, optionally creates the destination
// table and bulk-loads t in batches.
func Write(ctx context.Context, opts WriteOptions, t records.Table) (WriteResult, error) {
	cols := opts.Columns
	if len(cols) == 0 {
		cols = t.Columns
	}
	for _, c := range cols {
		if !t.HasColumn(c) {
			return WriteResult{}, fmt.Errorf("sink: column %q not in cleaned table", c)
		}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5000
	}

	repo, err := New(ctx, Config{Kind: opts.Kind, DSN: opts.DSN, Table: opts.Table, Columns: cols})
	if err != nil {
		return WriteResult{}, fmt.Errorf("sink: open %s: %w", opts.Kind, err)
	}
	defer repo.Close()

	if opts.AutoCreate {
		if err := EnsureTable(ctx, opts.Kind, repo, opts.Table, t, cols); err != nil {
			return WriteResult{}, fmt.Errorf("sink: ensure table %s: %w", opts.Table, err)
		}
		log.Printf("sink: table ensured kind=%s table=%s", opts.Kind, opts.Table)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	rows, batches, err := LoadBatches(ctx, cols, Rows(ctx, t, cols), opts.BatchSize, repo.CopyFrom)
	if err != nil {
		return WriteResult{Rows: rows, Batches: batches}, fmt.Errorf("sink: load %s: %w", opts.Table, err)
	}
	return WriteResult{Rows: rows, Batches: batches}, nil
}
