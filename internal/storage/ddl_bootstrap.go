package storage

import (
	"context"
	"fmt"
	"sync"

	"visaprep/pkg/records"
)

// DDLBootstrapper creates the destination table for the given columns, typed
// from kindOf, when it does not exist yet.
type DDLBootstrapper func(ctx context.Context, repo Repository, table string, columns []string, kindOf func(string) records.Kind) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the bootstrapper of kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable creates table on repo from the column kinds of t, using the
// bootstrapper registered for kind.
func EnsureTable(ctx context.Context, kind string, repo Repository, table string, t records.Table, columns []string) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	if len(columns) == 0 {
		columns = t.Columns
	}
	return fn(ctx, repo, table, columns, t.KindOf)
}
