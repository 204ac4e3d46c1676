package mssql

import (
	"context"
	"fmt"

	gddl "visaprep/internal/ddl"
	"visaprep/internal/storage"
	msddl "visaprep/internal/storage/mssql/ddl"
	"visaprep/pkg/records"
)

// newRepository is a test hook.
var newRepository = NewRepository

var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			DSN:     cfg.DSN,
			Table:   cfg.Table,
			Columns: cfg.Columns,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("mssql", func(ctx context.Context, repo storage.Repository, table string, cols []string, kindOf func(string) records.Kind) error {
		td, err := gddl.FromKinds(table, cols, kindOf, msddl.MapKind)
		if err != nil {
			return fmt.Errorf("table definition: %w", err)
		}
		return msddl.EnsureTable(ctx, repo, td)
	})
}

// wrappedRepo adapts *Repository to storage.Repository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}
