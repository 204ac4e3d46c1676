package sqlite

import (
	"context"
	"fmt"

	gddl "visaprep/internal/ddl"
	"visaprep/internal/storage"
	sqliteddl "visaprep/internal/storage/sqlite/ddl"
	"visaprep/pkg/records"
)

// newRepository is a test hook.
var newRepository = NewRepository

// wrappedRepo adds the Close required by storage.Repository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
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

	storage.RegisterDDL("sqlite", func(ctx context.Context, repo storage.Repository, table string, cols []string, kindOf func(string) records.Kind) error {
		td, err := gddl.FromKinds(table, cols, kindOf, sqliteddl.MapKind)
		if err != nil {
			return fmt.Errorf("table definition: %w", err)
		}
		return sqliteddl.EnsureTable(ctx, repo, td)
	})
}
