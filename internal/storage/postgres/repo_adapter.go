package postgres

import (
	"context"
	"fmt"

	gddl "visaprep/internal/ddl"
	"visaprep/internal/storage"
	pgddl "visaprep/internal/storage/postgres/ddl"
	"visaprep/pkg/records"
)

// newRepository is a test hook; tests replace it to avoid a real database.
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
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
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

	storage.RegisterDDL("postgres", bootstrap)
}

func bootstrap(ctx context.Context, repo storage.Repository, table string, cols []string, kindOf func(string) records.Kind) error {
	idents := identifiers(cols)
	source := make(map[string]string, len(cols))
	for i, id := range idents {
		source[id] = cols[i]
	}
	kind := func(id string) records.Kind { return kindOf(source[id]) }
	td, err := gddl.FromKinds(table, idents, kind, pgddl.MapKind)
	if err != nil {
		return fmt.Errorf("table definition: %w", err)
	}
	if err := pgddl.EnsureTable(ctx, repo, td); err != nil {
		return fmt.Errorf("apply DDL: %w", err)
	}
	return nil
}
