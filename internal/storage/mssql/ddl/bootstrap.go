package ddl

import (
	"context"

	gddl "visaprep/internal/ddl"
)

// Execer runs a single statement.
type Execer interface {
	Exec(ctx context.Context, sql string) error
}

// EnsureTable runs the guarded CREATE script for def. It is idempotent.
func EnsureTable(ctx context.Context, db Execer, def gddl.TableDef) error {
	sql, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	return db.Exec(ctx, sql)
}
