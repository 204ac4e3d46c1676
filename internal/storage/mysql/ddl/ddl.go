// Package ddl renders MySQL DDL for the cleaned case table.
package ddl

import (
	"context"
	"strings"

	gddl "visaprep/internal/ddl"
	"visaprep/pkg/records"
)

// MapKind maps a column kind to a MySQL type. TEXT keeps long employer names
// without a length guess.
func MapKind(k records.Kind) string {
	switch k {
	case records.KindInteger:
		return "BIGINT"
	case records.KindNumber:
		return "DOUBLE"
	case records.KindDate:
		return "DATE"
	default:
		return "TEXT"
	}
}

// Dialect quotes with backticks.
var Dialect = gddl.Dialect{
	Name:       "mysql",
	QuoteIdent: QuoteIdent,
	Wrap: func(table, body string) string {
		return "CREATE TABLE IF NOT EXISTS " + table + " (\n  " + body + "\n) DEFAULT CHARSET=utf8mb4;"
	},
}

// QuoteIdent backtick-quotes one identifier, doubling embedded backticks.
func QuoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

// BuildCreateTableSQL returns a CREATE TABLE IF NOT EXISTS statement for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.Render(t, Dialect)
}

// Execer runs a single statement.
type Execer interface {
	Exec(ctx context.Context, sql string) error
}

// EnsureTable creates the table of def unless it already exists.
func EnsureTable(ctx context.Context, db Execer, def gddl.TableDef) error {
	sql, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	return db.Exec(ctx, sql)
}
