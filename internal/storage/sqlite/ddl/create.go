package ddl

import gddl "visaprep/internal/ddl"

// Dialect matches Postgres quoting; SQLite accepts CREATE TABLE IF NOT EXISTS.
var Dialect = gddl.Dialect{
	Name:       "sqlite",
	QuoteIdent: gddl.DoubleQuote,
	Wrap:       gddl.IfNotExists,
}

// BuildCreateTableSQL returns a CREATE TABLE IF NOT EXISTS statement for t.
// Dotted names such as "main.visa_cases" quote each segment.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.Render(t, Dialect)
}
