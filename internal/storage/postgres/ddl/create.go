package ddl

import gddl "visaprep/internal/ddl"

// Dialect quotes identifiers with double quotes and guards creation with
// IF NOT EXISTS.
var Dialect = gddl.Dialect{
	Name:       "postgres",
	QuoteIdent: gddl.DoubleQuote,
	Wrap:       gddl.IfNotExists,
}

// BuildCreateTableSQL returns a CREATE TABLE IF NOT EXISTS statement for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.Render(t, Dialect)
}
