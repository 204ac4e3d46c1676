package ddl

import "strings"

// ColumnDef describes a single column of a table definition.
//
// Fields:
//   - Name: column name, unquoted; quoting happens at render time
//   - SQLType: backend SQL type (e.g., TEXT, BIGINT, TIMESTAMPTZ)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., 'unknown', CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name in dotted form ("schema.table") and an
// ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect adapts rendering to one SQL backend.
type Dialect struct {
	// Name prefixes error messages, e.g. "postgres".
	Name string

	// QuoteIdent quotes one identifier segment. Nil emits names verbatim.
	QuoteIdent func(string) string

	// Wrap turns the quoted table name and the rendered column list into the
	// final statement. Nil renders a plain CREATE TABLE.
	Wrap func(table, body string) string
}

// Generic renders unquoted identifiers and a plain CREATE TABLE.
var Generic = Dialect{}

// DoubleQuote quotes an identifier ANSI-style: weird"name becomes "weird""name".
func DoubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// IfNotExists wraps body in CREATE TABLE IF NOT EXISTS.
func IfNotExists(table, body string) string {
	return "CREATE TABLE IF NOT EXISTS " + table + " (\n  " + body + "\n);"
}

func (d Dialect) prefix() string {
	if d.Name == "" {
		return "ddl"
	}
	return d.Name + " ddl"
}

func (d Dialect) ident(id string) string {
	if d.QuoteIdent == nil {
		return id
	}
	return d.QuoteIdent(id)
}

// QuoteFQN quotes each non-empty segment of a dotted name.
func (d Dialect) QuoteFQN(fqn string) string {
	if d.QuoteIdent == nil {
		return fqn
	}
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.QuoteIdent(p))
	}
	return strings.Join(out, ".")
}
