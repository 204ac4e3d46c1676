// Package ddl models SQL table definitions and renders CREATE TABLE
// statements for them. The model is backend-agnostic; a Dialect supplies the
// identifier quoting and statement shape of each backend.
//
// FromKinds builds a definition from the column kinds of a cleaned table, so
// a sink can create its destination table without a hand-written schema.
package ddl

import (
	"fmt"
	"strings"

	"visaprep/pkg/records"
)

// BuildCreateTableSQL renders a plain CREATE TABLE with unquoted names.
func BuildCreateTableSQL(t TableDef) (string, error) {
	return Render(t, Generic)
}

// Render builds the CREATE statement of t in dialect d.
//
// A column renders as
//
//	<name> <type> [NOT NULL] [DEFAULT <expr>]
//
// Primary-key columns are always NOT NULL and are collected into a trailing
// PRIMARY KEY clause. Names, types and defaults are trimmed; Default is raw
// SQL.
func Render(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", d.prefix())
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", d.prefix())
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", d.prefix(), fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", d.prefix(), name)
		}

		var sb strings.Builder
		sb.WriteString(d.ident(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.ident(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	table := d.QuoteFQN(fqn)
	body := strings.Join(cols, ",\n  ")
	if d.Wrap != nil {
		return d.Wrap(table, body), nil
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", table, body), nil
}

// FromKinds builds a nullable column per name, typed by mapType applied to
// kindOf(name).
func FromKinds(fqn string, columns []string, kindOf func(string) records.Kind, mapType func(records.Kind) string) (TableDef, error) {
	if len(columns) == 0 {
		return TableDef{}, fmt.Errorf("ddl: no columns for %s", fqn)
	}
	td := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, len(columns))}
	for _, c := range columns {
		td.Columns = append(td.Columns, ColumnDef{
			Name:     c,
			SQLType:  mapType(kindOf(c)),
			Nullable: true,
		})
	}
	return td, nil
}
