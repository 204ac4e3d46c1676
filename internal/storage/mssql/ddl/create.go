package ddl

import (
	"fmt"
	"strings"

	gddl "visaprep/internal/ddl"
)

// Dialect quotes with [brackets]. T-SQL has no CREATE TABLE IF NOT EXISTS, so
// the statement is guarded by OBJECT_ID:
//
//	IF OBJECT_ID(N'[dbo].[visa_cases]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [dbo].[visa_cases] (
//	    ...
//	  );
//	END;
var Dialect = gddl.Dialect{
	Name:       "mssql",
	QuoteIdent: quoteIdent,
	Wrap: func(table, body string) string {
		body = strings.ReplaceAll(body, "\n  ", "\n    ")
		return fmt.Sprintf(
			"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
			strings.ReplaceAll(table, "'", "''"), table, body,
		)
	},
}

// BuildCreateTableSQL returns the guarded CREATE TABLE script for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.Render(t, Dialect)
}

// quoteIdent brackets one identifier, escaping ']'.
func quoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
