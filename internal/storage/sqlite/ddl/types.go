// Package ddl renders SQLite DDL for the cleaned case table.
package ddl

import "visaprep/pkg/records"

// MapKind maps a column kind to a SQLite type affinity. Dates are stored as
// ISO-8601 text.
func MapKind(k records.Kind) string {
	switch k {
	case records.KindInteger:
		return "INTEGER"
	case records.KindNumber:
		return "REAL"
	default:
		return "TEXT"
	}
}
