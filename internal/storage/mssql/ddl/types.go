// Package ddl renders SQL Server DDL for the cleaned case table.
package ddl

import "visaprep/pkg/records"

// MapKind maps a column kind to a SQL Server type. Text falls back to
// NVARCHAR(MAX) so accented city names survive.
func MapKind(k records.Kind) string {
	switch k {
	case records.KindInteger:
		return "BIGINT"
	case records.KindNumber:
		return "FLOAT"
	case records.KindDate:
		return "DATE"
	default:
		return "NVARCHAR(MAX)"
	}
}
