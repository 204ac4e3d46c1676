// Package ddl renders Postgres DDL for the cleaned case table.
package ddl

import "visaprep/pkg/records"

// MapKind maps a column kind to a Postgres type.
//
//	integer -> BIGINT
//	number  -> DOUBLE PRECISION
//	date    -> DATE
//	text    -> TEXT
func MapKind(k records.Kind) string {
	switch k {
	case records.KindInteger:
		return "BIGINT"
	case records.KindNumber:
		return "DOUBLE PRECISION"
	case records.KindDate:
		return "DATE"
	default:
		return "TEXT"
	}
}
