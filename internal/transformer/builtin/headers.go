// Package builtin contains the table transforms a pipeline can be assembled
// from.
package builtin

import (
	"context"

	"visaprep/internal/schema"
	"visaprep/internal/transformer"
	"visaprep/pkg/records"
)

var (
	_ transformer.Transformer = NormalizeHeaders{}
	_ transformer.Transformer = Normalize{}
	_ transformer.Transformer = DropDuplicates{}
	_ transformer.Transformer = DropSparse{}
	_ transformer.Transformer = Impute{}
	_ transformer.Transformer = Require{}
	_ transformer.Transformer = YesNoFlag{}
	_ transformer.Transformer = DeriveDuration{}
	_ transformer.Transformer = CapDuration{}
	_ transformer.Transformer = DeriveMonth{}
)

// NormalizeHeaders renames every column to its canonical identifier
// (schema.NormalizeNames). Rows, row order and values are untouched.
type NormalizeHeaders struct{}

func (NormalizeHeaders) Name() string { return "normalize_headers" }

func (NormalizeHeaders) Apply(_ context.Context, t records.Table) (records.Table, error) {
	names := schema.NormalizeNames(t.Columns)

	rename := make(map[string]string, len(names))
	for i, old := range t.Columns {
		if old != names[i] {
			rename[old] = names[i]
		}
	}
	if len(rename) == 0 {
		return t, nil
	}

	for _, r := range t.Rows {
		moved := make(map[string]any, len(rename))
		for old, nu := range rename {
			if v, ok := r[old]; ok {
				moved[nu] = v
				delete(r, old)
			}
		}
		for k, v := range moved {
			r[k] = v
		}
	}
	kinds := make(map[string]records.Kind, len(t.Kinds))
	for old, k := range t.Kinds {
		if nu, ok := rename[old]; ok {
			kinds[nu] = k
			continue
		}
		kinds[old] = k
	}
	t.Kinds = kinds
	t.Columns = names
	return t, nil
}
