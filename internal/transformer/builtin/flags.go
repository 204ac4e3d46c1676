package builtin

import (
	"context"
	"sort"
	"strings"

	"visaprep/internal/schema"
	"visaprep/pkg/records"
)

// YesNoFlag turns a Y/N text column into 1/0 integers.
//
// Cells are trimmed and upper-cased; YES and NO are shortened to Y and N.
// Missing cells and the literal "NAN" take the column's most frequent
// token (ties go to the alphabetically first). After that Y becomes 1, N
// becomes 0 and any other token becomes missing.
type YesNoFlag struct {
	Column string
}

func (YesNoFlag) Name() string { return "yes_no_flag" }

func (f YesNoFlag) Apply(_ context.Context, t records.Table) (records.Table, error) {
	if err := schema.RequireColumns(t, f.Name(), f.Column); err != nil {
		return t, err
	}

	tokens := make([]string, len(t.Rows))
	counts := map[string]int{}
	for i, r := range t.Rows {
		v := r[f.Column]
		if records.IsMissing(v) {
			continue
		}
		tok := strings.ToUpper(strings.TrimSpace(records.Format(v)))
		switch tok {
		case "YES":
			tok = "Y"
		case "NO":
			tok = "N"
		case "NAN", "":
			continue
		}
		tokens[i] = tok
		counts[tok]++
	}

	mode := modeOf(counts)
	for i, r := range t.Rows {
		tok := tokens[i]
		if tok == "" {
			tok = mode
		}
		switch tok {
		case "Y":
			r[f.Column] = int64(1)
		case "N":
			r[f.Column] = int64(0)
		default:
			r[f.Column] = nil
		}
	}
	t.SetKind(f.Column, records.KindInteger)
	return t, nil
}

func modeOf(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best, n := "", 0
	for _, k := range keys {
		if counts[k] > n {
			best, n = k, counts[k]
		}
	}
	return best
}
