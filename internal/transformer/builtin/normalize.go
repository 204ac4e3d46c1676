package builtin

import (
	"context"
	"strings"

	"visaprep/pkg/records"
)

const (
	nbsp = "\u00a0"
	// mojibakeNBSP is a UTF-8 no-break space read through a latin1 decoder.
	mojibakeNBSP = "\u00c2\u00a0"
)

// Normalize trims text cells and repairs no-break spaces, including the
// mojibake left by UTF-8 text decoded as latin1. A cell that trims to
// nothing becomes missing.
type Normalize struct{}

func (Normalize) Name() string { return "trim_values" }

func (Normalize) Apply(_ context.Context, t records.Table) (records.Table, error) {
	for _, r := range t.Rows {
		for k, v := range r {
			s, ok := v.(string)
			if !ok {
				continue
			}
			s = strings.ReplaceAll(s, mojibakeNBSP, " ")
			s = strings.ReplaceAll(s, nbsp, " ")
			s = strings.TrimSpace(s)
			if s == "" {
				r[k] = nil
				continue
			}
			r[k] = s
		}
	}
	return t, nil
}
