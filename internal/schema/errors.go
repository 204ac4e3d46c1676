// Package schema holds the column-level rules shared by the transform chain:
// required-column checks, header name normalization, value kind inference
// and date layout detection.
package schema

import (
	"fmt"
	"strings"

	"visaprep/pkg/records"
)

// Error reports columns a stage needs but the table does not have.
type Error struct {
	Stage   string
	Missing []string
	Have    []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("schema: %s requires column(s) %s; table has [%s]",
		e.Stage, strings.Join(e.Missing, ", "), strings.Join(e.Have, ", "))
}

// RequireColumns returns a *Error naming every column in want that is absent
// from t. Empty names in want are ignored.
func RequireColumns(t records.Table, stage string, want ...string) error {
	var missing []string
	for _, c := range want {
		if c == "" {
			continue
		}
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	have := append([]string(nil), t.Columns...)
	return &Error{Stage: stage, Missing: missing, Have: have}
}
