package pipeline

import (
	"fmt"
	"log"
	"slices"

	"visaprep/internal/config"
	"visaprep/internal/transformer"
	"visaprep/internal/transformer/builtin"
)

// BuildChain constructs the transform chain from configuration. columns are
// the table's normalized headers; stages marked "optional" are skipped when
// the column they work on is absent. ev receives drops and fills from every
// stage that reports them.
func BuildChain(p config.Pipeline, columns []string, ev *transformer.Events) (transformer.Chain, error) {
	c := transformer.Chain{}
	for i, t := range p.Transform {
		switch t.Kind {
		case config.KindNormalizeHeaders:
			c = append(c, builtin.NormalizeHeaders{})
		case config.KindTrimValues:
			c = append(c, builtin.Normalize{})
		case config.KindDedupe:
			c = append(c, builtin.DropDuplicates{Events: ev})
		case config.KindDropSparse:
			c = append(c, builtin.DropSparse{
				Threshold: t.Options.Float("threshold", builtin.DefaultSparseThreshold),
				Events:    ev,
			})
		case config.KindImpute:
			c = append(c, builtin.Impute{
				FillText: t.Options.String("fill_text", builtin.DefaultFillText),
				Types:    imputeTypes(p, t.Options.StringMap("types")),
				Events:   ev,
			})
		case config.KindRequire:
			c = append(c, builtin.Require{Fields: t.Options.StringSlice("fields"), Events: ev})
		case config.KindYesNoFlag:
			col := t.Options.String("column", "")
			if t.Options.Bool("optional", false) && !slices.Contains(columns, col) {
				log.Printf("chain: skipping transform[%d] %s: column %q not present", i, t.Kind, col)
				continue
			}
			c = append(c, builtin.YesNoFlag{Column: col})
		case config.KindDeriveDuration:
			c = append(c, builtin.DeriveDuration{
				Received:   p.Columns.Received,
				Decision:   p.Columns.Decision,
				Output:     p.Columns.Duration,
				MonthFirst: !t.Options.Bool("day_first", true),
				Layouts:    t.Options.StringSlice("layouts"),
				Events:     ev,
			})
		case config.KindCapDuration:
			c = append(c, builtin.CapDuration{
				Column: p.Columns.Duration,
				Max:    int64(t.Options.Int("max_days", 0)),
				Events: ev,
			})
		case config.KindDeriveMonth:
			c = append(c, builtin.DeriveMonth{
				Source: p.Columns.Received,
				Output: t.Options.String("output", builtin.DefaultMonthColumn),
			})
		default:
			return nil, fmt.Errorf("unsupported transform.kind=%s", t.Kind)
		}
	}
	return c, nil
}

// imputeTypes returns the declared impute types with the date columns
// pinned to text, so compact dates such as 20200501 stay strings for
// derive_duration. Explicit declarations win.
func imputeTypes(p config.Pipeline, declared map[string]string) map[string]string {
	types := make(map[string]string, len(declared)+2)
	for _, col := range []string{p.Columns.Received, p.Columns.Decision} {
		if col != "" {
			types[col] = "text"
		}
	}
	for k, v := range declared {
		types[k] = v
	}
	return types
}
