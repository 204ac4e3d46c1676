package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"visaprep/internal/config"
	"visaprep/internal/metrics"
	"visaprep/internal/transformer"
	"visaprep/internal/transformer/builtin"
	"visaprep/pkg/records"
)

// Result is the cleaned table plus its data-quality report.
type Result struct {
	Table   records.Table
	Quality Quality
}

// Run executes one pipeline: Load, header normalization, then the
// configured chain. The returned Quality is filled even when a stage fails,
// up to the failing stage.
func Run(ctx context.Context, p config.Pipeline) (Result, error) {
	start := time.Now()
	q := Quality{RunID: uuid.NewString(), Job: p.Job, StartedAt: start.UTC()}
	tr := newTracker(&q)

	log.Printf("pipeline: run_id=%s job=%s source=%s parser=%s transforms=%d",
		q.RunID, p.Job, p.Source.Kind, p.Parser.Kind, len(p.Transform))

	t, src, err := Load(ctx, p)
	metrics.RecordStep(p.Job, "load", err, time.Since(start))
	q.Source = src
	if err != nil {
		return finish(&q, records.Table{}), err
	}
	q.RowsLoaded, q.ColumnsLoaded = t.Shape()
	metrics.RecordRow(p.Job, "loaded", int64(q.RowsLoaded))

	t, err = transformer.Chain{builtin.NormalizeHeaders{}}.Run(ctx, t, tr.observe)
	if err != nil {
		return finish(&q, t), err
	}

	chain, err := BuildChain(p, t.Columns, tr.events())
	if err != nil {
		return finish(&q, t), err
	}
	log.Printf("pipeline: chain=%v", chain.Names())

	t, err = chain.Run(ctx, t, tr.observe)
	if err != nil {
		return finish(&q, t), err
	}

	q.RowsFinal, q.ColumnsFinal = t.Shape()
	metrics.RecordRow(p.Job, "kept", int64(q.RowsFinal))
	tr.logSummary()
	return finish(&q, t), nil
}

func finish(q *Quality, t records.Table) Result {
	q.DurationMS = time.Since(q.StartedAt).Milliseconds()
	return Result{Table: t, Quality: *q}
}
