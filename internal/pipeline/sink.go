package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/dustin/go-humanize"

	"visaprep/internal/config"
	"visaprep/internal/metrics"
	"visaprep/internal/storage"
	"visaprep/pkg/records"
)

// writeFn is swapped by tests.
var writeFn = storage.Write

// Persist bulk-loads t into the configured database sink. It is a no-op
// when storage.kind is empty. Backends must be registered by the caller
// (see storage/all).
func Persist(ctx context.Context, p config.Pipeline, t records.Table) (storage.WriteResult, error) {
	if p.Storage.Kind == "" {
		return storage.WriteResult{}, nil
	}
	log.Printf("sink: kind=%s table=%s rows=%s batch=%d auto_create=%t",
		p.Storage.Kind, p.Storage.DB.Table, humanize.Comma(int64(t.Len())),
		p.Runtime.BatchSize, p.Storage.DB.AutoCreateTable)

	start := time.Now()
	res, err := writeFn(ctx, storage.WriteOptions{
		Kind:       p.Storage.Kind,
		DSN:        p.Storage.DB.DSN,
		Table:      p.Storage.DB.Table,
		Columns:    p.Storage.DB.Columns,
		AutoCreate: p.Storage.DB.AutoCreateTable,
		BatchSize:  p.Runtime.BatchSize,
	}, t)
	metrics.RecordStep(p.Job, "sink", err, time.Since(start))
	metrics.RecordRow(p.Job, "written", res.Rows)
	metrics.RecordBatches(p.Job, res.Batches)
	if err != nil {
		return res, err
	}
	log.Printf("sink: done rows=%s batches=%d elapsed=%s",
		humanize.Comma(res.Rows), res.Batches, time.Since(start).Truncate(time.Millisecond))
	return res, nil
}
