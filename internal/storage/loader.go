package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"visaprep/pkg/records"

	"github.com/dustin/go-humanize"
)

// CopyFn abstracts a backend's bulk insert. It inserts rows aligned to
// columns and returns the number of rows written.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn per non-empty batch. It returns the rows reported by copyFn,
// the number of batches flushed and the first error.
//
// Progress is logged on each successful flush.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (total, batches int64, err error) {
	if batchSize <= 0 {
		return 0, 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		batch     = make([][]any, 0, batchSize)
		start     = time.Now()
		lastFlush = start
		lastTotal int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			log.Printf("sink: copy failed after=%d total=%d err=%v", n, total, err)
			return err
		}

		batches++
		now := time.Now()
		since := now.Sub(lastFlush)
		rps := float64(0)
		if since > 0 {
			rps = float64(total-lastTotal) / since.Seconds()
		}
		log.Printf("sink: batch=%d rows=%d total=%s rps=%.0f elapsed=%s",
			batches, n, humanize.Comma(total), rps, now.Sub(start).Truncate(time.Millisecond))
		lastFlush = now
		lastTotal = total
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, batches, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, batches, err
				}
				return total, batches, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, batches, err
				}
			}
		}
	}
}

// Rows projects t onto columns and sends them on the returned channel.
// Missing cells become nil. The channel is closed after the last row or when
// ctx is done.
func Rows(ctx context.Context, t records.Table, columns []string) <-chan []any {
	out := make(chan []any, 64)
	go func() {
		defer close(out)
		for _, r := range t.Rows {
			row := make([]any, len(columns))
			for i, c := range columns {
				if v := r[c]; !records.IsMissing(v) {
					row[i] = v
				}
			}
			select {
			case out <- row:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
