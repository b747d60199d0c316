// This file implements the batched table loader. Rows are materialized from
// the final table in column order with Missing cells as nil, grouped into
// batches, and written through Repository.CopyFrom.
//
// Logging: every successful flush emits a progress line with running totals
// and instantaneous rows/sec since the previous flush.
package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"cleanse/internal/table"
)

// DefaultBatchSize is used when the config leaves batch_size at zero.
const DefaultBatchSize = 5000

// Load writes every row of t through repo in batches of batchSize and
// returns the total row count reported by the backend. A batchSize <= 0
// falls back to DefaultBatchSize. Cancellation is checked between batches;
// on cancel the count written so far is returned with ctx.Err().
func Load(ctx context.Context, repo Repository, t *table.Table, batchSize int) (int64, error) {
	if repo == nil {
		return 0, fmt.Errorf("repo must not be nil")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	columns := t.Names()

	var (
		total       int64
		batches     int64
		batch       = make([][]any, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := repo.CopyFrom(ctx, columns, batch)
		total += n

		// Reuse allocated slice; keep capacity to avoid churn.
		batch = batch[:0]

		if err != nil {
			log.Printf("loader: copy failed after=%d total=%d err=%v", n, total, err)
			return err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		writtenSinceLast := total - lastTotal
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(writtenSinceLast) / sinceLast.Seconds()
		}
		log.Printf(
			"batch #%d: rps=%.0f written=%d total_written=%d elapsed=%s since_last=%s",
			batches,
			rps,
			n,
			total,
			now.Sub(start).Truncate(time.Millisecond),
			sinceLast.Truncate(time.Millisecond),
		)
		lastFlushTS = now
		lastTotal = total

		return nil
	}

	for row := 0; row < t.NumRows(); row++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		batch = append(batch, t.Row(row))
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}

	log.Printf("loader: done rows=%d batches=%d elapsed=%s",
		total, batches, time.Since(start).Truncate(time.Millisecond))
	return total, nil
}
