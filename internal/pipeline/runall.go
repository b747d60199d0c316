package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"cleanse/internal/table"
)

// Job is one independent pipeline execution: a named input table plus the
// stage options to run over it.
type Job struct {
	Name    string
	Input   *table.Table
	Options Options
}

// Result pairs a job name with its output.
type Result struct {
	Name   string
	Table  *table.Table
	Report Report
}

// RunAll executes independent jobs concurrently. Tables are immutable and
// jobs share no mutable state, so parallel runs need no locking. limit caps
// concurrent runs; limit <= 0 means one goroutine per job. The first job
// failure cancels the remaining jobs and is returned with the job name
// attached.
func RunAll(ctx context.Context, jobs []Job, limit int) ([]Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	results := make([]Result, len(jobs))
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, rep, err := Run(job.Input, job.Options)
			if err != nil {
				return fmt.Errorf("job %s: %w", job.Name, err)
			}
			results[i] = Result{Name: job.Name, Table: out, Report: rep}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
