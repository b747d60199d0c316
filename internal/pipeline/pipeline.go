// Package pipeline composes the cleaning stages in their fixed order:
// coerce → missingness → dedup → (group, optional). The order is
// load-bearing: deduplicating after the missingness filter keeps a row from
// being counted both as missing-dropped and duplicate-dropped.
//
// Each stage consumes its input table and produces a new one; a stage
// failure aborts the run with the failing stage named in the error and no
// partial output. The removal report is part of the return value, never
// merely logged, so callers can assert on data-loss magnitude.
package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	"cleanse/internal/coerce"
	"cleanse/internal/dedup"
	"cleanse/internal/groupby"
	"cleanse/internal/missing"
	"cleanse/internal/table"
)

// Stage names used as removal-report keys and in StageError.
const (
	StageCoerce  = "coerce"
	StageMissing = "missingness"
	StageDedup   = "dedup"
	StageGroup   = "group"
	StageTopK    = "top-k"
)

// DedupSpec configures the dedup stage. An empty Columns list compares whole
// rows.
type DedupSpec struct {
	Columns []string
}

// TopKSpec configures extremal row selection per partition. It is an
// alternative to grouped aggregation; configuring both is an error.
type TopKSpec struct {
	Key     []string
	OrderBy string
	K       int
	Largest bool
}

// Options selects and configures the stages of one run. A nil stage is
// skipped entirely (it appears in no report entry).
type Options struct {
	Coerce  *coerce.Spec
	Missing *missing.Policy
	Dedup   *DedupSpec
	Group   *groupby.Spec
	TopK    *TopKSpec
}

// Report is the outcome accounting of a pipeline run.
type Report struct {
	// RunID identifies the run in logs and metrics.
	RunID string

	// InputRows and OutputRows bracket the run.
	InputRows  int
	OutputRows int

	// Removed counts rows removed per stage, keyed by stage name. Stages
	// that executed always have an entry, even when it is zero.
	Removed map[string]int

	// CoerceFailures counts per-column values that failed coercion and
	// became Missing.
	CoerceFailures map[string]int
}

// TotalRemoved sums the per-stage removal counts.
func (r Report) TotalRemoved() int {
	n := 0
	for _, c := range r.Removed {
		n += c
	}
	return n
}

// StageError wraps a stage failure with the stage name.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Run executes the configured stages over t. On success it returns the final
// table and a complete report; on failure it returns the first error wrapped
// in a StageError and discards all partial results.
func Run(t *table.Table, opt Options) (*table.Table, Report, error) {
	rep := Report{
		RunID:          uuid.NewString(),
		InputRows:      t.NumRows(),
		Removed:        map[string]int{},
		CoerceFailures: map[string]int{},
	}

	cur := t

	if opt.Coerce != nil {
		out, stats, err := coerce.Apply(cur, *opt.Coerce)
		if err != nil {
			return nil, Report{}, &StageError{Stage: StageCoerce, Err: err}
		}
		cur = out
		for col, n := range stats.Failures {
			rep.CoerceFailures[col] = n
		}
	}

	if opt.Missing != nil {
		out, removed, err := missing.Apply(cur, *opt.Missing)
		if err != nil {
			return nil, Report{}, &StageError{Stage: StageMissing, Err: err}
		}
		cur = out
		rep.Removed[StageMissing] = removed
	}

	if opt.Dedup != nil {
		out, removed, err := dedup.Apply(cur, opt.Dedup.Columns)
		if err != nil {
			return nil, Report{}, &StageError{Stage: StageDedup, Err: err}
		}
		cur = out
		rep.Removed[StageDedup] = removed
	}

	if opt.Group != nil && opt.TopK != nil {
		err := fmt.Errorf("group and top-k are mutually exclusive")
		return nil, Report{}, &StageError{Stage: StageGroup, Err: err}
	}

	if opt.Group != nil {
		out, err := groupby.Apply(cur, *opt.Group)
		if err != nil {
			return nil, Report{}, &StageError{Stage: StageGroup, Err: err}
		}
		cur = out
	}

	if tk := opt.TopK; tk != nil {
		out, err := groupby.TopK(cur, tk.Key, tk.OrderBy, tk.K, tk.Largest)
		if err != nil {
			return nil, Report{}, &StageError{Stage: StageTopK, Err: err}
		}
		cur = out
	}

	rep.OutputRows = cur.NumRows()
	return cur, rep, nil
}
