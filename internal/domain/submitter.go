package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"example.com/clubadmin/internal/observability"
	"example.com/clubadmin/internal/schedule"
)

// DefaultBatchSize is the number of activities submitted concurrently.
const DefaultBatchSize = 10

// SubmitFunc persists one generated activity.
type SubmitFunc func(ctx context.Context, draft schedule.GeneratedActivity) (*Activity, error)

// SubmitOutcome is the result of submitting the draft at Index.
type SubmitOutcome struct {
	Index    int
	Activity *Activity
	Err      error
}

// BatchSubmitter submits drafts in fixed-size batches. Requests within a batch
// run concurrently and every request is awaited before the next batch starts.
type BatchSubmitter struct {
	Size   int
	Submit SubmitFunc
}

// Run submits drafts and returns one outcome per draft, in input order. A
// cancelled context fails the remaining batches without submitting them.
func (b BatchSubmitter) Run(ctx context.Context, drafts []schedule.GeneratedActivity) []SubmitOutcome {
	size := b.Size
	if size < 1 {
		size = DefaultBatchSize
	}

	outcomes := make([]SubmitOutcome, len(drafts))
	for start := 0; start < len(drafts); start += size {
		end := min(start+size, len(drafts))

		if err := ctx.Err(); err != nil {
			for i := start; i < len(drafts); i++ {
				outcomes[i] = SubmitOutcome{Index: i, Err: err}
			}
			break
		}

		began := time.Now()
		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				activity, err := b.Submit(ctx, drafts[i])
				outcomes[i] = SubmitOutcome{Index: i, Activity: activity, Err: err}
				return nil
			})
		}
		_ = g.Wait()
		observability.ObserveSubmitBatch(time.Since(began))
	}
	return outcomes
}

// JoinFailures combines the errors of failed outcomes.
func JoinFailures(outcomes []SubmitOutcome) error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("activity %d: %w", o.Index, o.Err))
		}
	}
	return errors.Join(errs...)
}
