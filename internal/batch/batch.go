// Package batch runs repository pipelines under a bounded concurrency limit
// and aggregates their outcomes. One repository's failure never cancels or
// blocks the others.
package batch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/EPdacoder05/TF2S3-migration/internal/config"
	"github.com/EPdacoder05/TF2S3-migration/internal/pipeline"
)

// Summary aggregates a whole batch. Built once after every pipeline reaches
// a terminal state; immutable afterwards.
type Summary struct {
	Outcomes []*pipeline.Outcome
	Duration time.Duration
}

// Names returns the repository names whose final status is status.
func (s *Summary) Names(status pipeline.Status) []string {
	var names []string
	for _, o := range s.Outcomes {
		if o.Status == status {
			names = append(names, o.Target.Repo)
		}
	}
	return names
}

// Count returns how many repositories ended with status.
func (s *Summary) Count(status pipeline.Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// HasFailures reports whether any repository ended failed.
func (s *Summary) HasFailures() bool {
	return s.Count(pipeline.StatusFailed) > 0
}

// Run migrates every target with at most cfg.Concurrency pipelines in flight.
// It returns one outcome per target, in completion order, regardless of
// individual failures.
func Run(ctx context.Context, targets []pipeline.Target, cfg *config.Config, deps pipeline.Deps) *Summary {
	start := time.Now()

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	results := make(chan *pipeline.Outcome, len(targets))
	var wg sync.WaitGroup

	for _, target := range targets {
		wg.Add(1)
		go func(t pipeline.Target) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				results <- &pipeline.Outcome{
					Target:         t,
					Status:         pipeline.StatusSkipped,
					FailureMessage: "batch cancelled before start: " + err.Error(),
				}
				return
			}
			defer sem.Release(1)

			results <- pipeline.New(t, cfg, deps).Run(ctx)
		}(target)
	}

	wg.Wait()
	close(results)

	summary := &Summary{}
	for outcome := range results {
		summary.Outcomes = append(summary.Outcomes, outcome)
	}
	summary.Duration = time.Since(start)
	return summary
}
