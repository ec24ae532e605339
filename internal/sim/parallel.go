package sim

import (
	"context"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// Job is one headless run of a batch.
type Job struct {
	Name     string
	Settings Settings
	Seed     int64
}

// Batch runs independent headless loops concurrently, one per job.
type Batch struct {
	Width, Height float64
	// Metrics builds a fresh metric set per job.
	Metrics func() []Metric
}

// Run returns results in job order. The first failing job cancels the rest.
func (b *Batch) Run(ctx context.Context, jobs []Job, cfg RunConfig) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		eg.Go(func() error {
			l, err := New(job.Settings, Options{
				Rand:   rand.New(rand.NewSource(job.Seed)),
				Width:  b.Width,
				Height: b.Height,
			})
			if err != nil {
				return err
			}

			r := NewRunner()
			if b.Metrics != nil {
				for _, m := range b.Metrics() {
					r.AddMetric(m)
				}
			}
			res, err := r.Run(egCtx, l, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
