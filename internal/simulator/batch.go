package simulator

import (
	"context"
	"fmt"

	"github.com/willfong/san-simulator/internal/logging"
	"github.com/willfong/san-simulator/internal/models"
	"github.com/willfong/san-simulator/internal/utils"
	"golang.org/x/sync/errgroup"
)

// BatchOptions controls RunAll
type BatchOptions struct {
	// Concurrent runs (0 = one per CPU)
	Workers int

	// Optional callbacks, invoked from worker goroutines
	OnStart func(index int, spec RunSpec)
	OnDone  func(index int, res *Result, err error)
}

// RunAll evaluates independent runs concurrently and returns their results
// in the order of specs. The first failing run cancels the rest.
func RunAll(ctx context.Context, specs []RunSpec, opts BatchOptions) ([]*Result, error) {
	workers := GetWorkerCount(opts.Workers)
	logging.FromContext(ctx).Debug("starting batch", "runs", len(specs), "workers", workers)

	results := make([]*Result, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, spec := range specs {
		g.Go(func() error {
			if opts.OnStart != nil {
				opts.OnStart(i, spec)
			}
			res, err := Run(gctx, spec)
			if opts.OnDone != nil {
				opts.OnDone(i, res, err)
			}
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch failed: %w", err)
	}
	return results, nil
}

// Union concatenates the records of several runs, in run order, into the
// comparison table.
func Union(results []*Result) []models.Record {
	total := 0
	for _, r := range results {
		total += len(r.Records)
	}

	out := make([]models.Record, 0, total)
	for _, r := range results {
		out = append(out, r.Records...)
	}
	return out
}

// CompareSpecs expands base into one run per link with encryption off and
// on. Both encryption modes of a link share a noise seed, so their load
// profiles are identical and differences come from the service model only.
// Seeds are derived from seed (0 = random), making the whole batch
// reproducible from a single value.
func CompareSpecs(base RunSpec, links []models.Link, seed int64) []RunSpec {
	rng := utils.NewRandom(seed)

	specs := make([]RunSpec, 0, 2*len(links))
	for _, link := range links {
		linkSeed := rng.DeriveSeed()
		for _, enc := range []bool{false, true} {
			spec := base
			spec.Link = link
			spec.Encryption = enc
			spec.Profile.Seed = linkSeed
			spec.Profile.SpikeTimes = append([]float64(nil), base.Profile.SpikeTimes...)
			specs = append(specs, spec)
		}
	}
	return specs
}
