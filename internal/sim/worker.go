package sim

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sosl/pycyc/internal/axes"
)

// batchJob is a unit of work for the worker pool.
type batchJob struct {
	index int
	seed  int64
}

// batchResult is the output of a single realization.
type batchResult struct {
	index  int
	result *Result
	err    error
}

// WorkerPool manages a fixed number of goroutines for generating
// independent realizations of the same geometry in parallel. Each
// realization owns its grid and phasor source, so no simulation state is
// shared between workers.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// RunBatch generates one realization per seed, in parallel, all sharing
// the same geometry and parameters. Results are returned in seed order;
// failed realizations are logged, counted and left nil. The success and
// error counts are returned alongside.
func (wp *WorkerPool) RunBatch(ctx context.Context, geom axes.Geometry, p Params, seeds []int64) ([]*Result, int, int) {
	if len(seeds) == 0 {
		return nil, 0, 0
	}

	jobs := make(chan batchJob, wp.workers*2)
	results := make(chan batchResult, wp.workers*2)

	// Start workers.
	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sim := New(wp.logger)
			for job := range jobs {
				res, err := sim.Run(geom, p, job.seed)
				select {
				case results <- batchResult{index: job.index, result: res, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Feed jobs in a goroutine.
	go func() {
		defer close(jobs)
		for i, seed := range seeds {
			select {
			case jobs <- batchJob{index: i, seed: seed}:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close results when all workers are done.
	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results.
	out := make([]*Result, len(seeds))
	var successCount, errorCount int

	for r := range results {
		if r.err != nil {
			errorCount++
			wp.logger.Warn("realization failed",
				"index", r.index,
				"error", r.err,
			)
			continue
		}
		successCount++
		out[r.index] = r.result
	}

	return out, successCount, errorCount
}
