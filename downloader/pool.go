package downloader

import (
	"context"
	"sync/atomic"

	"github.com/handsomefox/kemonodl/fetch"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Fetcher downloads a single file. *fetch.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url, dir, name string) (fetch.Outcome, error)
}

// Job is one file to download.
type Job struct {
	URL  string
	Dir  string
	Name string
}

// Summary counts what happened to the jobs of a single Run.
type Summary struct {
	Completed int64
	Skipped   int64
	Failed    int64
	// Unclaimed jobs were never started because of cancellation.
	Unclaimed int64
}

// Pool runs jobs on a fixed number of workers.
type Pool struct {
	fetcher Fetcher
	workers int
	stats   *Stats
}

// NewPool returns a pool of workers. stats may be nil.
func NewPool(fetcher Fetcher, workers int, stats *Stats) *Pool {
	if workers < 1 {
		log.Debug().Msg("no worker count provided, falling back on 1")
		workers = 1
	}
	if stats == nil {
		stats = new(Stats)
	}
	return &Pool{
		fetcher: fetcher,
		workers: workers,
		stats:   stats,
	}
}

// Run downloads every job and returns once all of them have finished.
//
// Jobs are started in order as soon as one of the workers is free. A failed
// job is logged and recorded in Stats; it does not stop the other jobs. After
// ctx is cancelled no new job is started.
func (p *Pool) Run(ctx context.Context, jobs []Job) Summary {
	var (
		completed, skipped, failed, unclaimed atomic.Int64

		eg = new(errgroup.Group)
	)
	eg.SetLimit(p.workers)
	p.stats.queued.Add(int64(len(jobs)))

	for i, job := range jobs {
		if ctx.Err() != nil {
			unclaimed.Add(int64(len(jobs) - i))
			break
		}
		job := job
		// Blocks until a worker is free.
		eg.Go(func() error {
			// Cancellation may have happened while waiting for the slot.
			if ctx.Err() != nil {
				unclaimed.Add(1)
				return nil
			}
			outcome, err := p.fetcher.Fetch(ctx, job.URL, job.Dir, job.Name)
			switch {
			case err != nil:
				log.Err(err).Str("file", job.Name).Str("url", job.URL).Msg("failed to download file")
				p.stats.appendIncr(newJobError(err, job))
				failed.Add(1)
			case outcome == fetch.Skipped:
				log.Debug().Str("file", job.Name).Msg("skipped file")
				p.stats.skipped.Add(1)
				skipped.Add(1)
			default:
				log.Debug().Str("file", job.Name).Msg("downloaded file")
				p.stats.completed.Add(1)
				completed.Add(1)
			}
			p.stats.queued.Add(-1)
			return nil
		})
	}
	_ = eg.Wait() // per-job failures are recorded in Stats, never returned

	p.stats.queued.Add(-unclaimed.Load())

	return Summary{
		Completed: completed.Load(),
		Skipped:   skipped.Load(),
		Failed:    failed.Load(),
		Unclaimed: unclaimed.Load(),
	}
}
