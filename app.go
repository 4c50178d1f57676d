package main

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/handsomefox/kemonodl/api"
	"github.com/handsomefox/kemonodl/config"
	"github.com/handsomefox/kemonodl/downloader"
	"github.com/handsomefox/kemonodl/fetch"
	"github.com/rs/zerolog/log"
)

const progressInterval = 2 * time.Second

// App is a configured download of one target.
type App struct {
	cfg    config.Config
	target *api.Target
	stats  *downloader.Stats
	walker *downloader.Walker
}

func NewApp(cfg config.Config, target *api.Target) (*App, error) {
	filters, err := cfg.Filters.Compile()
	if err != nil {
		return nil, err
	}

	var (
		client    = api.DefaultClient().WithBaseURL(target.Base)
		stats     = new(downloader.Stats)
		fetcher   = fetch.New(client, cfg.StallTimeout).WithProgress(stats.AddBytes)
		pool      = downloader.NewPool(fetcher, cfg.Concurrency, stats)
		processor = downloader.NewProcessor(client.Creators, pool, filters, target.Base)
	)

	return &App{
		cfg:    cfg,
		target: target,
		stats:  stats,
		walker: downloader.NewWalker(client.Creators, processor, cfg.OutputDir),
	}, nil
}

// Run downloads the target. Cancellation of ctx is not an error.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Progress {
		progressCtx, stop := context.WithCancel(ctx)
		defer stop()
		go a.stats.ProgressLoop(progressCtx, progressInterval)
	}

	var err error
	if a.target.PostID != "" {
		log.Info().Str("creator", a.target.Creator.String()).Str("post_id", a.target.PostID).Msg("downloading post")
		err = a.walker.One(ctx, a.target.Creator, a.target.PostID)
	} else {
		log.Info().Str("creator", a.target.Creator.String()).Msg("downloading creator")
		err = a.walker.Walk(ctx, a.target.Creator)
	}

	event := log.Info()
	if ctx.Err() != nil {
		event = log.Warn().Bool("cancelled", true)
	}
	event.
		Int64("posts", a.stats.Posts()).
		Int64("completed", a.stats.Completed()).
		Int64("skipped", a.stats.Skipped()).
		Int64("failed", a.stats.Failed()).
		Str("downloaded", humanize.IBytes(uint64(a.stats.Bytes()))).
		Msg("finished")

	return err
}

// Stats returns the counters of the run.
func (a *App) Stats() *downloader.Stats {
	return a.stats
}
