package downloader

import (
	"context"
	"net/url"
	"path/filepath"

	"github.com/handsomefox/kemonodl/api"
	"github.com/handsomefox/kemonodl/files"
	"github.com/handsomefox/kemonodl/filter"
	"github.com/rs/zerolog/log"
)

// Catalog is the read side of the content host. *api.CreatorService implements it.
type Catalog interface {
	Posts(ctx context.Context, creator api.Creator, offset int) (*api.PostsPage, error)
	Post(ctx context.Context, creator api.Creator, postID string) (*api.PostDetail, error)
	Profile(ctx context.Context, creator api.Creator) (*api.Profile, error)
}

// Processor downloads a single post: its metadata snapshot and its files.
type Processor struct {
	catalog Catalog
	pool    *Pool
	filters filter.Filters
	base    *url.URL
	stats   *Stats
}

// NewProcessor returns a Processor. File urls without a server are resolved against base.
func NewProcessor(catalog Catalog, pool *Pool, filters filter.Filters, base *url.URL) *Processor {
	return &Processor{
		catalog: catalog,
		pool:    pool,
		filters: filters,
		base:    base,
		stats:   pool.stats,
	}
}

// Process downloads post into authorDir/<title>.
//
// Posts filtered out by title, and posts whose directory or metadata could not
// be written, are skipped without an error. Only a failure to get the post
// detail is returned. Failed files are logged and counted in Stats.
func (p *Processor) Process(ctx context.Context, creator api.Creator, post api.PostSummary, authorDir string) error {
	logger := log.With().Str("post_id", post.ID).Str("title", post.Title).Logger()

	if !p.filters.Title.Passes(post.Title) {
		logger.Info().Msg("post filtered out by title")
		return nil
	}

	detail, err := p.catalog.Post(ctx, creator, post.ID)
	if err != nil {
		return newPostError(err, post.ID)
	}
	p.stats.posts.Add(1)

	dir := filepath.Join(authorDir, files.DirName(post.Title, post.ID))
	if err := files.EnsureDir(dir); err != nil {
		logger.Err(err).Msg("skipping post")
		return nil
	}
	if err := files.WriteMetadata(dir, detail.Post); err != nil {
		logger.Err(err).Msg("failed to write metadata, skipping post")
		return nil
	}

	jobs := p.jobs(detail, dir)
	logger.Debug().Int("files", len(jobs)).Str("dir", dir).Msg("downloading post")

	summary := p.pool.Run(ctx, jobs)
	logger.Info().
		Int64("completed", summary.Completed).
		Int64("skipped", summary.Skipped).
		Int64("failed", summary.Failed).
		Msg("post done")

	return nil
}

// jobs turns the attachments and previews of detail into jobs, in that order.
// Invalid references, unsafe names and repeated names are dropped with a
// warning, names rejected by the file filter are dropped silently.
func (p *Processor) jobs(detail *api.PostDetail, dir string) []Job {
	var (
		candidates = detail.Candidates()
		jobs       = make([]Job, 0, len(candidates))
		seen       = make(map[string]struct{}, len(candidates))
	)
	for _, ref := range candidates {
		if err := ref.Validate(); err != nil {
			log.Warn().Err(err).Msg("skipping attachment")
			continue
		}
		if err := files.CheckName(ref.Name); err != nil {
			log.Warn().Err(err).Str("url", ref.URL(p.base)).Msg("skipping attachment")
			continue
		}
		if _, ok := seen[ref.Name]; ok {
			log.Warn().Str("file", ref.Name).Msg("duplicate file name, skipping")
			continue
		}
		seen[ref.Name] = struct{}{}

		if !p.filters.File.Passes(ref.Name) {
			log.Debug().Str("file", ref.Name).Msg("file filtered out by name")
			continue
		}
		jobs = append(jobs, Job{
			URL:  ref.URL(p.base),
			Dir:  dir,
			Name: ref.Name,
		})
	}
	return jobs
}
