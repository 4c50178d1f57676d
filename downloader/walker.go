package downloader

import (
	"context"
	"path/filepath"

	"github.com/handsomefox/kemonodl/api"
	"github.com/handsomefox/kemonodl/files"
	"github.com/rs/zerolog/log"
)

// Walker goes through a creator's catalog page by page and processes every
// post, one post at a time.
type Walker struct {
	catalog   Catalog
	processor *Processor
	outputDir string
}

func NewWalker(catalog Catalog, processor *Processor, outputDir string) *Walker {
	return &Walker{
		catalog:   catalog,
		processor: processor,
		outputDir: outputDir,
	}
}

// Walk processes every post of creator.
// Cancellation of ctx ends the walk without an error.
func (w *Walker) Walk(ctx context.Context, creator api.Creator) error {
	authorDir, err := w.authorDir(ctx, creator)
	if err != nil {
		return cancelled(ctx, err)
	}

	for offset := 0; ; {
		if ctx.Err() != nil {
			log.Info().Msg("walk cancelled")
			return nil
		}

		log.Debug().Str("creator", creator.String()).Int("offset", offset).Msg("fetching posts")
		page, err := w.catalog.Posts(ctx, creator, offset)
		if err != nil {
			return cancelled(ctx, err)
		}
		if len(page.Results) == 0 {
			log.Debug().Int("offset", offset).Msg("no more posts")
			return nil
		}

		for _, post := range page.Results {
			if ctx.Err() != nil {
				log.Info().Msg("walk cancelled")
				return nil
			}
			if err := w.processor.Process(ctx, creator, post, authorDir); err != nil {
				return cancelled(ctx, err)
			}
		}

		if page.Props.Limit <= 0 {
			log.Warn().Int("limit", page.Props.Limit).Msg("listing reported no page size, stopping")
			return nil
		}
		offset += page.Props.Limit
		if offset > page.Props.Count {
			return nil
		}
	}
}

// One processes a single post of creator.
func (w *Walker) One(ctx context.Context, creator api.Creator, postID string) error {
	authorDir, err := w.authorDir(ctx, creator)
	if err != nil {
		return cancelled(ctx, err)
	}

	detail, err := w.catalog.Post(ctx, creator, postID)
	if err != nil {
		return cancelled(ctx, newPostError(err, postID))
	}
	title := detail.Title()
	if title == "" {
		title = postID
	}

	return cancelled(ctx, w.processor.Process(ctx, creator, api.PostSummary{ID: postID, Title: title}, authorDir))
}

// authorDir returns outputDir/<creator name>.
func (w *Walker) authorDir(ctx context.Context, creator api.Creator) (string, error) {
	profile, err := w.catalog.Profile(ctx, creator)
	if err != nil {
		return "", err
	}
	name := files.DirName(profile.DisplayName(), creator.ID)
	log.Debug().Str("author", name).Msg("resolved author directory")
	return filepath.Join(w.outputDir, name), nil
}

// cancelled drops err when it was caused by the cancellation of ctx.
func cancelled(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		log.Debug().Err(err).Msg("error after cancellation")
		return nil
	}
	return err
}
