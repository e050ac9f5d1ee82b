// Package store persists articles discovered from feeds. Link is the unique
// key: re-ingesting a feed never duplicates rows.
package store

import (
	"context"

	"github.com/sells-group/dealsource/internal/model"
)

// ArticleStore defines row-level persistence for feed articles.
type ArticleStore interface {
	// Insert stores a new article. Returns (false, nil) when the link is
	// already known.
	Insert(ctx context.Context, a model.Article) (bool, error)

	// GetByLink returns the article with the given link, or nil when absent.
	GetByLink(ctx context.Context, link string) (*model.Article, error)

	// List returns articles, newest published first. source filters by feed
	// name when non-empty; limit <= 0 means no limit.
	List(ctx context.Context, source string, limit int) ([]model.Article, error)

	// MarkProcessed records the classification outcome for a link.
	MarkProcessed(ctx context.Context, link string, dealRelated bool) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
