package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/dealsource/internal/model"
)

// Pool is the subset of pgxpool.Pool the article store uses. pgxmock
// satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements ArticleStore on pgx.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres connects a pool and pings it.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS articles (
	id              BIGSERIAL PRIMARY KEY,
	title           TEXT NOT NULL,
	link            TEXT NOT NULL UNIQUE,
	summary         TEXT NOT NULL DEFAULT '',
	source          TEXT NOT NULL DEFAULT '',
	published       TIMESTAMPTZ,
	processed       BOOLEAN NOT NULL DEFAULT FALSE,
	is_deal_related BOOLEAN
);

CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source);
CREATE INDEX IF NOT EXISTS idx_articles_processed ON articles(processed);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, a model.Article) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO articles (title, link, summary, source, published) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (link) DO NOTHING`,
		a.Title, a.Link, a.Summary, a.Source, a.Published,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: insert article %s", a.Link)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetByLink(ctx context.Context, link string) (*model.Article, error) {
	var a model.Article
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, link, summary, source, published, processed, is_deal_related FROM articles WHERE link = $1`,
		link,
	).Scan(&a.ID, &a.Title, &a.Link, &a.Summary, &a.Source, &a.Published, &a.Processed, &a.IsDealRelated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get article %s", link)
	}
	return &a, nil
}

func (s *PostgresStore) List(ctx context.Context, source string, limit int) ([]model.Article, error) {
	query := `SELECT id, title, link, summary, source, published, processed, is_deal_related FROM articles`
	args := []any{}
	if source != "" {
		query += ` WHERE source = $1`
		args = append(args, source)
	}
	query += ` ORDER BY published DESC NULLS LAST`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list articles")
	}
	defer rows.Close()

	var out []model.Article
	for rows.Next() {
		var a model.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Link, &a.Summary, &a.Source, &a.Published, &a.Processed, &a.IsDealRelated); err != nil {
			return nil, eris.Wrap(err, "postgres: scan article")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list articles")
}

func (s *PostgresStore) MarkProcessed(ctx context.Context, link string, dealRelated bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE articles SET processed = TRUE, is_deal_related = $1 WHERE link = $2`,
		dealRelated, link,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark processed %s", link)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: article not found: %s", link)
	}
	return nil
}
