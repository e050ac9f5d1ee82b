package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/dealsource/internal/model"
)

// SQLiteStore implements ArticleStore using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS articles (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	title           TEXT NOT NULL,
	link            TEXT NOT NULL UNIQUE,
	summary         TEXT NOT NULL DEFAULT '',
	source          TEXT NOT NULL DEFAULT '',
	published       DATETIME,
	processed       INTEGER NOT NULL DEFAULT 0,
	is_deal_related INTEGER
);

CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source);
CREATE INDEX IF NOT EXISTS idx_articles_processed ON articles(processed);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Insert(ctx context.Context, a model.Article) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO articles (title, link, summary, source, published) VALUES (?, ?, ?, ?, ?) ON CONFLICT(link) DO NOTHING`,
		a.Title, a.Link, a.Summary, a.Source, a.Published.UTC(),
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: insert article %s", a.Link)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) GetByLink(ctx context.Context, link string) (*model.Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, link, summary, source, published, processed, is_deal_related FROM articles WHERE link = ?`,
		link,
	)
	a, err := scanArticle(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get article %s", link)
	}
	return a, nil
}

func (s *SQLiteStore) List(ctx context.Context, source string, limit int) ([]model.Article, error) {
	query := `SELECT id, title, link, summary, source, published, processed, is_deal_related FROM articles`
	args := []any{}
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY published DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list articles")
	}
	defer rows.Close()

	var out []model.Article
	for rows.Next() {
		a, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan article")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list articles")
}

func (s *SQLiteStore) MarkProcessed(ctx context.Context, link string, dealRelated bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET processed = 1, is_deal_related = ? WHERE link = ?`,
		dealRelated, link,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark processed %s", link)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: article not found: %s", link)
	}
	return nil
}

// scanArticle reads one row regardless of whether it came from QueryRow or
// a rows cursor. published may be NULL for feeds without timestamps.
func scanArticle(scan func(dest ...any) error) (*model.Article, error) {
	var a model.Article
	var published sql.NullTime
	if err := scan(&a.ID, &a.Title, &a.Link, &a.Summary, &a.Source, &published, &a.Processed, &a.IsDealRelated); err != nil {
		return nil, err
	}
	if published.Valid {
		a.Published = published.Time
	}
	return &a, nil
}
