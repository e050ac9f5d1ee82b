package status

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/dealsource/internal/model"
)

// SQLiteTracker stores statuses in a SQLite table, one row per URL. Durable
// writes come from the upsert committing before Update returns; WAL mode
// keeps readers unblocked if a server run and a CLI run overlap.
type SQLiteTracker struct {
	db *sql.DB
}

// NewSQLiteTracker opens the database at dsn and ensures the schema.
func NewSQLiteTracker(dsn string) (*SQLiteTracker, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "status: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "status: exec %s", pragma)
		}
	}

	const schema = `
CREATE TABLE IF NOT EXISTS url_status (
	url    TEXT PRIMARY KEY,
	status TEXT NOT NULL DEFAULT '',
	notes  TEXT NOT NULL DEFAULT '',
	seq    INTEGER
);
CREATE INDEX IF NOT EXISTS idx_url_status_status ON url_status(status);
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "status: migrate")
	}

	return &SQLiteTracker{db: db}, nil
}

// Close releases the database handle.
func (t *SQLiteTracker) Close() error {
	return t.db.Close()
}

// Seed inserts a URL with NEW status if it is not already tracked.
func (t *SQLiteTracker) Seed(ctx context.Context, url string) error {
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO url_status (url, status, notes, seq)
		VALUES (?, '', '', (SELECT COALESCE(MAX(seq), 0) + 1 FROM url_status))
		ON CONFLICT(url) DO NOTHING`, url)
	if err != nil {
		return eris.Wrapf(err, "status: seed %s", url)
	}
	return nil
}

func (t *SQLiteTracker) Load(ctx context.Context) (map[string]model.ProcessingStatus, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT url, status, notes FROM url_status ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "status: load")
	}
	defer func() { _ = rows.Close() }()

	statuses := make(map[string]model.ProcessingStatus)
	for rows.Next() {
		var s model.ProcessingStatus
		if err := rows.Scan(&s.URL, (*string)(&s.Status), &s.Notes); err != nil {
			return nil, eris.Wrap(err, "status: scan row")
		}
		statuses[s.URL] = s
	}
	return statuses, eris.Wrap(rows.Err(), "status: iterate rows")
}

func (t *SQLiteTracker) Pending(ctx context.Context) ([]string, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT url FROM url_status WHERE status IN ('', 'error') ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "status: pending")
	}
	defer func() { _ = rows.Close() }()

	var pending []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, eris.Wrap(err, "status: scan url")
		}
		pending = append(pending, url)
	}
	return pending, eris.Wrap(rows.Err(), "status: iterate pending")
}

func (t *SQLiteTracker) Update(ctx context.Context, url string, status model.URLStatus, notes string) error {
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO url_status (url, status, notes, seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM url_status))
		ON CONFLICT(url) DO UPDATE SET status = excluded.status, notes = excluded.notes`,
		url, string(status), notes)
	if err != nil {
		return eris.Wrapf(err, "status: update %s", url)
	}
	return nil
}
