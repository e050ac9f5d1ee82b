package company

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/dealsource/internal/model"
)

// SQLiteStore implements Store for local runs without a Postgres instance.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at dsn and ensures the schema.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "company: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "company: exec %s", pragma)
		}
	}

	const schema = `
CREATE TABLE IF NOT EXISTS companies (
	name    TEXT PRIMARY KEY,
	website TEXT NOT NULL DEFAULT ''
);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "company: migrate")
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetByName(ctx context.Context, name string) (*model.CompanyRecord, error) {
	rec := &model.CompanyRecord{}
	err := s.db.QueryRowContext(ctx,
		`SELECT name, website FROM companies WHERE name = ?`, name,
	).Scan(&rec.Name, &rec.Website)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "company: get %s", name)
	}
	return rec, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, rec model.CompanyRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (name, website) VALUES (?, ?)`,
		rec.Name, rec.Website)
	return eris.Wrapf(err, "company: insert %s", rec.Name)
}

func (s *SQLiteStore) UpdateWebsite(ctx context.Context, name, website string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE companies SET website = ? WHERE name = ?`,
		website, name)
	return eris.Wrapf(err, "company: update website %s", name)
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.CompanyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, website FROM companies ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "company: list")
	}
	defer rows.Close()

	var out []model.CompanyRecord
	for rows.Next() {
		var rec model.CompanyRecord
		if err := rows.Scan(&rec.Name, &rec.Website); err != nil {
			return nil, eris.Wrap(err, "company: scan")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "company: list")
}
