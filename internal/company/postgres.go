package company

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/sells-group/dealsource/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store against the companies table.
type PostgresStore struct {
	pool Pool
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate ensures the companies table exists.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS companies (
			name    TEXT PRIMARY KEY,
			website TEXT NOT NULL DEFAULT ''
		)`)
	return eris.Wrap(err, "company: migrate")
}

func (s *PostgresStore) GetByName(ctx context.Context, name string) (*model.CompanyRecord, error) {
	rec := &model.CompanyRecord{}
	err := s.pool.QueryRow(ctx,
		`SELECT name, website FROM companies WHERE name = $1`, name,
	).Scan(&rec.Name, &rec.Website)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "company: get %s", name)
	}
	return rec, nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec model.CompanyRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (name, website) VALUES ($1, $2)`,
		rec.Name, rec.Website)
	return eris.Wrapf(err, "company: insert %s", rec.Name)
}

func (s *PostgresStore) UpdateWebsite(ctx context.Context, name, website string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE companies SET website = $1 WHERE name = $2`,
		website, name)
	return eris.Wrapf(err, "company: update website %s", name)
}

func (s *PostgresStore) List(ctx context.Context) ([]model.CompanyRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, website FROM companies ORDER BY name`)
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
