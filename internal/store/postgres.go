package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore backs the keyed substrate with a single Postgres table.
// Each Set is one upsert statement, which gives the per-key atomicity the
// Store contract requires.
type PostgresStore struct {
	DB *sql.DB
}

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS escrow_records (
		key        TEXT PRIMARY KEY,
		value      BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create escrow_records table: %w", err)
	}
	return &PostgresStore{DB: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	query := `SELECT value FROM escrow_records WHERE key=$1`
	err := s.DB.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO escrow_records (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()
	`
	_, err := s.DB.ExecContext(ctx, query, key, value)
	return err
}

func (s *PostgresStore) Has(ctx context.Context, key string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM escrow_records WHERE key=$1)`
	if err := s.DB.QueryRowContext(ctx, query, key).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

var _ Store = (*PostgresStore)(nil)
