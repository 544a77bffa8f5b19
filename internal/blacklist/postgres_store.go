package blacklist

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists blacklist entries in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed blacklist store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the blacklist table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS blacklist_entries (
			merchant_id VARCHAR(40) NOT NULL,
			phone       VARCHAR(32) NOT NULL,
			reason      TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (merchant_id, phone)
		);
	`)
	return err
}

func (s *PostgresStore) Add(ctx context.Context, e *Entry) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO blacklist_entries (merchant_id, phone, reason, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (merchant_id, phone) DO NOTHING
	`, e.MerchantID, e.Phone, e.Reason, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add blacklist entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrExists
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, merchantID, phone string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM blacklist_entries WHERE merchant_id = $1 AND phone = $2
	`, merchantID, phone)
	if err != nil {
		return fmt.Errorf("failed to remove blacklist entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, merchantID, phone string) (*Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx, `
		SELECT merchant_id, phone, reason, created_at
		FROM blacklist_entries
		WHERE merchant_id = $1 AND phone = $2
	`, merchantID, phone).Scan(&e.MerchantID, &e.Phone, &e.Reason, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blacklist entry: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) List(ctx context.Context, merchantID string) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT merchant_id, phone, reason, created_at
		FROM blacklist_entries
		WHERE merchant_id = $1
		ORDER BY created_at DESC
	`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blacklist entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.MerchantID, &e.Phone, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}
