package merchant

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
)

// PostgresStore persists merchants in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed merchant store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, m *Merchant) error {
	settingsJSON, err := json.Marshal(m.Settings)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO merchants (id, name, slug, status, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.Name, m.Slug, string(m.Status), settingsJSON, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrSlugTaken
		}
		return err
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Merchant, error) {
	return p.scanMerchant(p.db.QueryRowContext(ctx, `
		SELECT id, name, slug, status, settings, created_at, updated_at
		FROM merchants WHERE id = $1`, id))
}

func (p *PostgresStore) GetBySlug(ctx context.Context, slug string) (*Merchant, error) {
	return p.scanMerchant(p.db.QueryRowContext(ctx, `
		SELECT id, name, slug, status, settings, created_at, updated_at
		FROM merchants WHERE slug = $1`, slug))
}

func (p *PostgresStore) Update(ctx context.Context, m *Merchant) error {
	settingsJSON, err := json.Marshal(m.Settings)
	if err != nil {
		return err
	}
	result, err := p.db.ExecContext(ctx, `
		UPDATE merchants SET name = $1, status = $2, settings = $3, updated_at = $4
		WHERE id = $5`,
		m.Name, string(m.Status), settingsJSON, m.UpdatedAt, m.ID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context) ([]*Merchant, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, slug, status, settings, created_at, updated_at
		FROM merchants ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []*Merchant
	for rows.Next() {
		m := &Merchant{}
		var status string
		var settingsJSON []byte
		if err := rows.Scan(&m.ID, &m.Name, &m.Slug, &status, &settingsJSON, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.Status = Status(status)
		if len(settingsJSON) > 0 {
			_ = json.Unmarshal(settingsJSON, &m.Settings)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (p *PostgresStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id FROM merchants WHERE status = 'active' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (p *PostgresStore) scanMerchant(row *sql.Row) (*Merchant, error) {
	m := &Merchant{}
	var status string
	var settingsJSON []byte
	err := row.Scan(&m.ID, &m.Name, &m.Slug, &status, &settingsJSON, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.Status = Status(status)
	if len(settingsJSON) > 0 {
		_ = json.Unmarshal(settingsJSON, &m.Settings)
	}
	return m, nil
}

// Migrate creates the merchants table (used in dev/test; prod uses migration files).
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS merchants (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			slug       TEXT NOT NULL UNIQUE,
			status     TEXT NOT NULL DEFAULT 'active',
			settings   JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_merchants_status ON merchants(status);
	`)
	return err
}

var _ Store = (*PostgresStore)(nil)
