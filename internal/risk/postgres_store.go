package risk

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PostgresStore persists risk assessments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed assessment store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the risk_assessments table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS risk_assessments (
			id           VARCHAR(40) PRIMARY KEY,
			order_id     VARCHAR(40) NOT NULL,
			merchant_id  VARCHAR(40) NOT NULL,
			phone        VARCHAR(32) NOT NULL,
			score        INT NOT NULL CHECK (score >= 0 AND score <= 100),
			level        VARCHAR(10) NOT NULL CHECK (level IN ('none', 'low', 'medium', 'high')),
			factors      JSONB NOT NULL DEFAULT '{}',
			evaluated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_risk_assessments_phone
			ON risk_assessments (merchant_id, phone, evaluated_at DESC);
	`)
	return err
}

func (s *PostgresStore) Record(ctx context.Context, a *Assessment) error {
	factorsJSON, err := json.Marshal(a.Factors)
	if err != nil {
		return fmt.Errorf("failed to marshal factors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO risk_assessments (id, order_id, merchant_id, phone, score, level, factors, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		a.ID, a.OrderID, a.MerchantID, a.Phone,
		a.Score, string(a.Level), factorsJSON, a.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record risk assessment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByPhone(ctx context.Context, merchantID, phone string, limit int) ([]*Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, merchant_id, phone, score, level, factors, evaluated_at
		FROM risk_assessments
		WHERE merchant_id = $1 AND phone = $2
		ORDER BY evaluated_at DESC
		LIMIT $3
	`, merchantID, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Assessment
	for rows.Next() {
		var a Assessment
		var factorsJSON []byte
		var evaluatedAt time.Time

		if err := rows.Scan(&a.ID, &a.OrderID, &a.MerchantID, &a.Phone, &a.Score, &a.Level, &factorsJSON, &evaluatedAt); err != nil {
			continue
		}
		a.EvaluatedAt = evaluatedAt
		a.Factors = make(map[string]int)
		_ = json.Unmarshal(factorsJSON, &a.Factors)
		result = append(result, &a)
	}
	return result, nil
}
