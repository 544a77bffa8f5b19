package customer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresSnapshotStore persists risk snapshots in PostgreSQL.
type PostgresSnapshotStore struct {
	db *sql.DB
}

// NewPostgresSnapshotStore creates a PostgreSQL-backed snapshot store.
func NewPostgresSnapshotStore(db *sql.DB) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{db: db}
}

// Migrate creates the customer_risk_snapshots table if it doesn't exist.
func (s *PostgresSnapshotStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS customer_risk_snapshots (
			id             SERIAL PRIMARY KEY,
			merchant_id    VARCHAR(40) NOT NULL,
			phone          VARCHAR(32) NOT NULL,
			score          INT NOT NULL CHECK (score >= 0 AND score <= 100),
			level          VARCHAR(10) NOT NULL,
			base_score     INT NOT NULL,
			total_orders   INT NOT NULL,
			success_orders INT NOT NULL,
			failed_orders  INT NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_risk_snapshots_phone
			ON customer_risk_snapshots (merchant_id, phone, created_at DESC);
	`)
	return err
}

func (s *PostgresSnapshotStore) SaveBatch(ctx context.Context, snaps []*Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("customer_risk_snapshots",
		"merchant_id", "phone", "score", "level", "base_score",
		"total_orders", "success_orders", "failed_orders", "created_at"))
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot copy: %w", err)
	}

	for _, snap := range snaps {
		if _, err := stmt.ExecContext(ctx,
			snap.MerchantID, snap.Phone, snap.Score, string(snap.Level), snap.BaseScore,
			snap.TotalOrders, snap.SuccessOrders, snap.FailedOrders, snap.CreatedAt,
		); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("failed to buffer snapshot: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("failed to flush snapshot copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot copy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot batch: %w", err)
	}
	return nil
}

func (s *PostgresSnapshotStore) Query(ctx context.Context, q HistoryQuery) ([]*Snapshot, error) {
	query := `
		SELECT id, merchant_id, phone, score, level, base_score,
		       total_orders, success_orders, failed_orders, created_at
		FROM customer_risk_snapshots
		WHERE merchant_id = $1 AND phone = $2`
	args := []any{q.MerchantID, q.Phone}

	if !q.From.IsZero() {
		args = append(args, q.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !q.To.IsZero() {
		args = append(args, q.To)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.MerchantID, &snap.Phone, &snap.Score, &snap.Level,
			&snap.BaseScore, &snap.TotalOrders, &snap.SuccessOrders, &snap.FailedOrders,
			&snap.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &snap)
	}
	return result, rows.Err()
}
