package orders

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore persists orders in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed order store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the orders table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id                    VARCHAR(40) PRIMARY KEY,
			merchant_id           VARCHAR(40) NOT NULL,
			code                  VARCHAR(64) NOT NULL DEFAULT '',
			phone                 VARCHAR(32) NOT NULL DEFAULT '',
			customer_name         VARCHAR(255) NOT NULL DEFAULT '',
			amount                BIGINT NOT NULL DEFAULT 0,
			discount_amount       BIGINT NOT NULL DEFAULT 0,
			shipping_fee          BIGINT NOT NULL DEFAULT 0,
			customer_shipping_fee BIGINT NOT NULL DEFAULT 0,
			seller_shipping_fee   BIGINT NOT NULL DEFAULT 0,
			refunded_amount       BIGINT NOT NULL DEFAULT 0,
			payment_method        VARCHAR(32) NOT NULL DEFAULT '',
			status                VARCHAR(32) NOT NULL,
			risk_score            INT CHECK (risk_score >= 0 AND risk_score <= 100),
			province              VARCHAR(128) NOT NULL DEFAULT '',
			district              VARCHAR(128) NOT NULL DEFAULT '',
			ward                  VARCHAR(128) NOT NULL DEFAULT '',
			product               VARCHAR(255) NOT NULL DEFAULT '',
			channel               VARCHAR(64) NOT NULL DEFAULT '',
			source                VARCHAR(64) NOT NULL DEFAULT '',
			created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			order_date            TIMESTAMPTZ NOT NULL,
			confirmation_sent_at  TIMESTAMPTZ,
			customer_confirmed_at TIMESTAMPTZ,
			paid_at               TIMESTAMPTZ,
			shipped_at            TIMESTAMPTZ,
			cancelled_at          TIMESTAMPTZ,
			cancel_reason         TEXT NOT NULL DEFAULT '',
			reject_reason         TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_orders_merchant_created
			ON orders (merchant_id, created_at DESC, id);

		CREATE INDEX IF NOT EXISTS idx_orders_merchant_date
			ON orders (merchant_id, order_date);

		CREATE INDEX IF NOT EXISTS idx_orders_merchant_phone
			ON orders (merchant_id, phone) WHERE phone <> '';
	`)
	return err
}

const orderColumns = `id, merchant_id, code, phone, customer_name,
	amount, discount_amount, shipping_fee, customer_shipping_fee, seller_shipping_fee,
	refunded_amount, payment_method, status, risk_score,
	province, district, ward, product, channel, source,
	created_at, order_date, confirmation_sent_at, customer_confirmed_at,
	paid_at, shipped_at, cancelled_at, cancel_reason, reject_reason`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var riskScore sql.NullInt64
	var confirmationSent, customerConfirmed, paidAt, shippedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&o.ID, &o.MerchantID, &o.Code, &o.Phone, &o.CustomerName,
		&o.Amount, &o.DiscountAmount, &o.ShippingFee, &o.CustomerShippingFee, &o.SellerShippingFee,
		&o.RefundedAmount, &o.PaymentMethod, &o.Status, &riskScore,
		&o.Province, &o.District, &o.Ward, &o.Product, &o.Channel, &o.Source,
		&o.CreatedAt, &o.OrderDate, &confirmationSent, &customerConfirmed,
		&paidAt, &shippedAt, &cancelledAt, &o.CancelReason, &o.RejectReason,
	)
	if err != nil {
		return nil, err
	}
	if riskScore.Valid {
		score := int(riskScore.Int64)
		o.RiskScore = &score
	}
	o.ConfirmationSentAt = nullableTime(confirmationSent)
	o.CustomerConfirmedAt = nullableTime(customerConfirmed)
	o.PaidAt = nullableTime(paidAt)
	o.ShippedAt = nullableTime(shippedAt)
	o.CancelledAt = nullableTime(cancelledAt)
	return &o, nil
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (s *PostgresStore) Create(ctx context.Context, o *Order) error {
	var riskScore sql.NullInt64
	if o.RiskScore != nil {
		riskScore = sql.NullInt64{Int64: int64(*o.RiskScore), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)
	`,
		o.ID, o.MerchantID, o.Code, o.Phone, o.CustomerName,
		o.Amount, o.DiscountAmount, o.ShippingFee, o.CustomerShippingFee, o.SellerShippingFee,
		o.RefundedAmount, o.PaymentMethod, string(o.Status), riskScore,
		o.Province, o.District, o.Ward, o.Product, o.Channel, o.Source,
		o.CreatedAt, o.OrderDate, o.ConfirmationSentAt, o.CustomerConfirmedAt,
		o.PaidAt, o.ShippedAt, o.CancelledAt, o.CancelReason, o.RejectReason,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, merchantID, id string) (*Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1 AND merchant_id = $2
	`, id, merchantID)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) List(ctx context.Context, q ListQuery) ([]*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE merchant_id = $1`
	args := []any{q.MerchantID}

	if q.Status != "" {
		args = append(args, string(q.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !q.From.IsZero() {
		args = append(args, q.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !q.To.IsZero() {
		args = append(args, q.To)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	if q.Cursor != nil {
		args = append(args, q.Cursor.CreatedAt, q.Cursor.ID)
		// Ordering is created_at DESC, id ASC; "after the cursor" means older,
		// or same timestamp with a larger id.
		query += fmt.Sprintf(" AND (created_at < $%d OR (created_at = $%d AND id > $%d))",
			len(args)-1, len(args)-1, len(args))
	}
	query += " ORDER BY created_at DESC, id"
	if q.Limit > 0 {
		args = append(args, q.Limit+1) // limit+1 so the caller can derive has_more
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return s.queryOrders(ctx, query, args...)
}

func (s *PostgresStore) ListRange(ctx context.Context, merchantID string, from, to time.Time) ([]*Order, error) {
	return s.queryOrders(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE merchant_id = $1 AND order_date >= $2 AND order_date <= $3
		ORDER BY order_date
	`, merchantID, from, to)
}

func (s *PostgresStore) ListByPhone(ctx context.Context, merchantID, phone string) ([]*Order, error) {
	return s.queryOrders(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE merchant_id = $1 AND phone = $2 AND phone <> ''
		ORDER BY order_date
	`, merchantID, phone)
}

func (s *PostgresStore) ListPhones(ctx context.Context, merchantID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT phone FROM orders
		WHERE merchant_id = $1 AND phone <> ''
		ORDER BY phone
	`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list phones: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var phones []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		phones = append(phones, p)
	}
	return phones, rows.Err()
}

// UpdateStatus performs the read-validate-write sequence under a row lock so a
// concurrent writer cannot slip between the status check and the update.
func (s *PostgresStore) UpdateStatus(ctx context.Context, merchantID, id string, expect Status, upd StatusUpdate) (*Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE id = $1 AND merchant_id = $2
		FOR UPDATE
	`, id, merchantID)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	if o.Status != expect {
		return nil, ErrStatusConflict
	}

	applyStatusUpdate(o, upd)

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET
			status = $3,
			confirmation_sent_at = $4,
			customer_confirmed_at = $5,
			paid_at = $6,
			shipped_at = $7,
			cancelled_at = $8,
			cancel_reason = $9,
			reject_reason = $10
		WHERE id = $1 AND merchant_id = $2
	`, id, merchantID, string(o.Status),
		o.ConfirmationSentAt, o.CustomerConfirmedAt, o.PaidAt, o.ShippedAt,
		o.CancelledAt, o.CancelReason, o.RejectReason)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) RecordPayment(ctx context.Context, merchantID, id string, paidAt time.Time) (*Order, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders SET paid_at = COALESCE(paid_at, $3)
		WHERE id = $1 AND merchant_id = $2
	`, id, merchantID, paidAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	return s.Get(ctx, merchantID, id)
}

func (s *PostgresStore) RecordRefund(ctx context.Context, merchantID, id string, amount int64) (*Order, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders SET refunded_amount = refunded_amount + $3
		WHERE id = $1 AND merchant_id = $2
	`, id, merchantID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to record refund: %w", err)
	}
	return s.Get(ctx, merchantID, id)
}

func (s *PostgresStore) queryOrders(ctx context.Context, query string, args ...any) ([]*Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}
