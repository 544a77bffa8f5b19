// Package blacklist maintains per-merchant lists of phone numbers flagged as
// high risk.
//
// A blacklist entry is only ever used as a timestamp marker: orders placed by
// the phone after the entry's creation are treated as knowingly-risky trades
// by the risk learning engine. Nothing here blocks an order.
package blacklist

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrNotFound = errors.New("blacklist: not found")
	ErrExists   = errors.New("blacklist: phone already listed")
)

// Entry flags one phone for one merchant.
type Entry struct {
	MerchantID string    `json:"merchantId"`
	Phone      string    `json:"phone"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store persists blacklist entries.
type Store interface {
	Add(ctx context.Context, e *Entry) error
	Remove(ctx context.Context, merchantID, phone string) error
	Get(ctx context.Context, merchantID, phone string) (*Entry, error)
	List(ctx context.Context, merchantID string) ([]*Entry, error)
}
