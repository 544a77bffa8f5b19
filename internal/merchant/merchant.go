// Package merchant provides multi-merchant scoping for the Codtrack platform.
//
// Every order, blacklist entry, and risk profile belongs to exactly one
// merchant; merchant IDs partition all data and all API routes.
package merchant

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotFound  = errors.New("merchant: not found")
	ErrSlugTaken = errors.New("merchant: slug already taken")
)

// Status represents a merchant's account state.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Settings stores per-merchant risk policy knobs.
type Settings struct {
	// AutoApproveBelow is the risk score under which imported COD orders
	// skip manual review entirely.
	AutoApproveBelow int `json:"autoApproveBelow"`
	// VerificationAbove is the risk score above which imported COD orders
	// require identity verification before approval.
	VerificationAbove int `json:"verificationAbove"`
	// SnapshotIntervalMinutes controls how often customer risk profiles are
	// snapshotted for history charts. 0 uses the server default.
	SnapshotIntervalMinutes int `json:"snapshotIntervalMinutes"`
}

// DefaultSettings mirror the risk level boundaries: low risk auto-approves,
// high risk verifies.
func DefaultSettings() Settings {
	return Settings{
		AutoApproveBelow:  31,
		VerificationAbove: 70,
	}
}

// Merchant represents a shop using the platform.
type Merchant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Status    Status    `json:"status"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
