package merchant

import "context"

// Store persists merchants.
type Store interface {
	Create(ctx context.Context, m *Merchant) error
	Get(ctx context.Context, id string) (*Merchant, error)
	GetBySlug(ctx context.Context, slug string) (*Merchant, error)
	Update(ctx context.Context, m *Merchant) error
	List(ctx context.Context) ([]*Merchant, error)
	// ListIDs returns the IDs of all active merchants. Used by the customer
	// risk snapshot worker.
	ListIDs(ctx context.Context) ([]string, error)
}
