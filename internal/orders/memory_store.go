package orders

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]*Order // id → order
}

// NewMemoryStore creates an in-memory order store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]*Order)}
}

func cloneOrder(o *Order) *Order {
	c := *o
	return &c
}

func (s *MemoryStore) Create(ctx context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, merchantID, id string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok || o.MerchantID != merchantID {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *MemoryStore) List(ctx context.Context, q ListQuery) ([]*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Order
	for _, o := range s.orders {
		if o.MerchantID != q.MerchantID {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		if !q.From.IsZero() && o.CreatedAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && o.CreatedAt.After(q.To) {
			continue
		}
		result = append(result, cloneOrder(o))
	}

	// Newest first, id as tiebreaker to keep cursor pages stable.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	if q.Cursor != nil {
		idx := 0
		for idx < len(result) {
			o := result[idx]
			if o.CreatedAt.Before(q.Cursor.CreatedAt) ||
				(o.CreatedAt.Equal(q.Cursor.CreatedAt) && o.ID > q.Cursor.ID) {
				break
			}
			idx++
		}
		result = result[idx:]
	}

	if q.Limit > 0 && len(result) > q.Limit+1 {
		result = result[:q.Limit+1] // limit+1 so the caller can derive has_more
	}
	return result, nil
}

func (s *MemoryStore) ListRange(ctx context.Context, merchantID string, from, to time.Time) ([]*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Order
	for _, o := range s.orders {
		if o.MerchantID != merchantID {
			continue
		}
		d := o.BusinessDate()
		if d.Before(from) || d.After(to) {
			continue
		}
		result = append(result, cloneOrder(o))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].BusinessDate().Before(result[j].BusinessDate())
	})
	return result, nil
}

func (s *MemoryStore) ListByPhone(ctx context.Context, merchantID, phone string) ([]*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Order
	for _, o := range s.orders {
		if o.MerchantID == merchantID && o.Phone == phone && o.Phone != "" {
			result = append(result, cloneOrder(o))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].BusinessDate().Before(result[j].BusinessDate())
	})
	return result, nil
}

func (s *MemoryStore) ListPhones(ctx context.Context, merchantID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, o := range s.orders {
		if o.MerchantID == merchantID && strings.TrimSpace(o.Phone) != "" {
			seen[o.Phone] = true
		}
	}
	phones := make([]string, 0, len(seen))
	for p := range seen {
		phones = append(phones, p)
	}
	sort.Strings(phones)
	return phones, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, merchantID, id string, expect Status, upd StatusUpdate) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok || o.MerchantID != merchantID {
		return nil, ErrNotFound
	}
	if o.Status != expect {
		return nil, ErrStatusConflict
	}
	applyStatusUpdate(o, upd)
	return cloneOrder(o), nil
}

func (s *MemoryStore) RecordPayment(ctx context.Context, merchantID, id string, paidAt time.Time) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok || o.MerchantID != merchantID {
		return nil, ErrNotFound
	}
	if o.PaidAt == nil {
		t := paidAt
		o.PaidAt = &t
	}
	return cloneOrder(o), nil
}

func (s *MemoryStore) RecordRefund(ctx context.Context, merchantID, id string, amount int64) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok || o.MerchantID != merchantID {
		return nil, ErrNotFound
	}
	o.RefundedAmount += amount
	return cloneOrder(o), nil
}
