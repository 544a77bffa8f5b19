package blacklist

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry // merchantID+"|"+phone → entry
}

// NewMemoryStore creates an in-memory blacklist store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

func key(merchantID, phone string) string { return merchantID + "|" + phone }

func (s *MemoryStore) Add(ctx context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(e.MerchantID, e.Phone)
	if _, ok := s.entries[k]; ok {
		return ErrExists
	}
	cp := *e
	s.entries[k] = &cp
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, merchantID, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(merchantID, phone)
	if _, ok := s.entries[k]; !ok {
		return ErrNotFound
	}
	delete(s.entries, k)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, merchantID, phone string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key(merchantID, phone)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) List(ctx context.Context, merchantID string) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Entry
	for _, e := range s.entries {
		if e.MerchantID == merchantID {
			cp := *e
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
