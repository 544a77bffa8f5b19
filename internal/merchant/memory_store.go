package merchant

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu        sync.RWMutex
	merchants map[string]*Merchant
	bySlug    map[string]string // slug → id
}

// NewMemoryStore creates an in-memory merchant store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		merchants: make(map[string]*Merchant),
		bySlug:    make(map[string]string),
	}
}

func cloneMerchant(m *Merchant) *Merchant {
	c := *m
	return &c
}

func (s *MemoryStore) Create(ctx context.Context, m *Merchant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.bySlug[m.Slug]; taken {
		return ErrSlugTaken
	}
	s.merchants[m.ID] = cloneMerchant(m)
	s.bySlug[m.Slug] = m.ID
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.merchants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneMerchant(m), nil
}

func (s *MemoryStore) GetBySlug(ctx context.Context, slug string) (*Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySlug[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneMerchant(s.merchants[id]), nil
}

func (s *MemoryStore) Update(ctx context.Context, m *Merchant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.merchants[m.ID]
	if !ok {
		return ErrNotFound
	}
	// Slug is immutable after creation.
	c := cloneMerchant(m)
	c.Slug = existing.Slug
	s.merchants[m.ID] = c
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Merchant, 0, len(s.merchants))
	for _, m := range s.merchants {
		result = append(result, cloneMerchant(m))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) ListIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, m := range s.merchants {
		if m.Status == StatusActive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

var _ Store = (*MemoryStore)(nil)
