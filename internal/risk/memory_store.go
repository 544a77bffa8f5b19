package risk

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu          sync.RWMutex
	assessments map[string][]*Assessment // merchantID+"|"+phone → assessments
}

// NewMemoryStore creates an in-memory assessment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{assessments: make(map[string][]*Assessment)}
}

func assessmentKey(merchantID, phone string) string { return merchantID + "|" + phone }

func (s *MemoryStore) Record(ctx context.Context, a *Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	factors := make(map[string]int, len(a.Factors))
	for k, v := range a.Factors {
		factors[k] = v
	}
	cp := *a
	cp.Factors = factors

	key := assessmentKey(a.MerchantID, a.Phone)
	s.assessments[key] = append(s.assessments[key], &cp)
	return nil
}

func (s *MemoryStore) ListByPhone(ctx context.Context, merchantID, phone string, limit int) ([]*Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.assessments[assessmentKey(merchantID, phone)]
	if len(all) == 0 {
		return nil, nil
	}

	start := len(all) - limit
	if start < 0 {
		start = 0
	}

	// Most recent first.
	result := make([]*Assessment, 0, len(all)-start)
	for i := len(all) - 1; i >= start; i-- {
		cp := *all[i]
		factors := make(map[string]int, len(cp.Factors))
		for k, v := range cp.Factors {
			factors[k] = v
		}
		cp.Factors = factors
		result = append(result, &cp)
	}
	return result, nil
}
