package customer

import (
	"context"
	"sync"
)

// MemorySnapshotStore is an in-memory SnapshotStore for demo/test use.
type MemorySnapshotStore struct {
	mu     sync.RWMutex
	snaps  []*Snapshot
	nextID int
}

// NewMemorySnapshotStore creates an in-memory snapshot store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{nextID: 1}
}

func (s *MemorySnapshotStore) SaveBatch(ctx context.Context, snaps []*Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range snaps {
		cp := *snap
		cp.ID = s.nextID
		s.nextID++
		s.snaps = append(s.snaps, &cp)
	}
	return nil
}

func (s *MemorySnapshotStore) Query(ctx context.Context, q HistoryQuery) ([]*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	// Newest first.
	var result []*Snapshot
	for i := len(s.snaps) - 1; i >= 0 && len(result) < limit; i-- {
		snap := s.snaps[i]
		if snap.MerchantID != q.MerchantID || snap.Phone != q.Phone {
			continue
		}
		if !q.From.IsZero() && snap.CreatedAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && snap.CreatedAt.After(q.To) {
			continue
		}
		cp := *snap
		result = append(result, &cp)
	}
	return result, nil
}
