package memory

import (
	"context"
	"sync"

	"github.com/artpar/convreg/ports"
)

// DefaultResolutionCapacity bounds the in-memory audit log.
const DefaultResolutionCapacity = 1000

// ResolutionStore keeps the most recent resolutions in a ring buffer.
type ResolutionStore struct {
	mu   sync.Mutex
	ring []ports.Resolution
	next int
	full bool
}

// NewResolutionStore creates a store holding at most capacity records.
// A non-positive capacity selects DefaultResolutionCapacity.
func NewResolutionStore(capacity int) *ResolutionStore {
	if capacity <= 0 {
		capacity = DefaultResolutionCapacity
	}
	return &ResolutionStore{ring: make([]ports.Resolution, capacity)}
}

// Record stores a resolution, evicting the oldest when full.
func (s *ResolutionStore) Record(ctx context.Context, r ports.Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ring[s.next] = r
	s.next = (s.next + 1) % len(s.ring)
	if s.next == 0 {
		s.full = true
	}
	return nil
}

// Recent returns up to limit resolutions, newest first.
func (s *ResolutionStore) Recent(ctx context.Context, limit int) ([]ports.Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := s.next
	if s.full {
		size = len(s.ring)
	}
	limit = min(limit, size)
	if limit <= 0 {
		return nil, nil
	}

	result := make([]ports.Resolution, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (s.next - i + len(s.ring)) % len(s.ring)
		result = append(result, s.ring[idx])
	}
	return result, nil
}

var _ ports.ResolutionStore = (*ResolutionStore)(nil)
