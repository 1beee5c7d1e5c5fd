// Package memory provides in-memory implementations of the storage ports,
// used when no database is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/artpar/convreg/ports"
)

// SelectorStore is an in-memory implementation of ports.SelectorStore.
type SelectorStore struct {
	mu        sync.RWMutex
	selectors map[string]ports.SavedSelector // by name
}

// NewSelectorStore creates a new in-memory saved selector store.
func NewSelectorStore() *SelectorStore {
	return &SelectorStore{
		selectors: make(map[string]ports.SavedSelector),
	}
}

// Get retrieves a saved selector by name.
func (s *SelectorStore) Get(ctx context.Context, name string) (ports.SavedSelector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sel, ok := s.selectors[name]
	if !ok {
		return ports.SavedSelector{}, fmt.Errorf("saved selector %q: %w", name, ports.ErrNotFound)
	}
	return sel, nil
}

// List returns all saved selectors ordered by name.
func (s *SelectorStore) List(ctx context.Context) ([]ports.SavedSelector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ports.SavedSelector, 0, len(s.selectors))
	for _, sel := range s.selectors {
		result = append(result, sel)
	}
	slices.SortFunc(result, func(a, b ports.SavedSelector) int { return strings.Compare(a.Name, b.Name) })
	return result, nil
}

// Save creates or replaces a saved selector, keeping the original creation
// time on replace.
func (s *SelectorStore) Save(ctx context.Context, sel ports.SavedSelector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.selectors[sel.Name]; ok {
		sel.CreatedAt = existing.CreatedAt
	}
	s.selectors[sel.Name] = sel
	return nil
}

// Delete removes a saved selector.
func (s *SelectorStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.selectors[name]; !ok {
		return fmt.Errorf("saved selector %q: %w", name, ports.ErrNotFound)
	}
	delete(s.selectors, name)
	return nil
}

var _ ports.SelectorStore = (*SelectorStore)(nil)
