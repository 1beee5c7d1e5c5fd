package app

import (
	"context"
	"fmt"

	"github.com/artpar/convreg/domain/selector"
	"github.com/artpar/convreg/ports"
	"github.com/rs/zerolog"
)

// SelectorService manages saved selectors.
type SelectorService struct {
	store    ports.SelectorStore
	resolver *ResolverService
	observer ports.Observer
	clock    ports.Clock
	logger   zerolog.Logger
}

// NewSelectorService creates a new saved selector service. Selector text is
// validated with resolver before it is stored.
func NewSelectorService(store ports.SelectorStore, resolver *ResolverService, observer ports.Observer, clock ports.Clock, logger zerolog.Logger) *SelectorService {
	if observer == nil {
		observer = nopObserver{}
	}
	return &SelectorService{
		store:    store,
		resolver: resolver,
		observer: observer,
		clock:    clock,
		logger:   logger.With().Str("service", "selectors").Logger(),
	}
}

// Get returns the saved selector called name.
func (s *SelectorService) Get(ctx context.Context, name string) (ports.SavedSelector, error) {
	return s.store.Get(ctx, name)
}

// List returns all saved selectors ordered by name.
func (s *SelectorService) List(ctx context.Context) ([]ports.SavedSelector, error) {
	return s.store.List(ctx)
}

// Save validates text by building it and stores its canonical form under
// name. Names of built-in converters cannot be used.
func (s *SelectorService) Save(ctx context.Context, name, text, description string) (ports.SavedSelector, error) {
	parsed, err := selector.ParseName(name)
	if err != nil {
		return ports.SavedSelector{}, fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	if _, ok := s.resolver.Registry().Arity(parsed); ok {
		return ports.SavedSelector{}, fmt.Errorf("%q: %w", name, ErrReservedName)
	}

	sel, err := s.resolver.Check(text)
	if err != nil {
		return ports.SavedSelector{}, err
	}

	now := s.clock.Now()
	saved := ports.SavedSelector{
		Name:        name,
		Selector:    sel.String(),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Save(ctx, saved); err != nil {
		return ports.SavedSelector{}, err
	}
	s.logger.Info().Str("name", name).Str("selector", saved.Selector).Msg("selector saved")
	s.refreshCount(ctx)

	return s.store.Get(ctx, name)
}

// Delete removes the saved selector called name.
func (s *SelectorService) Delete(ctx context.Context, name string) error {
	if err := s.store.Delete(ctx, name); err != nil {
		return err
	}
	s.logger.Info().Str("name", name).Msg("selector deleted")
	s.refreshCount(ctx)
	return nil
}

// Refresh reports the current number of saved selectors to the observer.
func (s *SelectorService) Refresh(ctx context.Context) error {
	all, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	s.observer.SetSavedSelectors(len(all))
	return nil
}

func (s *SelectorService) refreshCount(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to count saved selectors")
	}
}
