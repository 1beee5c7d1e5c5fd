// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Random produces random key material.
type Random interface {
	// String returns n random hex characters.
	String(n int) (string, error)
}

// KeyHasher hashes admin keys and checks keys against stored hashes.
type KeyHasher interface {
	Hash(key string) (string, error)
	Compare(hash, key string) bool
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// SavedSelector is selector text stored under an alias.
type SavedSelector struct {
	Name        string
	Selector    string // canonical selector text
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SelectorStore persists saved selectors.
type SelectorStore interface {
	// Get retrieves a saved selector by name.
	Get(ctx context.Context, name string) (SavedSelector, error)

	// List returns all saved selectors ordered by name.
	List(ctx context.Context) ([]SavedSelector, error)

	// Save creates or replaces a saved selector.
	Save(ctx context.Context, s SavedSelector) error

	// Delete removes a saved selector.
	Delete(ctx context.Context, name string) error
}

// Resolution is an audit record of one resolution attempt.
type Resolution struct {
	ID        string
	Selector  string // text as supplied
	Outcome   string // "ok" or an error kind
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}

// ResolutionStore persists resolution audit records.
type ResolutionStore interface {
	// Record stores a resolution.
	Record(ctx context.Context, r Resolution) error

	// Recent returns up to limit resolutions, newest first.
	Recent(ctx context.Context, limit int) ([]Resolution, error)
}

// -----------------------------------------------------------------------------
// Observability Ports
// -----------------------------------------------------------------------------

// Observer receives resolution and conversion measurements.
type Observer interface {
	// ObserveResolution records one resolution attempt.
	ObserveResolution(outcome string, d time.Duration)

	// ObserveConversion records one conversion attempt.
	ObserveConversion(target, outcome string)

	// SetSavedSelectors reports the number of saved selectors.
	SetSavedSelectors(n int)
}
