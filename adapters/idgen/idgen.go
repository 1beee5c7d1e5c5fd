// Package idgen provides ports.IDGenerator implementations.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/artpar/convreg/ports"
	"github.com/google/uuid"
)

// UUID generates prefixed UUIDv4 identifiers, e.g. "res_2b7c...".
type UUID struct {
	Prefix string
}

// New generates a new identifier.
func (g UUID) New() string {
	return g.Prefix + uuid.NewString()
}

var _ ports.IDGenerator = UUID{}

// Sequential generates "<prefix><n>" identifiers with n zero padded to six
// digits, so they sort in generation order. For tests.
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequential creates a sequential ID generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New generates the next sequential ID.
func (s *Sequential) New() string {
	return fmt.Sprintf("%s%06d", s.prefix, s.counter.Add(1))
}

var _ ports.IDGenerator = (*Sequential)(nil)
