// Package hasher hashes and verifies admin keys.
package hasher

import (
	"fmt"

	"github.com/artpar/convreg/ports"
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes keys with bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt hasher. cost must lie within bcrypt's
// MinCost..MaxCost; zero selects bcrypt.DefaultCost.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range %d..%d", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Bcrypt{cost: cost}, nil
}

// Hash returns the bcrypt hash of key.
func (h *Bcrypt) Hash(key string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(key), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether key matches hash. A malformed hash never matches.
func (h *Bcrypt) Compare(hash, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

var _ ports.KeyHasher = (*Bcrypt)(nil)

// Plain stores keys unhashed. Tests only.
type Plain struct{}

// Hash returns key.
func (Plain) Hash(key string) (string, error) { return key, nil }

// Compare checks equality.
func (Plain) Compare(hash, key string) bool { return hash == key }

var _ ports.KeyHasher = Plain{}
