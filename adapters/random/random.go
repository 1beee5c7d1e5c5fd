// Package random provides sources of random key material.
package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/artpar/convreg/ports"
)

// Real reads from crypto/rand.
type Real struct{}

// String returns n random hex characters.
func (Real) String(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("random string length %d must be positive", n)
	}
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b)[:n], nil
}

// Fake returns a predictable sequence. Each call yields the call number
// repeated to length n.
type Fake struct {
	mu    sync.Mutex
	calls int
}

// NewFake returns a fake source starting at call 1.
func NewFake() *Fake {
	return &Fake{}
}

// String returns n hex characters derived from the call count.
func (f *Fake) String(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("random string length %d must be positive", n)
	}
	f.mu.Lock()
	f.calls++
	b := make([]byte, (n+1)/2)
	for i := range b {
		b[i] = byte(f.calls)
	}
	f.mu.Unlock()
	return hex.EncodeToString(b)[:n], nil
}

var (
	_ ports.Random = Real{}
	_ ports.Random = (*Fake)(nil)
)
