package idgen_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/artpar/convreg/adapters/idgen"
	"github.com/google/uuid"
)

func TestUUID_New(t *testing.T) {
	g := idgen.UUID{Prefix: "res_"}

	id := g.New()
	if !strings.HasPrefix(id, "res_") {
		t.Fatalf("ID %s missing prefix", id)
	}
	parsed, err := uuid.Parse(strings.TrimPrefix(id, "res_"))
	if err != nil {
		t.Fatalf("ID %s is not a UUID: %v", id, err)
	}
	if parsed.Version() != 4 {
		t.Errorf("version = %d, want 4", parsed.Version())
	}
}

func TestUUID_Unique(t *testing.T) {
	g := idgen.UUID{}
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.New()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestSequential_New(t *testing.T) {
	g := idgen.NewSequential("res_")

	for _, want := range []string{"res_000001", "res_000002", "res_000003"} {
		if got := g.New(); got != want {
			t.Errorf("New() = %s, want %s", got, want)
		}
	}
}

func TestSequential_Concurrent(t *testing.T) {
	g := idgen.NewSequential("")

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := g.New()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 1000 {
		t.Errorf("expected 1000 unique IDs, got %d", len(seen))
	}
}
