package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/artpar/convreg/ports"
)

// SelectorStore implements ports.SelectorStore using SQLite.
type SelectorStore struct {
	db *DB
}

// NewSelectorStore creates a new saved selector store.
func NewSelectorStore(db *DB) *SelectorStore {
	return &SelectorStore{db: db}
}

// Get retrieves a saved selector by name.
func (s *SelectorStore) Get(ctx context.Context, name string) (ports.SavedSelector, error) {
	var sel ports.SavedSelector
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT name, selector, description, created_at, updated_at
		FROM saved_selectors WHERE name = ?`,
		name,
	).Scan(&sel.Name, &sel.Selector, &sel.Description, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.SavedSelector{}, fmt.Errorf("saved selector %q: %w", name, ports.ErrNotFound)
	}
	if err != nil {
		return ports.SavedSelector{}, fmt.Errorf("get saved selector %q: %w", name, err)
	}

	sel.CreatedAt = parseTime(createdAt)
	sel.UpdatedAt = parseTime(updatedAt)
	return sel, nil
}

// List returns all saved selectors ordered by name.
func (s *SelectorStore) List(ctx context.Context) ([]ports.SavedSelector, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, selector, description, created_at, updated_at
		FROM saved_selectors ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list saved selectors: %w", err)
	}
	defer rows.Close()

	var result []ports.SavedSelector
	for rows.Next() {
		var sel ports.SavedSelector
		var createdAt, updatedAt string
		if err := rows.Scan(&sel.Name, &sel.Selector, &sel.Description, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan saved selector: %w", err)
		}
		sel.CreatedAt = parseTime(createdAt)
		sel.UpdatedAt = parseTime(updatedAt)
		result = append(result, sel)
	}
	return result, rows.Err()
}

// Save creates or replaces a saved selector. The original creation time is
// kept on replace.
func (s *SelectorStore) Save(ctx context.Context, sel ports.SavedSelector) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_selectors (name, selector, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			selector = excluded.selector,
			description = excluded.description,
			updated_at = excluded.updated_at`,
		sel.Name, sel.Selector, sel.Description, formatTime(sel.CreatedAt), formatTime(sel.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save selector %q: %w", sel.Name, err)
	}
	return nil
}

// Delete removes a saved selector.
func (s *SelectorStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_selectors WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete saved selector %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete saved selector %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("saved selector %q: %w", name, ports.ErrNotFound)
	}
	return nil
}

var _ ports.SelectorStore = (*SelectorStore)(nil)
