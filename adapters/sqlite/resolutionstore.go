package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/artpar/convreg/ports"
)

// ResolutionStore implements ports.ResolutionStore using SQLite.
type ResolutionStore struct {
	db *DB
}

// NewResolutionStore creates a new resolution audit store.
func NewResolutionStore(db *DB) *ResolutionStore {
	return &ResolutionStore{db: db}
}

// Record stores a resolution.
func (s *ResolutionStore) Record(ctx context.Context, r ports.Resolution) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resolutions (id, selector, outcome, error, duration_us, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Selector, r.Outcome, r.Error, r.Duration.Microseconds(), formatTime(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("record resolution %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns up to limit resolutions, newest first.
func (s *ResolutionStore) Recent(ctx context.Context, limit int) ([]ports.Resolution, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, selector, outcome, error, duration_us, created_at
		FROM resolutions ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query resolutions: %w", err)
	}
	defer rows.Close()

	var result []ports.Resolution
	for rows.Next() {
		var r ports.Resolution
		var micros int64
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Selector, &r.Outcome, &r.Error, &micros, &createdAt); err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		r.Duration = time.Duration(micros) * time.Microsecond
		r.CreatedAt = parseTime(createdAt)
		result = append(result, r)
	}
	return result, rows.Err()
}

var _ ports.ResolutionStore = (*ResolutionStore)(nil)
