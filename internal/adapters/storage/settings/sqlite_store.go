package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coursedesk/internal/adapters/storage"
	domain "coursedesk/internal/domain/settings"
)

// SQLiteStore implements Store using SQLite. The settings table holds a
// single row with id 1.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new Settings store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get retrieves the Settings singleton.
// POST: Returns the row or storage.ErrNotFound when never seeded
func (s *SQLiteStore) Get(ctx context.Context) (domain.Settings, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT number_prefix, last_sequence, updated_at FROM settings WHERE id = 1")
	var entity domain.Settings
	var updatedStr string
	err := row.Scan(&entity.NumberPrefix, &entity.LastSequence, &updatedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Settings{}, fmt.Errorf("settings: %w", storage.ErrNotFound)
	}
	if err != nil {
		return domain.Settings{}, err
	}
	entity.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
	return entity, nil
}

// Save persists the Settings singleton.
// PRE: entity has been validated
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, number_prefix, last_sequence, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number_prefix=excluded.number_prefix,
			last_sequence=excluded.last_sequence,
			updated_at=excluded.updated_at`,
		entity.NumberPrefix, entity.LastSequence, entity.UpdatedAt.Format(time.RFC3339),
	)
	return err
}
