package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coursedesk/internal/adapters/storage"
	"coursedesk/internal/domain/dates"
	domain "coursedesk/internal/domain/group"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new Group store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectColumns = "id, group_number, course_start_date, course_end_date, status, is_locked, created_at"

// GetByID retrieves a Group by its ID.
// PRE: id is non-empty
// POST: Returns the entity or storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Group, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM course_group WHERE id = ?", id)
	return scanGroup(row.Scan)
}

// GetByStartDate retrieves the Group owning a course start date. The start
// date is the unique business key.
func (s *SQLiteStore) GetByStartDate(ctx context.Context, start time.Time) (domain.Group, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM course_group WHERE course_start_date = ?",
		dates.FormatDate(start))
	return scanGroup(row.Scan)
}

// List retrieves all Groups ordered by course start date.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Group, error) {
	return s.list(ctx, "SELECT "+selectColumns+" FROM course_group ORDER BY course_start_date")
}

// ListByStatus retrieves Groups with the given status ordered by start date.
func (s *SQLiteStore) ListByStatus(ctx context.Context, status string) ([]domain.Group, error) {
	return s.list(ctx,
		"SELECT "+selectColumns+" FROM course_group WHERE status = ? ORDER BY course_start_date", status)
}

// MaxGroupNumber returns the highest assigned group number, or 0 when no
// group has been numbered yet.
func (s *SQLiteStore) MaxGroupNumber(ctx context.Context) (int, error) {
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MAX(group_number) FROM course_group").Scan(&max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64), nil
}

// Save persists a Group to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Group) error {
	var number sql.NullInt64
	if entity.GroupNumber != nil {
		number = sql.NullInt64{Int64: int64(*entity.GroupNumber), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO course_group (id, group_number, course_start_date, course_end_date, status, is_locked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			group_number=excluded.group_number,
			course_start_date=excluded.course_start_date,
			course_end_date=excluded.course_end_date,
			status=excluded.status,
			is_locked=excluded.is_locked`,
		entity.ID, number,
		dates.FormatDate(entity.CourseStartDate), dates.FormatDate(entity.CourseEndDate),
		entity.Status, boolToInt(entity.IsLocked), entity.CreatedAt.Format(time.RFC3339),
	)
	return err
}

// Delete removes a Group from the database.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM course_group WHERE id = ?", id)
	return err
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.Group, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Group
	for rows.Next() {
		entity, err := scanGroup(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanGroup(scan func(dest ...any) error) (domain.Group, error) {
	var entity domain.Group
	var number sql.NullInt64
	var startStr, endStr, createdStr string
	var locked int
	err := scan(&entity.ID, &number, &startStr, &endStr, &entity.Status, &locked, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Group{}, fmt.Errorf("group: %w", storage.ErrNotFound)
	}
	if err != nil {
		return domain.Group{}, err
	}
	if number.Valid {
		n := int(number.Int64)
		entity.GroupNumber = &n
	}
	entity.CourseStartDate, _ = dates.ParseDate(startStr)
	entity.CourseEndDate, _ = dates.ParseDate(endStr)
	entity.IsLocked = locked != 0
	entity.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	return entity, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
