package participant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coursedesk/internal/adapters/storage"
	"coursedesk/internal/domain/dates"
	domain "coursedesk/internal/domain/participant"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new Participant store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectColumns = `id, company_name, person_name, national_id, medical_date,
	course_start_date, course_end_date, unique_number,
	sent, documents, handed_over, paid, completed_override,
	created_at, updated_at, completed_at`

// GetByID retrieves a Participant by its ID.
// PRE: id is non-empty
// POST: Returns the entity or storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Participant, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM participant WHERE id = ?", id)
	return scanParticipant(row.Scan)
}

// GetByUniqueNumber retrieves the Participant holding the given number.
func (s *SQLiteStore) GetByUniqueNumber(ctx context.Context, number string) (domain.Participant, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM participant WHERE unique_number = ?", number)
	return scanParticipant(row.Scan)
}

// List retrieves all Participants ordered by course start, then creation.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Participant, error) {
	return s.list(ctx,
		"SELECT "+selectColumns+" FROM participant ORDER BY course_start_date, created_at")
}

// ListByCourseStartDate retrieves the Participants assigned to a course
// window, in creation order. Promotion backfills numbers in this order.
func (s *SQLiteStore) ListByCourseStartDate(ctx context.Context, start time.Time) ([]domain.Participant, error) {
	return s.list(ctx,
		"SELECT "+selectColumns+" FROM participant WHERE course_start_date = ? ORDER BY created_at",
		dates.FormatDate(start))
}

// ListUniqueNumbers returns every issued unique number. The allocator scans
// this set; it is the source of truth, not the settings cache.
func (s *SQLiteStore) ListUniqueNumbers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT unique_number FROM participant WHERE unique_number IS NOT NULL ORDER BY unique_number")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

// Save persists a Participant to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Participant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participant (id, company_name, person_name, national_id, medical_date,
			course_start_date, course_end_date, unique_number,
			sent, documents, handed_over, paid, completed_override,
			created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_name=excluded.company_name,
			person_name=excluded.person_name,
			national_id=excluded.national_id,
			medical_date=excluded.medical_date,
			course_start_date=excluded.course_start_date,
			course_end_date=excluded.course_end_date,
			unique_number=excluded.unique_number,
			sent=excluded.sent,
			documents=excluded.documents,
			handed_over=excluded.handed_over,
			paid=excluded.paid,
			completed_override=excluded.completed_override,
			updated_at=excluded.updated_at,
			completed_at=excluded.completed_at`,
		entity.ID, entity.CompanyName, entity.PersonName, entity.NationalID,
		dates.FormatDate(entity.MedicalDate),
		dates.FormatDate(entity.CourseStartDate), dates.FormatDate(entity.CourseEndDate),
		nullableString(entity.UniqueNumber),
		boolToInt(entity.Sent), boolToInt(entity.Documents),
		boolToInt(entity.HandedOver), boolToInt(entity.Paid),
		nullableBool(entity.CompletedOverride),
		entity.CreatedAt.Format(time.RFC3339), entity.UpdatedAt.Format(time.RFC3339),
		nullableTime(entity.CompletedAt),
	)
	return err
}

// Delete removes a Participant from the database.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM participant WHERE id = ?", id)
	return err
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.Participant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Participant
	for rows.Next() {
		entity, err := scanParticipant(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanParticipant(scan func(dest ...any) error) (domain.Participant, error) {
	var entity domain.Participant
	var medStr, startStr, endStr, createdStr, updatedStr string
	var number sql.NullString
	var sent, documents, handedOver, paid int
	var override sql.NullInt64
	var completedStr sql.NullString

	err := scan(&entity.ID, &entity.CompanyName, &entity.PersonName, &entity.NationalID,
		&medStr, &startStr, &endStr, &number,
		&sent, &documents, &handedOver, &paid, &override,
		&createdStr, &updatedStr, &completedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Participant{}, fmt.Errorf("participant: %w", storage.ErrNotFound)
	}
	if err != nil {
		return domain.Participant{}, err
	}

	entity.MedicalDate, _ = dates.ParseDate(medStr)
	entity.CourseStartDate, _ = dates.ParseDate(startStr)
	entity.CourseEndDate, _ = dates.ParseDate(endStr)
	entity.UniqueNumber = number.String
	entity.Sent = sent != 0
	entity.Documents = documents != 0
	entity.HandedOver = handedOver != 0
	entity.Paid = paid != 0
	if override.Valid {
		b := override.Int64 != 0
		entity.CompletedOverride = &b
	}
	entity.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	entity.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
	if completedStr.Valid && completedStr.String != "" {
		done, err := time.Parse(time.RFC3339, completedStr.String)
		if err == nil {
			entity.CompletedAt = &done
		}
	}
	return entity, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}
	return boolToInt(*b)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
