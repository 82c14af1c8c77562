package backup

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"coursedesk/internal/adapters/storage"
	"coursedesk/internal/domain/dates"
	groupDomain "coursedesk/internal/domain/group"
	participantDomain "coursedesk/internal/domain/participant"
	settingsDomain "coursedesk/internal/domain/settings"
)

// SQLiteStore implements Store using a single SQLite transaction.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new backup import store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Replace swaps the local dataset for the imported one.
// PRE: records have passed payload migration and conversion
// POST: On success the store holds exactly the imported data; on any error
// the transaction is rolled back and nothing changes
func (s *SQLiteStore) Replace(ctx context.Context,
	groups []groupDomain.Group,
	participants []participantDomain.Participant,
	settings settingsDomain.Settings) error {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM participant"); err != nil {
		return fmt.Errorf("clear participants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM course_group"); err != nil {
		return fmt.Errorf("clear groups: %w", err)
	}

	for _, g := range groups {
		var number sql.NullInt64
		if g.GroupNumber != nil {
			number = sql.NullInt64{Int64: int64(*g.GroupNumber), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO course_group (id, group_number, course_start_date, course_end_date, status, is_locked, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			g.ID, number,
			dates.FormatDate(g.CourseStartDate), dates.FormatDate(g.CourseEndDate),
			g.Status, boolToInt(g.IsLocked), g.CreatedAt.Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("import group %s: %w", g.ID, err)
		}
	}

	for _, p := range participants {
		var number any
		if p.UniqueNumber != "" {
			number = p.UniqueNumber
		}
		var override any
		if p.CompletedOverride != nil {
			override = boolToInt(*p.CompletedOverride)
		}
		var completedAt any
		if p.CompletedAt != nil {
			completedAt = p.CompletedAt.Format(time.RFC3339)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO participant (id, company_name, person_name, national_id, medical_date,
				course_start_date, course_end_date, unique_number,
				sent, documents, handed_over, paid, completed_override,
				created_at, updated_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.CompanyName, p.PersonName, p.NationalID,
			dates.FormatDate(p.MedicalDate),
			dates.FormatDate(p.CourseStartDate), dates.FormatDate(p.CourseEndDate),
			number,
			boolToInt(p.Sent), boolToInt(p.Documents), boolToInt(p.HandedOver), boolToInt(p.Paid),
			override,
			p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339), completedAt,
		); err != nil {
			return fmt.Errorf("import participant %s: %w", p.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO settings (id, number_prefix, last_sequence, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number_prefix=excluded.number_prefix,
			last_sequence=excluded.last_sequence,
			updated_at=excluded.updated_at`,
		settings.NumberPrefix, settings.LastSequence, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("import settings: %w", err)
	}

	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
