package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotFound is returned by store lookups when the requested record does
// not exist.
var ErrNotFound = errors.New("storage: not found")

// SQLDB is the database interface used by all stores. Both *sql.DB and
// *TimedDB satisfy it.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Compile-time check that *sql.DB satisfies SQLDB.
var _ SQLDB = (*sql.DB)(nil)

// migration is one linear schema step. Steps are applied in order inside a
// transaction and recorded in schema_migrations; running MigrateDB again is
// a no-op.
type migration struct {
	version int
	ddl     string
}

var migrations = []migration{
	{
		version: 1,
		ddl: `
	CREATE TABLE IF NOT EXISTS course_group (
		id TEXT PRIMARY KEY,
		group_number INTEGER,
		course_start_date TEXT NOT NULL UNIQUE,
		course_end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		is_locked INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS participant (
		id TEXT PRIMARY KEY,
		company_name TEXT NOT NULL,
		person_name TEXT NOT NULL,
		national_id TEXT NOT NULL DEFAULT '',
		medical_date TEXT NOT NULL,
		course_start_date TEXT NOT NULL,
		course_end_date TEXT NOT NULL,
		unique_number TEXT,
		sent INTEGER NOT NULL DEFAULT 0,
		documents INTEGER NOT NULL DEFAULT 0,
		handed_over INTEGER NOT NULL DEFAULT 0,
		paid INTEGER NOT NULL DEFAULT 0,
		completed_override INTEGER,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		number_prefix TEXT NOT NULL,
		last_sequence INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);
	`,
	},
	{
		version: 2,
		ddl: `
	CREATE UNIQUE INDEX IF NOT EXISTS idx_participant_unique_number
		ON participant(unique_number) WHERE unique_number IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_participant_course_start
		ON participant(course_start_date);
	CREATE INDEX IF NOT EXISTS idx_course_group_status
		ON course_group(status);
	`,
	},
}

// LatestSchemaVersion returns the schema version this build migrates to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// MigrateDB brings the schema up to the latest version.
// PRE: db is a valid connection with pragmas applied via the DSN
// POST: schema_migrations records every applied version; reruns are no-ops
func MigrateDB(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if current.Valid && m.version <= int(current.Int64) {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.ddl); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
		slog.Info("schema_migrated", "version", m.version)
	}
	return nil
}
