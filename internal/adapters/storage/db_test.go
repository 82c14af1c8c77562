package storage

import (
	"database/sql"
	"sort"
	"testing"

	_ "modernc.org/sqlite"
)

// openTestDB creates an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// getTableNames returns sorted table names from sqlite_master, excluding internal tables.
func getTableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan table name: %v", err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TestMigrateDB_CreatesSchema tests that a fresh database ends up with all
// tables at the latest version.
func TestMigrateDB_CreatesSchema(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateDB(db); err != nil {
		t.Fatalf("MigrateDB failed: %v", err)
	}

	got := getTableNames(t, db)
	want := []string{"course_group", "participant", "schema_migrations", "settings"}
	if len(got) != len(want) {
		t.Fatalf("tables = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tables = %v, want %v", got, want)
			break
		}
	}

	var version int
	if err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		t.Fatalf("failed to read version: %v", err)
	}
	if version != LatestSchemaVersion() {
		t.Errorf("schema version = %d, want %d", version, LatestSchemaVersion())
	}
}

// TestMigrateDB_Idempotent tests that re-running migrations changes nothing.
func TestMigrateDB_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateDB(db); err != nil {
		t.Fatalf("first MigrateDB failed: %v", err)
	}
	if err := MigrateDB(db); err != nil {
		t.Fatalf("second MigrateDB failed: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("failed to count migrations: %v", err)
	}
	if count != LatestSchemaVersion() {
		t.Errorf("recorded migrations = %d, want %d", count, LatestSchemaVersion())
	}
}

// TestMigrateDB_UniqueNumberIndex tests that duplicate numbers are rejected
// while multiple number-less participants are allowed.
func TestMigrateDB_UniqueNumberIndex(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateDB(db); err != nil {
		t.Fatalf("MigrateDB failed: %v", err)
	}

	insert := `INSERT INTO participant (id, company_name, person_name, medical_date,
		course_start_date, course_end_date, unique_number, created_at, updated_at)
		VALUES (?, 'c', 'p', '2025-01-15', '2025-01-20', '2025-01-27', ?, 't', 't')`

	if _, err := db.Exec(insert, "p1", "3534-001"); err != nil {
		t.Fatalf("insert p1 failed: %v", err)
	}
	if _, err := db.Exec(insert, "p2", "3534-001"); err == nil {
		t.Error("duplicate unique_number should be rejected")
	}
	if _, err := db.Exec(insert, "p3", nil); err != nil {
		t.Fatalf("insert without number failed: %v", err)
	}
	if _, err := db.Exec(insert, "p4", nil); err != nil {
		t.Fatalf("second insert without number failed: %v", err)
	}
}
