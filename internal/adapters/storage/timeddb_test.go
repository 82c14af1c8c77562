package storage

import (
	"context"
	"testing"
	"time"

	"coursedesk/internal/adapters/http/perf"
)

func TestTimedDBRecordsQueryTimings(t *testing.T) {
	collector := perf.NewCollector(16)
	tdb := NewTimedDB(openTestDB(t), collector)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT id FROM t")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	rows.Close()

	if got := collector.TotalRecorded(); got != 2 {
		t.Fatalf("expected 2 recorded timings, got %d", got)
	}
	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestQueries) != 2 {
		t.Fatalf("expected ExecContext and QueryContext aggregated as queries, got %+v", snap.SlowestQueries)
	}
	if len(snap.SlowestRoutes) != 0 {
		t.Errorf("expected no request entries, got %+v", snap.SlowestRoutes)
	}
}

func TestTimedDBNilCollector(t *testing.T) {
	tdb := NewTimedDB(openTestDB(t), nil)
	if _, err := tdb.ExecContext(context.Background(), "CREATE TABLE t (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("exec failed: %v", err)
	}
}

func TestTimedDBSatisfiesStoreInterface(t *testing.T) {
	tdb := NewTimedDB(openTestDB(t), nil)
	if err := MigrateDB(tdb.RawDB()); err != nil {
		t.Fatalf("migrate through wrapped db failed: %v", err)
	}
	row := tdb.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM schema_migrations")
	var n int
	if err := row.Scan(&n); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if n == 0 {
		t.Error("expected recorded migrations")
	}
}
