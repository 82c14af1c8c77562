package group_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"coursedesk/internal/adapters/storage"
	groupStore "coursedesk/internal/adapters/storage/group"
	domain "coursedesk/internal/domain/group"
)

func openTestStore(t *testing.T) *groupStore.SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return groupStore.NewSQLiteStore(db)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestSQLiteStore_SaveAndGet tests the persistence round trip including the
// nullable group number.
func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	g := domain.New("g1", date(2025, 1, 20), date(2025, 1, 2))
	if err := store.Save(ctx, g); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.GetByID(ctx, "g1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.StatusPlanned || got.GroupNumber != nil {
		t.Errorf("unexpected planned group: %+v", got)
	}
	if !got.CourseStartDate.Equal(date(2025, 1, 20)) || !got.CourseEndDate.Equal(date(2025, 1, 27)) {
		t.Errorf("window = %v..%v, want 2025-01-20..2025-01-27", got.CourseStartDate, got.CourseEndDate)
	}

	if err := g.Promote(7); err != nil {
		t.Fatalf("Promote failed: %v", err)
	}
	if err := store.Save(ctx, g); err != nil {
		t.Fatalf("Save after promote failed: %v", err)
	}
	got, err = store.GetByStartDate(ctx, date(2025, 1, 20))
	if err != nil {
		t.Fatalf("GetByStartDate failed: %v", err)
	}
	if got.GroupNumber == nil || *got.GroupNumber != 7 || got.Status != domain.StatusActive {
		t.Errorf("unexpected active group: %+v", got)
	}
}

// TestSQLiteStore_NotFound tests the sentinel for missing records.
func TestSQLiteStore_NotFound(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetByID error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetByStartDate(ctx, date(2030, 1, 7)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetByStartDate error = %v, want ErrNotFound", err)
	}
}

// TestSQLiteStore_UniqueStartDate tests the business-key constraint.
func TestSQLiteStore_UniqueStartDate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a := domain.New("g1", date(2025, 1, 20), date(2025, 1, 2))
	b := domain.New("g2", date(2025, 1, 20), date(2025, 1, 3))
	if err := store.Save(ctx, a); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, b); err == nil {
		t.Error("second group for the same start date should be rejected")
	}
}

// TestSQLiteStore_ListAndMaxNumber tests ordering and the number watermark.
func TestSQLiteStore_ListAndMaxNumber(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	later := domain.New("g2", date(2025, 1, 27), date(2025, 1, 2))
	earlier := domain.New("g1", date(2025, 1, 20), date(2025, 1, 2))
	if err := earlier.Promote(3); err != nil {
		t.Fatalf("Promote failed: %v", err)
	}
	for _, g := range []domain.Group{later, earlier} {
		if err := store.Save(ctx, g); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != "g1" || all[1].ID != "g2" {
		t.Errorf("List order wrong: %+v", all)
	}

	planned, err := store.ListByStatus(ctx, domain.StatusPlanned)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(planned) != 1 || planned[0].ID != "g2" {
		t.Errorf("ListByStatus(planned) = %+v", planned)
	}

	max, err := store.MaxGroupNumber(ctx)
	if err != nil {
		t.Fatalf("MaxGroupNumber failed: %v", err)
	}
	if max != 3 {
		t.Errorf("MaxGroupNumber = %d, want 3", max)
	}
}
