package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/contentpro/ideagate/domain/entitlement"
	"github.com/contentpro/ideagate/ports"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate error: %v", err)
	}
}

func TestUserStoreCRUD(t *testing.T) {
	store := NewUserStore(testDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	if _, err := store.Get(ctx, "42"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get missing: error = %v, want ErrNotFound", err)
	}

	rec := entitlement.NewRecord("42", now)
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := store.Create(ctx, rec); !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("duplicate Create: error = %v, want ErrDuplicate", err)
	}

	got, err := store.Get(ctx, "42")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.UserID != "42" || got.FreeUsedToday != 0 || got.IsPaid || got.PaidUntil != nil {
		t.Errorf("got = %+v", got)
	}
	if !got.LastResetDate.Equal(entitlement.DateOf(now)) {
		t.Errorf("LastResetDate = %v, want %v", got.LastResetDate, entitlement.DateOf(now))
	}

	rec = entitlement.RecordFreeUsage(rec, now)
	rec = entitlement.Credit(rec, now, 30)
	if err := store.Update(ctx, rec); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	got, err = store.Get(ctx, "42")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.FreeUsedToday != 1 || !got.IsPaid {
		t.Errorf("updated record = %+v", got)
	}
	wantUntil := now.AddDate(0, 0, 30)
	if got.PaidUntil == nil || !got.PaidUntil.UTC().Equal(wantUntil) {
		t.Errorf("PaidUntil = %v, want %v", got.PaidUntil, wantUntil)
	}

	if err := store.Update(ctx, entitlement.NewRecord("99", now)); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Update missing: error = %v, want ErrNotFound", err)
	}
}

func TestUserStoreListAndCount(t *testing.T) {
	store := NewUserStore(testDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	for _, id := range []string{"b", "c", "a"} {
		if err := store.Create(ctx, entitlement.NewRecord(id, now)); err != nil {
			t.Fatalf("Create(%s) error: %v", id, err)
		}
	}

	recs, err := store.List(ctx, 2, 1)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(recs) != 2 || recs[0].UserID != "b" || recs[1].UserID != "c" {
		t.Errorf("List(2,1) = %v", recs)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}
