package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	sqlitestore "github.com/BrandonDHaskell/rollcall/internal/rollcall/store/sqlite"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

// ═══════════════════════════════════════════════════════════════════════════
// InsertFact: reject policy
// ═══════════════════════════════════════════════════════════════════════════

func TestLedgerStore_InsertFact_InsertsRow(t *testing.T) {
	conn := openTestDB(t)
	ls := sqlitestore.NewLedgerStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	at := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	err := ls.InsertFact(ctx, types.AttendanceFact{
		OccasionID: "occ-1",
		PersonID:   "p-1",
		Status:     types.StatusPresent,
		RecordedAt: at,
	})
	if err != nil {
		t.Fatalf("InsertFact: %v", err)
	}

	var (
		status string
		ms     int64
	)
	err = conn.QueryRowContext(ctx,
		`SELECT status, recorded_at_ms FROM attendance_facts WHERE occasion_id = ? AND person_id = ?`,
		"occ-1", "p-1",
	).Scan(&status, &ms)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if status != "present" {
		t.Errorf("expected status=present, got %q", status)
	}
	if ms != at.UnixMilli() {
		t.Errorf("expected recorded_at_ms=%d, got %d", at.UnixMilli(), ms)
	}
}

func TestLedgerStore_InsertFact_SecondWriteConflicts(t *testing.T) {
	conn := openTestDB(t)
	ls := sqlitestore.NewLedgerStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	first := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	fact := types.AttendanceFact{OccasionID: "occ-1", PersonID: "p-1", Status: types.StatusPresent, RecordedAt: first}
	if err := ls.InsertFact(ctx, fact); err != nil {
		t.Fatalf("first InsertFact: %v", err)
	}

	fact.RecordedAt = first.Add(time.Hour)
	err := ls.InsertFact(ctx, fact)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	facts, err := ls.ListByOccasion(ctx, "occ-1")
	if err != nil {
		t.Fatalf("ListByOccasion: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("expected 1 fact, got %d", len(facts))
	}
	if !facts[0].RecordedAt.Equal(first) {
		t.Errorf("expected first-seen time %v to survive, got %v", first, facts[0].RecordedAt)
	}
}

func TestLedgerStore_InsertFact_SamePersonOtherOccasion(t *testing.T) {
	conn := openTestDB(t)
	ls := sqlitestore.NewLedgerStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	for _, occ := range []string{"occ-1", "occ-2"} {
		if err := ls.InsertFact(ctx, types.AttendanceFact{OccasionID: occ, PersonID: "p-1"}); err != nil {
			t.Fatalf("InsertFact(%s): %v", occ, err)
		}
	}
}

func TestLedgerStore_InsertFact_DefaultsStatusAndTime(t *testing.T) {
	conn := openTestDB(t)
	ls := sqlitestore.NewLedgerStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	if err := ls.InsertFact(ctx, types.AttendanceFact{OccasionID: "occ-1", PersonID: "p-1"}); err != nil {
		t.Fatalf("InsertFact: %v", err)
	}
	facts, err := ls.ListByOccasion(ctx, "occ-1")
	if err != nil {
		t.Fatalf("ListByOccasion: %v", err)
	}
	if len(facts) != 1 || facts[0].Status != types.StatusPresent {
		t.Fatalf("expected one present fact, got %+v", facts)
	}
	if facts[0].RecordedAt.IsZero() {
		t.Error("expected recorded_at to be filled in")
	}
}

func TestLedgerStore_InsertFact_UnknownStatusRejectedBySchema(t *testing.T) {
	conn := openTestDB(t)
	ls := sqlitestore.NewLedgerStore(conn, newTestWriter(t, conn))

	err := ls.InsertFact(context.Background(), types.AttendanceFact{
		OccasionID: "occ-1",
		PersonID:   "p-1",
		Status:     "teleported",
	})
	if err == nil {
		t.Fatal("expected CHECK constraint failure")
	}
	if errors.Is(err, store.ErrConflict) {
		t.Fatal("a CHECK failure must not be reported as a conflict")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// UpsertFact: overwrite policy
// ═══════════════════════════════════════════════════════════════════════════

func TestLedgerStore_UpsertFact_SecondWriteSupersedes(t *testing.T) {
	conn := openTestDB(t)
	ls := sqlitestore.NewLedgerStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	first := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	second := first.Add(20 * time.Minute)

	if err := ls.UpsertFact(ctx, types.AttendanceFact{OccasionID: "occ-1", PersonID: "p-1", Status: types.StatusPresent, RecordedAt: first}); err != nil {
		t.Fatalf("first UpsertFact: %v", err)
	}
	if err := ls.UpsertFact(ctx, types.AttendanceFact{OccasionID: "occ-1", PersonID: "p-1", Status: types.StatusLate, RecordedAt: second}); err != nil {
		t.Fatalf("second UpsertFact: %v", err)
	}

	facts, err := ls.ListByOccasion(ctx, "occ-1")
	if err != nil {
		t.Fatalf("ListByOccasion: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("expected 1 fact, got %d", len(facts))
	}
	if !facts[0].RecordedAt.Equal(second) {
		t.Errorf("expected recorded_at=%v, got %v", second, facts[0].RecordedAt)
	}
	if facts[0].Status != types.StatusLate {
		t.Errorf("expected status=late, got %q", facts[0].Status)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// ListByOccasion
// ═══════════════════════════════════════════════════════════════════════════

func TestLedgerStore_ListByOccasion_OrderedByTime(t *testing.T) {
	conn := openTestDB(t)
	ls := sqlitestore.NewLedgerStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	base := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	for i, p := range []string{"p-3", "p-1", "p-2"} {
		err := ls.InsertFact(ctx, types.AttendanceFact{
			OccasionID: "occ-1",
			PersonID:   p,
			RecordedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("InsertFact %s: %v", p, err)
		}
	}
	if err := ls.InsertFact(ctx, types.AttendanceFact{OccasionID: "occ-other", PersonID: "p-9"}); err != nil {
		t.Fatalf("InsertFact other: %v", err)
	}

	facts, err := ls.ListByOccasion(ctx, "occ-1")
	if err != nil {
		t.Fatalf("ListByOccasion: %v", err)
	}
	if len(facts) != 3 {
		t.Fatalf("expected 3 facts, got %d", len(facts))
	}
	want := []string{"p-3", "p-1", "p-2"}
	for i, f := range facts {
		if f.PersonID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], f.PersonID)
		}
	}
}
