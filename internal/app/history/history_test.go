package history

import (
	"context"
	"errors"
	"testing"

	"github.com/fitledger/fitledger/internal/calendar"
	"github.com/fitledger/fitledger/internal/domain"
	"github.com/fitledger/fitledger/internal/infra/sqlite"
)

func newTestRecorder(t *testing.T) (*Recorder, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), db
}

// ─── Activity ───────────────────────────────────────────────────────────────

func TestRecordActivity_Accumulates(t *testing.T) {
	rec, db := newTestRecorder(t)
	ctx := context.Background()
	date := calendar.MustParse("2024-02-10")

	if err := rec.RecordActivity(ctx, date, 1); err != nil {
		t.Fatalf("RecordActivity() error: %v", err)
	}
	if err := rec.RecordActivity(ctx, date, 4); err != nil {
		t.Fatalf("RecordActivity() error: %v", err)
	}

	reps, ok, err := db.GetActivity(ctx, date)
	if err != nil || !ok {
		t.Fatalf("GetActivity() = ok %v, err %v", ok, err)
	}
	if reps != 5 {
		t.Errorf("reps = %d, want 5 (accumulate, not overwrite)", reps)
	}
}

func TestRecordActivity_CreateIfAbsent(t *testing.T) {
	rec, db := newTestRecorder(t)
	ctx := context.Background()
	date := calendar.MustParse("2024-02-11")

	if err := rec.RecordActivity(ctx, date, 3); err != nil {
		t.Fatalf("RecordActivity() error: %v", err)
	}
	reps, _, _ := db.GetActivity(ctx, date)
	if reps != 3 {
		t.Errorf("reps = %d, want 3", reps)
	}
}

func TestListActivity_Ascending(t *testing.T) {
	rec, _ := newTestRecorder(t)
	ctx := context.Background()

	rec.RecordActivity(ctx, calendar.MustParse("2024-02-12"), 2)
	rec.RecordActivity(ctx, calendar.MustParse("2024-02-10"), 1)
	rec.RecordActivity(ctx, calendar.MustParse("2024-02-11"), 6)

	entries, err := rec.ListActivity(ctx)
	if err != nil {
		t.Fatalf("ListActivity() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if !entries[i-1].Date.Before(entries[i].Date) {
			t.Errorf("entries out of order: %s before %s", entries[i-1].Date, entries[i].Date)
		}
	}
}

// ─── Drain days ─────────────────────────────────────────────────────────────

func TestRecordDrainDay_Overwrites(t *testing.T) {
	rec, db := newTestRecorder(t)
	ctx := context.Background()
	date := calendar.MustParse("2024-02-10")

	rec.RecordDrainDay(ctx, date, 100)
	rec.RecordDrainDay(ctx, date, 40)

	rows, err := db.ListDrainHistory(ctx)
	if err != nil {
		t.Fatalf("ListDrainHistory() error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1 (idempotent upsert)", len(rows))
	}
	if rows[0].Amount != 40 {
		t.Errorf("amount = %d, want 40 (overwrite, not accumulate)", rows[0].Amount)
	}
}

func TestRecordDrainDays_EmptyIsNoOp(t *testing.T) {
	rec, _ := newTestRecorder(t)
	if err := rec.RecordDrainDays(context.Background(), nil); err != nil {
		t.Fatalf("RecordDrainDays(nil) error: %v", err)
	}
}

// ─── Summary ────────────────────────────────────────────────────────────────

func TestSummary(t *testing.T) {
	rec, _ := newTestRecorder(t)
	ctx := context.Background()

	rec.RecordActivity(ctx, calendar.MustParse("2024-02-10"), 3)
	rec.RecordActivity(ctx, calendar.MustParse("2024-02-11"), 8)
	rec.RecordActivity(ctx, calendar.MustParse("2024-02-12"), 1)

	sum, err := rec.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error: %v", err)
	}
	if sum.TotalReps != 12 {
		t.Errorf("TotalReps = %d, want 12", sum.TotalReps)
	}
	if sum.ActiveDays != 3 {
		t.Errorf("ActiveDays = %d, want 3", sum.ActiveDays)
	}
	if sum.BestDay == nil || sum.BestDay.Reps != 8 {
		t.Errorf("BestDay = %+v, want the 8-rep day", sum.BestDay)
	}
}

func TestSummary_Empty(t *testing.T) {
	rec, _ := newTestRecorder(t)
	sum, err := rec.Summary(context.Background())
	if !errors.Is(err, domain.ErrNoActivity) {
		t.Fatalf("empty Summary() error = %v, want ErrNoActivity", err)
	}
	if sum.TotalReps != 0 || sum.ActiveDays != 0 || sum.BestDay != nil {
		t.Errorf("empty Summary() = %+v, want zero values", sum)
	}
}

var _ domain.Store = (*sqlite.DB)(nil)
