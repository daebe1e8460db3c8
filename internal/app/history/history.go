// Package history records per-day activity for reporting.
// Rep counts accumulate (multiple increments on the same date add up);
// drain amounts overwrite (writing the same date twice is idempotent).
// Nothing here is ever read back into the ledger.
package history

import (
	"context"

	"github.com/fitledger/fitledger/internal/calendar"
	"github.com/fitledger/fitledger/internal/domain"
)

// Recorder appends and accumulates daily history rows.
type Recorder struct {
	store domain.Store
}

// New creates a history recorder over the given store.
func New(store domain.Store) *Recorder {
	return &Recorder{store: store}
}

// RecordActivity accumulates amount into the rep entry for date:
// create-if-absent with value amount, else existing + amount.
// The read-modify-write pair is last-writer-wins; the single-user
// assumption makes that sufficient.
func (r *Recorder) RecordActivity(ctx context.Context, date calendar.Date, amount int64) error {
	existing, _, err := r.store.GetActivity(ctx, date)
	if err != nil {
		return domain.NewRecordingError("rep history", err)
	}
	if err := r.store.UpsertActivity(ctx, date, existing+amount); err != nil {
		return domain.NewRecordingError("rep history", err)
	}
	return nil
}

// RecordDrainDay upserts the schedule-applied amount for one date.
// Same-date rewrites overwrite rather than accumulate.
func (r *Recorder) RecordDrainDay(ctx context.Context, date calendar.Date, amount int64) error {
	return r.RecordDrainDays(ctx, []domain.DrainEntry{{Date: date, Amount: amount}})
}

// RecordDrainDays batch-upserts schedule-applied amounts.
func (r *Recorder) RecordDrainDays(ctx context.Context, rows []domain.DrainEntry) error {
	if len(rows) == 0 {
		return nil
	}
	if err := r.store.UpsertDrainHistory(ctx, rows); err != nil {
		return domain.NewRecordingError("drain history", err)
	}
	return nil
}

// ListActivity returns all rep entries ascending by date.
func (r *Recorder) ListActivity(ctx context.Context) ([]domain.ActivityEntry, error) {
	entries, err := r.store.ListActivity(ctx)
	if err != nil {
		return nil, domain.NewPersistenceError("list activity", err)
	}
	return entries, nil
}

// Summary aggregates rep history for the dashboard. An empty history
// reports domain.ErrNoActivity so callers can distinguish "never recorded"
// from a genuinely zero total.
func (r *Recorder) Summary(ctx context.Context) (domain.ActivitySummary, error) {
	entries, err := r.ListActivity(ctx)
	if err != nil {
		return domain.ActivitySummary{}, err
	}
	if len(entries) == 0 {
		return domain.ActivitySummary{}, domain.ErrNoActivity
	}

	var sum domain.ActivitySummary
	for i, e := range entries {
		sum.TotalReps += e.Reps
		if e.Reps > 0 {
			sum.ActiveDays++
		}
		if sum.BestDay == nil || e.Reps > sum.BestDay.Reps {
			sum.BestDay = &entries[i]
		}
	}
	return sum, nil
}
