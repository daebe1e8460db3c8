package domain

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fitledger/fitledger/internal/calendar"
)

// ─── Storage Collaborator ───────────────────────────────────────────────────
// Any row store with point lookup and upsert suffices. Infrastructure
// implements this; the application layer depends on it.

// StateUpdate names the ledger fields to overwrite in one atomic store call.
// Nil fields are left untouched. Reconciliation sets Balance and
// LastReconciled together so a concurrent reader can never observe a torn
// update where the date advanced but the balance did not.
type StateUpdate struct {
	Balance        *int64
	LastReconciled *calendar.Date
	DailyRate      *int64
	RewardsBalance *decimal.Decimal
}

// Store abstracts persistent ledger and history storage.
type Store interface {
	// GetState returns the ledger row, or ErrStateNotFound when absent.
	GetState(ctx context.Context, id string) (LedgerState, error)

	// InsertState creates the singleton row. The store's primary-key
	// constraint makes a racing double-insert fail rather than fork state.
	InsertState(ctx context.Context, init LedgerState) (LedgerState, error)

	// UpdateState applies the non-nil fields in one atomic call and
	// returns the post-update record.
	UpdateState(ctx context.Context, id string, upd StateUpdate) (LedgerState, error)

	// GetActivity returns the rep count for a date; ok is false when the
	// date has no entry.
	GetActivity(ctx context.Context, date calendar.Date) (reps int64, ok bool, err error)

	// UpsertActivity overwrites the rep count for a date.
	UpsertActivity(ctx context.Context, date calendar.Date, reps int64) error

	// ListActivity returns all activity entries ascending by date.
	ListActivity(ctx context.Context) ([]ActivityEntry, error)

	// UpsertDrainHistory writes per-day drain rows, overwriting any
	// existing row for the same date. Batched, best-effort: callers treat
	// failure as advisory.
	UpsertDrainHistory(ctx context.Context, rows []DrainEntry) error
}
