// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing
// below it except the calendar package (itself pure).
package domain

import (
	"github.com/shopspring/decimal"

	"github.com/fitledger/fitledger/internal/calendar"
)

// SingletonID is the well-known identity of the one ledger row.
// All access goes through the store's key lookup; there is no package-level
// ledger variable anywhere.
const SingletonID = "singleton"

// ─── Ledger Types ───────────────────────────────────────────────────────────

// LedgerState is the single persistent ledger record.
type LedgerState struct {
	ID             string          `json:"id"`
	EpochDate      calendar.Date   `json:"epoch_date"`      // day-index counting starts here (index 1)
	LastReconciled calendar.Date   `json:"last_reconciled"` // monotonically non-decreasing
	Balance        int64           `json:"balance"`
	DailyRate      int64           `json:"daily_rate"`
	RewardsBalance decimal.Decimal `json:"rewards_balance"`
}

// DayIndex returns the 1-based day index of a date relative to the epoch.
// The epoch day itself is index 1.
func (s LedgerState) DayIndex(date calendar.Date) int {
	return calendar.DaysBetween(s.EpochDate, date) + 1
}

// ReconcileResult reports what a reconciliation pass applied.
type ReconcileResult struct {
	State        LedgerState `json:"state"`
	DaysApplied  int         `json:"days_applied"`
	AppliedDelta int64       `json:"applied_delta"` // signed: positive credit, negative drain
	Advisory     string      `json:"advisory,omitempty"`
}

// LedgerView is the rendered snapshot handed to the presentation layer.
type LedgerView struct {
	Today           calendar.Date   `json:"today"`
	Balance         int64           `json:"balance"`
	RewardsBalance  decimal.Decimal `json:"rewards_balance"`
	DailyRate       int64           `json:"daily_rate"`
	EpochDate       calendar.Date   `json:"epoch_date"`
	LastReconciled  calendar.Date   `json:"last_reconciled"`
	TodayAmount     int64           `json:"today_amount"`      // today's scheduled per-day amount
	AppliedThisOpen int64           `json:"applied_this_open"` // delta applied by this session's reconcile
}

// ─── History Types ──────────────────────────────────────────────────────────

// ActivityEntry is one day's accumulated rep count.
type ActivityEntry struct {
	Date calendar.Date `json:"date"`
	Reps int64         `json:"reps"`
}

// DrainEntry is the schedule amount applied on one day.
// Display-only: written as a byproduct of reconciliation, never read back
// into the ledger.
type DrainEntry struct {
	Date   calendar.Date `json:"date"`
	Amount int64         `json:"amount"`
}

// ActivitySummary aggregates rep history for the dashboard.
type ActivitySummary struct {
	TotalReps  int64          `json:"total_reps"`
	ActiveDays int            `json:"active_days"`
	BestDay    *ActivityEntry `json:"best_day,omitempty"`
}
