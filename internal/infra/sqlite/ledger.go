// Ledger and history row operations.
// Implements domain.Store. Dates are stored as YYYY-MM-DD TEXT so date
// ordering and date equality are plain string comparisons; the rewards
// balance is stored as decimal TEXT to keep fixed-point exactness.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fitledger/fitledger/internal/calendar"
	"github.com/fitledger/fitledger/internal/domain"
)

// ─── Ledger State Operations ────────────────────────────────────────────────

// GetState returns the ledger row, or domain.ErrStateNotFound when absent.
func (db *DB) GetState(ctx context.Context, id string) (domain.LedgerState, error) {
	var (
		state                       domain.LedgerState
		epochStr, lastStr, rewdsStr string
	)
	err := db.db.QueryRowContext(ctx, `
		SELECT id, epoch_date, last_reconciled, balance, daily_rate, rewards_balance
		FROM ledger_state WHERE id = ?
	`, id).Scan(&state.ID, &epochStr, &lastStr, &state.Balance, &state.DailyRate, &rewdsStr)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LedgerState{}, domain.ErrStateNotFound
	}
	if err != nil {
		return domain.LedgerState{}, err
	}
	return scanDates(state, epochStr, lastStr, rewdsStr)
}

// InsertState creates the singleton row. A racing duplicate insert fails on
// the primary key; callers fall back to GetState.
func (db *DB) InsertState(ctx context.Context, init domain.LedgerState) (domain.LedgerState, error) {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO ledger_state (id, epoch_date, last_reconciled, balance, daily_rate, rewards_balance)
		VALUES (?, ?, ?, ?, ?, ?)
	`, init.ID, init.EpochDate.String(), init.LastReconciled.String(),
		init.Balance, init.DailyRate, init.RewardsBalance.String())
	if err != nil {
		return domain.LedgerState{}, err
	}
	return db.GetState(ctx, init.ID)
}

// UpdateState overwrites the non-nil fields in a single UPDATE statement and
// returns the post-update record. Balance and last_reconciled travel in the
// same statement during reconciliation, so a concurrent reader never sees
// the date advanced without the balance.
func (db *DB) UpdateState(ctx context.Context, id string, upd domain.StateUpdate) (domain.LedgerState, error) {
	var (
		sets []string
		args []any
	)
	if upd.Balance != nil {
		sets = append(sets, "balance = ?")
		args = append(args, *upd.Balance)
	}
	if upd.LastReconciled != nil {
		sets = append(sets, "last_reconciled = ?")
		args = append(args, upd.LastReconciled.String())
	}
	if upd.DailyRate != nil {
		sets = append(sets, "daily_rate = ?")
		args = append(args, *upd.DailyRate)
	}
	if upd.RewardsBalance != nil {
		sets = append(sets, "rewards_balance = ?")
		args = append(args, upd.RewardsBalance.String())
	}
	if len(sets) == 0 {
		return db.GetState(ctx, id)
	}
	sets = append(sets, "updated_at = datetime('now')")
	args = append(args, id)

	res, err := db.db.ExecContext(ctx,
		"UPDATE ledger_state SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return domain.LedgerState{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.LedgerState{}, domain.ErrStateNotFound
	}
	return db.GetState(ctx, id)
}

func scanDates(state domain.LedgerState, epochStr, lastStr, rewardsStr string) (domain.LedgerState, error) {
	var err error
	if state.EpochDate, err = calendar.Parse(epochStr); err != nil {
		return domain.LedgerState{}, fmt.Errorf("corrupt epoch_date: %w", err)
	}
	if state.LastReconciled, err = calendar.Parse(lastStr); err != nil {
		return domain.LedgerState{}, fmt.Errorf("corrupt last_reconciled: %w", err)
	}
	if state.RewardsBalance, err = decimal.NewFromString(rewardsStr); err != nil {
		return domain.LedgerState{}, fmt.Errorf("corrupt rewards_balance: %w", err)
	}
	return state, nil
}

// ─── Rep History Operations ─────────────────────────────────────────────────

// GetActivity returns the rep count for a date. ok is false when the date
// has no entry.
func (db *DB) GetActivity(ctx context.Context, date calendar.Date) (int64, bool, error) {
	var reps int64
	err := db.db.QueryRowContext(ctx,
		`SELECT reps FROM rep_history WHERE rep_date = ?`, date.String()).Scan(&reps)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return reps, true, nil
}

// UpsertActivity overwrites the rep count for a date.
func (db *DB) UpsertActivity(ctx context.Context, date calendar.Date, reps int64) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO rep_history (rep_date, reps, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(rep_date) DO UPDATE SET
			reps       = excluded.reps,
			updated_at = datetime('now')
	`, date.String(), reps)
	return err
}

// ListActivity returns all rep entries ascending by date.
func (db *DB) ListActivity(ctx context.Context) ([]domain.ActivityEntry, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT rep_date, reps FROM rep_history ORDER BY rep_date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ActivityEntry
	for rows.Next() {
		var (
			e       domain.ActivityEntry
			dateStr string
		)
		if err := rows.Scan(&dateStr, &e.Reps); err != nil {
			return nil, err
		}
		if e.Date, err = calendar.Parse(dateStr); err != nil {
			return nil, fmt.Errorf("corrupt rep_date: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// ─── Drain History Operations ───────────────────────────────────────────────

// UpsertDrainHistory writes per-day drain rows, overwriting any existing row
// for the same date. Best-effort from the caller's point of view.
func (db *DB) UpsertDrainHistory(ctx context.Context, entries []domain.DrainEntry) error {
	for _, e := range entries {
		_, err := db.db.ExecContext(ctx, `
			INSERT INTO drain_history (drain_date, amount, updated_at)
			VALUES (?, ?, datetime('now'))
			ON CONFLICT(drain_date) DO UPDATE SET
				amount     = excluded.amount,
				updated_at = datetime('now')
		`, e.Date.String(), e.Amount)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListDrainHistory returns all drain entries ascending by date.
func (db *DB) ListDrainHistory(ctx context.Context) ([]domain.DrainEntry, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT drain_date, amount FROM drain_history ORDER BY drain_date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DrainEntry
	for rows.Next() {
		var (
			e       domain.DrainEntry
			dateStr string
		)
		if err := rows.Scan(&dateStr, &e.Amount); err != nil {
			return nil, err
		}
		if e.Date, err = calendar.Parse(dateStr); err != nil {
			return nil, fmt.Errorf("corrupt drain_date: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
