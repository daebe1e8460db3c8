// Package ledger implements the balance state machine.
// The ledger is reconciled lazily: there is no background scheduler, catch-up
// for elapsed calendar days happens whenever the application is opened.
//
// The state machine has no status flags — LastReconciled alone captures
// position. Reconciliation is idempotent per calendar day: a day already
// covered is never applied twice, and a same-day repeat open is a no-op.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fitledger/fitledger/internal/app/history"
	"github.com/fitledger/fitledger/internal/calendar"
	"github.com/fitledger/fitledger/internal/domain"
	"github.com/fitledger/fitledger/internal/infra/observability"
)

// Config controls ledger behavior.
type Config struct {
	Policy domain.SchedulePolicy

	// RewardFraction of a positive manual adjustment is credited to the
	// rewards balance in the same write (0 disables coupling).
	RewardFraction decimal.Decimal

	// AllowNegative selects the adjustment variant. The guarded variant
	// rejects spends that would drive the balance below zero; the
	// unguarded variant lets the balance go negative.
	AllowNegative bool

	// Now supplies "today". Tests pin it; production leaves the default.
	Now func() calendar.Date
}

// DefaultConfig returns the stock credit-schedule configuration:
// increasing credit from 10 to 100, guarded spends, half of every
// manual add mirrored into rewards.
func DefaultConfig() Config {
	return Config{
		Policy:         domain.DefaultIncreasingCredit(),
		RewardFraction: decimal.RequireFromString("0.5"),
		AllowNegative:  false,
		Now:            calendar.Today,
	}
}

// Service is the ledger state machine over a storage collaborator.
type Service struct {
	cfg     Config
	store   domain.Store
	history *history.Recorder
	metrics *observability.Metrics
}

// New creates a ledger service.
func New(cfg Config, store domain.Store, rec *history.Recorder) *Service {
	if cfg.Now == nil {
		cfg.Now = calendar.Today
	}
	if cfg.Policy == nil {
		cfg.Policy = domain.DefaultIncreasingCredit()
	}
	return &Service{cfg: cfg, store: store, history: rec}
}

// SetMetrics attaches Prometheus instruments. Optional; nil is tolerated
// everywhere so library users can skip metrics entirely.
func (s *Service) SetMetrics(m *observability.Metrics) { s.metrics = m }

// History returns the recorder (for the API/CLI reporting surface).
func (s *Service) History() *history.Recorder { return s.history }

// ─── Ensure ─────────────────────────────────────────────────────────────────

// Ensure returns the singleton state, creating it on first run with
// epoch = today and lastReconciled = yesterday, so the first reconciliation
// applies day 1 immediately. Safe against a concurrent Ensure: a lost
// insert race falls back to reading the winner's row.
func (s *Service) Ensure(ctx context.Context) (domain.LedgerState, error) {
	state, err := s.store.GetState(ctx, domain.SingletonID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, domain.ErrStateNotFound) {
		return domain.LedgerState{}, domain.NewPersistenceError("ensure", err)
	}

	today := s.cfg.Now()
	init := domain.LedgerState{
		ID:             domain.SingletonID,
		EpochDate:      today,
		LastReconciled: today.AddDays(-1),
		Balance:        0,
		RewardsBalance: decimal.Zero,
	}
	if fd, ok := s.cfg.Policy.(domain.FlatDrain); ok {
		init.DailyRate = fd.Rate
	}

	created, insErr := s.store.InsertState(ctx, init)
	if insErr != nil {
		// Another session won the insert; its row is the singleton.
		if state, err := s.store.GetState(ctx, domain.SingletonID); err == nil {
			return state, nil
		}
		return domain.LedgerState{}, domain.NewPersistenceError("ensure", insErr)
	}
	return created, nil
}

// ─── Reconcile ──────────────────────────────────────────────────────────────

// Reconcile applies schedule effects for every day strictly after
// state.LastReconciled up to and including asOf, in one combined
// balance+date write. A gap <= 0 (same-day repeat open, or a clock that
// moved backwards) is a no-op with delta 0.
//
// A failed attempt leaves LastReconciled unchanged, so retrying the same
// asOf is safe.
func (s *Service) Reconcile(ctx context.Context, state domain.LedgerState, asOf calendar.Date) (domain.ReconcileResult, error) {
	gap := calendar.DaysBetween(state.LastReconciled, asOf)
	if gap <= 0 {
		return domain.ReconcileResult{State: state}, nil
	}

	var (
		total int64
		days  = make([]domain.DrainEntry, 0, gap)
	)
	switch s.cfg.Policy.(type) {
	case domain.FlatDrain:
		// The persisted rate is the live one: the config value only seeds
		// the row on first run. Rate is date-independent, so the gap sum
		// collapses to gap*rate.
		total = int64(gap) * state.DailyRate
		for i := 1; i <= gap; i++ {
			days = append(days, domain.DrainEntry{
				Date:   state.LastReconciled.AddDays(i),
				Amount: state.DailyRate,
			})
		}
	default:
		for i := 1; i <= gap; i++ {
			day := state.LastReconciled.AddDays(i)
			amount := s.cfg.Policy.PerDayAmount(state.DayIndex(day))
			total += amount
			days = append(days, domain.DrainEntry{Date: day, Amount: amount})
		}
	}

	delta := total * int64(s.cfg.Policy.Direction())
	newBalance := state.Balance + delta

	updated, err := s.store.UpdateState(ctx, state.ID, domain.StateUpdate{
		Balance:        &newBalance,
		LastReconciled: &asOf,
	})
	if err != nil {
		s.countPersistenceError()
		return domain.ReconcileResult{}, domain.NewPersistenceError("reconcile", err)
	}

	result := domain.ReconcileResult{
		State:        updated,
		DaysApplied:  gap,
		AppliedDelta: delta,
	}

	// Best-effort: the per-day applied amounts feed the history chart.
	// Failure here must never roll back the committed balance update.
	if err := s.history.RecordDrainDays(ctx, days); err != nil {
		result.Advisory = s.advisory("drain history", err)
	}

	s.observeReconcile(gap, delta, updated)
	return result, nil
}

// ReconcileNow is Reconcile against today's date.
func (s *Service) ReconcileNow(ctx context.Context, state domain.LedgerState) (domain.ReconcileResult, error) {
	return s.Reconcile(ctx, state, s.cfg.Now())
}

// Open is the session-start path: ensure the singleton exists, reconcile it
// against today, and render the view the presentation layer displays.
func (s *Service) Open(ctx context.Context) (domain.LedgerView, string, error) {
	state, err := s.Ensure(ctx)
	if err != nil {
		return domain.LedgerView{}, "", err
	}
	result, err := s.ReconcileNow(ctx, state)
	if err != nil {
		return domain.LedgerView{}, "", err
	}
	return s.View(result.State, result.AppliedDelta), result.Advisory, nil
}

// View renders the ledger snapshot for display.
func (s *Service) View(state domain.LedgerState, appliedDelta int64) domain.LedgerView {
	today := s.cfg.Now()
	return domain.LedgerView{
		Today:           today,
		Balance:         state.Balance,
		RewardsBalance:  state.RewardsBalance,
		DailyRate:       state.DailyRate,
		EpochDate:       state.EpochDate,
		LastReconciled:  state.LastReconciled,
		TodayAmount:     s.perDayAmount(state, today),
		AppliedThisOpen: appliedDelta,
	}
}

// ─── AdjustBy ───────────────────────────────────────────────────────────────

// AdjustBy applies a manual balance adjustment. Positive amounts also
// credit RewardFraction*amount to the rewards balance in the same write.
// Negative amounts are spends: the guarded variant rejects a spend that
// would drive the balance below zero; every spend records reps for today
// in the history, best-effort.
//
// The returned advisory is non-empty when a best-effort history write
// failed; the balance mutation itself has still been applied.
func (s *Service) AdjustBy(ctx context.Context, state domain.LedgerState, amount int64) (domain.LedgerState, string, error) {
	if amount == 0 {
		return state, "", domain.NewValidationError("amount", domain.ErrZeroAmount)
	}
	if !s.cfg.AllowNegative && state.Balance+amount < 0 {
		return state, "", domain.NewValidationError("amount", domain.ErrNothingToSpend)
	}

	newBalance := state.Balance + amount
	upd := domain.StateUpdate{Balance: &newBalance}

	if amount > 0 && s.cfg.RewardFraction.IsPositive() {
		rewards := state.RewardsBalance.Add(
			s.cfg.RewardFraction.Mul(decimal.NewFromInt(amount)))
		upd.RewardsBalance = &rewards
	}

	updated, err := s.store.UpdateState(ctx, state.ID, upd)
	if err != nil {
		s.countPersistenceError()
		return state, "", domain.NewPersistenceError("adjust", err)
	}

	var advisory string
	if amount < 0 {
		// A spend is reps performed: accumulate them for today.
		if err := s.history.RecordActivity(ctx, s.cfg.Now(), -amount); err != nil {
			advisory = s.advisory("rep history", err)
		}
	}

	s.observeAdjust(amount, updated)
	return updated, advisory, nil
}

// ─── ConvertRewards ─────────────────────────────────────────────────────────

// ConvertRewards debits amount from the rewards balance. Any sign is
// accepted and the rewards balance may go negative; the primary balance and
// reconciliation position are untouched.
func (s *Service) ConvertRewards(ctx context.Context, state domain.LedgerState, amount decimal.Decimal) (domain.LedgerState, error) {
	rewards := state.RewardsBalance.Sub(amount)
	updated, err := s.store.UpdateState(ctx, state.ID, domain.StateUpdate{
		RewardsBalance: &rewards,
	})
	if err != nil {
		s.countPersistenceError()
		return state, domain.NewPersistenceError("convert rewards", err)
	}
	if s.metrics != nil {
		s.metrics.RewardConversions.Inc()
		s.metrics.ObserveState(updated.Balance, updated.RewardsBalance.InexactFloat64())
	}
	return updated, nil
}

// ─── SetDailyRate ───────────────────────────────────────────────────────────

// SetDailyRate persists a new flat-drain rate. Negative rates are rejected
// before any mutation. Past reconciliations are never recomputed; the new
// rate takes effect from the next reconciliation, which reads it back from
// the stored state.
func (s *Service) SetDailyRate(ctx context.Context, state domain.LedgerState, rate int64) (domain.LedgerState, error) {
	if rate < 0 {
		return state, domain.NewValidationError("daily_rate", domain.ErrNegativeRate)
	}
	updated, err := s.store.UpdateState(ctx, state.ID, domain.StateUpdate{DailyRate: &rate})
	if err != nil {
		s.countPersistenceError()
		return state, domain.NewPersistenceError("set daily rate", err)
	}
	return updated, nil
}

// ─── Internal helpers ───────────────────────────────────────────────────────

// perDayAmount resolves the scheduled amount for a day. The drain variant's
// rate lives on the state row, not the config.
func (s *Service) perDayAmount(state domain.LedgerState, day calendar.Date) int64 {
	if _, ok := s.cfg.Policy.(domain.FlatDrain); ok {
		return state.DailyRate
	}
	return s.cfg.Policy.PerDayAmount(state.DayIndex(day))
}

// advisory logs a non-fatal recording failure and returns a reference id
// the presentation layer can show as a soft warning.
func (s *Service) advisory(what string, err error) string {
	ref := uuid.NewString()
	log.Printf("advisory [%s]: %v", ref, err)
	if s.metrics != nil {
		s.metrics.RecordingFailures.Inc()
	}
	return fmt.Sprintf("saved, but %s was not recorded (ref %s)", what, ref)
}

func (s *Service) countPersistenceError() {
	if s.metrics != nil {
		s.metrics.PersistenceErrors.Inc()
	}
}

func (s *Service) observeReconcile(gap int, delta int64, state domain.LedgerState) {
	if s.metrics == nil {
		return
	}
	s.metrics.ReconcilesTotal.Inc()
	s.metrics.DaysReconciled.Add(float64(gap))
	if delta >= 0 {
		s.metrics.TokensCredited.Add(float64(delta))
	} else {
		s.metrics.TokensDrained.Add(float64(-delta))
	}
	s.metrics.ObserveState(state.Balance, state.RewardsBalance.InexactFloat64())
}

func (s *Service) observeAdjust(amount int64, state domain.LedgerState) {
	if s.metrics == nil {
		return
	}
	if amount > 0 {
		s.metrics.AdjustmentsTotal.WithLabelValues("add").Inc()
	} else {
		s.metrics.AdjustmentsTotal.WithLabelValues("spend").Inc()
	}
	s.metrics.ObserveState(state.Balance, state.RewardsBalance.InexactFloat64())
}
