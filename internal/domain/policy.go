package domain

// ─── Schedule Policies ──────────────────────────────────────────────────────
// A schedule policy maps a 1-based day index to the token amount scheduled
// for that day, plus the direction the amount moves the balance. Policies are
// pure value types: reconciliation over a multi-day gap must be a
// deterministic sum of per-day amounts.

// Direction is the sign a schedule applies to the balance.
type Direction int

const (
	// Credit adds the per-day amount to the balance.
	Credit Direction = 1
	// Drain subtracts the per-day amount from the balance.
	Drain Direction = -1
)

// SchedulePolicy computes the scheduled token amount for a day.
type SchedulePolicy interface {
	// PerDayAmount returns the non-negative amount scheduled for the given
	// 1-based day index (epoch day is index 1).
	PerDayAmount(dayIndex int) int64

	// Direction reports whether the amount credits or drains the balance.
	Direction() Direction
}

// ─── Increasing credit ──────────────────────────────────────────────────────

// IncreasingCredit grants Base tokens on day 1, one more each day after,
// saturating at Cap. The original schedule: day 1 → 10, day 2 → 11, ...,
// capped at 100 from day 91 on.
type IncreasingCredit struct {
	Base int64
	Cap  int64
}

// DefaultIncreasingCredit returns the stock schedule (10 rising to 100).
func DefaultIncreasingCredit() IncreasingCredit {
	return IncreasingCredit{Base: 10, Cap: 100}
}

// PerDayAmount returns min(Base + (dayIndex - 1), Cap).
func (p IncreasingCredit) PerDayAmount(dayIndex int) int64 {
	amount := p.Base + int64(dayIndex-1)
	if amount > p.Cap {
		return p.Cap
	}
	return amount
}

// Direction reports Credit.
func (p IncreasingCredit) Direction() Direction { return Credit }

// ─── Flat drain ─────────────────────────────────────────────────────────────

// FlatDrain subtracts a fixed user-configured rate every day, independent of
// the day index. Because the rate is date-independent, a multi-day gap may be
// computed as gap*Rate; that shortcut is specific to this policy.
type FlatDrain struct {
	Rate int64
}

// PerDayAmount returns the configured rate for every day.
func (p FlatDrain) PerDayAmount(dayIndex int) int64 { return p.Rate }

// Direction reports Drain.
func (p FlatDrain) Direction() Direction { return Drain }
