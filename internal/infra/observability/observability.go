// Package observability exposes Prometheus metrics for the ledger.
// Counters track every mutation path; gauges mirror the persisted balances
// so the /metrics endpoint doubles as a remote dashboard.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the ledger's Prometheus instruments.
type Metrics struct {
	ReconcilesTotal    prometheus.Counter
	DaysReconciled     prometheus.Counter
	TokensCredited     prometheus.Counter
	TokensDrained      prometheus.Counter
	AdjustmentsTotal   *prometheus.CounterVec // direction: "add" | "spend"
	RewardConversions  prometheus.Counter
	RecordingFailures  prometheus.Counter
	PersistenceErrors  prometheus.Counter
	Balance            prometheus.Gauge
	RewardsBalance     prometheus.Gauge
}

// New registers the ledger metrics on the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests use a fresh
// prometheus.NewRegistry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReconcilesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "fitledger_reconciles_total",
			Help: "Reconciliation passes that applied at least one day.",
		}),
		DaysReconciled: factory.NewCounter(prometheus.CounterOpts{
			Name: "fitledger_days_reconciled_total",
			Help: "Calendar days covered by reconciliation.",
		}),
		TokensCredited: factory.NewCounter(prometheus.CounterOpts{
			Name: "fitledger_tokens_credited_total",
			Help: "Tokens added to the balance by the schedule.",
		}),
		TokensDrained: factory.NewCounter(prometheus.CounterOpts{
			Name: "fitledger_tokens_drained_total",
			Help: "Tokens removed from the balance by the schedule.",
		}),
		AdjustmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fitledger_adjustments_total",
			Help: "Manual balance adjustments by direction.",
		}, []string{"direction"}),
		RewardConversions: factory.NewCounter(prometheus.CounterOpts{
			Name: "fitledger_reward_conversions_total",
			Help: "Explicit rewards-balance conversions.",
		}),
		RecordingFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "fitledger_recording_failures_total",
			Help: "Best-effort history writes that failed (advisory only).",
		}),
		PersistenceErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "fitledger_persistence_errors_total",
			Help: "Store failures that aborted a ledger operation.",
		}),
		Balance: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fitledger_balance",
			Help: "Current token balance.",
		}),
		RewardsBalance: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fitledger_rewards_balance",
			Help: "Current rewards balance.",
		}),
	}
}

// ObserveState mirrors the persisted balances into the gauges.
func (m *Metrics) ObserveState(balance int64, rewards float64) {
	if m == nil {
		return
	}
	m.Balance.Set(float64(balance))
	m.RewardsBalance.Set(rewards)
}
