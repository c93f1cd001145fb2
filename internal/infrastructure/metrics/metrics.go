package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	movementsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caisse_movements_recorded_total",
			Help: "Total number of ledger movements recorded",
		},
		[]string{"source", "direction"},
	)

	duplicatesSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caisse_movements_duplicates_suppressed_total",
			Help: "Settlement notifications answered with an existing movement",
		},
		[]string{"source"},
	)

	configurationFaults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caisse_settlement_configuration_faults_total",
		Help: "Settlement events rejected because the tenant currency is not configured",
	})

	expenseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caisse_expense_transitions_total",
			Help: "Expense status transitions",
		},
		[]string{"status"},
	)

	backfillVouchers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caisse_backfill_vouchers_total",
			Help: "Voucher backfill outcomes",
		},
		[]string{"outcome"},
	)
)

// MovementRecorded counts a newly appended movement.
func MovementRecorded(source, direction string) {
	movementsRecorded.WithLabelValues(source, direction).Inc()
}

// DuplicateSuppressed counts an idempotent replay answered with the
// existing movement.
func DuplicateSuppressed(source string) {
	duplicatesSuppressed.WithLabelValues(source).Inc()
}

// ConfigurationFault counts a settlement event for an unconfigured currency.
func ConfigurationFault() {
	configurationFaults.Inc()
}

// ExpenseTransition counts an expense status change.
func ExpenseTransition(status string) {
	expenseTransitions.WithLabelValues(status).Inc()
}

// BackfillOutcome counts a per-movement backfill result
// (generated, attached, skipped, failed).
func BackfillOutcome(outcome string) {
	backfillVouchers.WithLabelValues(outcome).Inc()
}
