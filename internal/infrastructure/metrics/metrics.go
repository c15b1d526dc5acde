// Package metrics holds the process-wide Prometheus collectors. They are
// exposed on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var SweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "microloan",
	Subsystem: "penalty",
	Name:      "sweeps_total",
	Help:      "Overdue sweeps by outcome (ok, partial, skipped, error).",
}, []string{"outcome"})

var LateFeesApplied = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "microloan",
	Subsystem: "penalty",
	Name:      "late_fees_applied_total",
	Help:      "Late fees accrued onto active loans.",
})

var LoansDefaulted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "microloan",
	Subsystem: "penalty",
	Name:      "loans_defaulted_total",
	Help:      "Loans moved to defaulted by the sweep.",
})

var SweepFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "microloan",
	Subsystem: "penalty",
	Name:      "loan_failures_total",
	Help:      "Per-loan failures during a sweep.",
})

var SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "microloan",
	Subsystem: "penalty",
	Name:      "sweep_duration_seconds",
	Help:      "Wall time of one overdue sweep.",
	Buckets:   prometheus.DefBuckets,
})

var LoanEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "microloan",
	Subsystem: "loan",
	Name:      "events_total",
	Help:      "Lifecycle events (requested, activated, installment_paid, repaid, resolved).",
}, []string{"event"})
