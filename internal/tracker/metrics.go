package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zombor/finance-tracker/internal/reward"
)

var pointsGranted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "finance_tracker",
	Subsystem: "rewards",
	Name:      "points_granted_total",
	Help:      "Reward points granted",
})

var badgesAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finance_tracker",
	Subsystem: "rewards",
	Name:      "badges_awarded_total",
	Help:      "Badges awarded, by badge",
}, []string{"badge"})

var redemptions = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "finance_tracker",
	Subsystem: "rewards",
	Name:      "redemptions_total",
	Help:      "Cash back redemptions",
})

var cashBackPaid = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "finance_tracker",
	Subsystem: "rewards",
	Name:      "cashback_paid_total",
	Help:      "Cash back paid out, in currency units",
})

var documentsScanned = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finance_tracker",
	Subsystem: "scanner",
	Name:      "documents_total",
	Help:      "Scanned documents by kind and outcome (total, no_total, error)",
}, []string{"kind", "outcome"})

var transactionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finance_tracker",
	Subsystem: "budget",
	Name:      "transactions_total",
	Help:      "Transactions recorded, by type",
}, []string{"type"})

func observeDelta(d reward.Delta) {
	if d.Points > 0 {
		pointsGranted.Add(float64(d.Points))
	}
	for _, b := range d.Badges {
		badgesAwarded.WithLabelValues(b).Inc()
	}
}
