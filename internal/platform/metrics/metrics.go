package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CasesCreated       *prometheus.CounterVec
	CaseTransitions    *prometheus.CounterVec
	ComplaintReviews   *prometheus.CounterVec
	VerdictsRecorded   prometheus.Counter
	SuspectsMarked     prometheus.Counter
	ScoresSubmitted    *prometheus.CounterVec
	WantedPromotions   prometheus.Counter
	PaymentsReconciled prometheus.Counter
	RewardSnapshots    prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CasesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "casefile_cases_created_total",
			Help: "Total cases created, labeled by source type.",
		}, []string{"source_type"}),
		CaseTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "casefile_case_transitions_total",
			Help: "Total case status transitions, labeled by target status.",
		}, []string{"to_status"}),
		ComplaintReviews: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "casefile_complaint_reviews_total",
			Help: "Total complaint review decisions, labeled by decision.",
		}, []string{"decision"}),
		VerdictsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_verdicts_recorded_total",
			Help: "Total verdicts recorded by judges.",
		}),
		SuspectsMarked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_suspects_marked_total",
			Help: "Total suspects marked in cases.",
		}),
		ScoresSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "casefile_assessment_scores_total",
			Help: "Total suspect assessment scores submitted, labeled by role key.",
		}, []string{"role_key"}),
		WantedPromotions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_wanted_promotions_total",
			Help: "Total wanted entries promoted to most_wanted by the sweep.",
		}),
		PaymentsReconciled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_payments_reconciled_total",
			Help: "Total stale pending payments marked failed by the sweep.",
		}),
		RewardSnapshots: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_reward_snapshots_total",
			Help: "Total reward computation snapshots persisted.",
		}),
	}
}
