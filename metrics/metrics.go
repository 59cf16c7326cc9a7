package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lankawatch"

// Vote outcomes used as the label of VotesTotal.
const (
	OutcomeAccepted = "accepted"
	OutcomeConflict = "conflict"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Recorder holds the service's collectors.
type Recorder struct {
	ReportsCreated  prometheus.Counter
	ReportsVerified prometheus.Counter
	ReportsDeleted  prometheus.Counter
	VotesTotal      *prometheus.CounterVec
}

// New builds the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		ReportsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_created_total",
			Help:      "Total number of reports created",
		}),
		ReportsVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_verified_total",
			Help:      "Total number of reports promoted to verified",
		}),
		ReportsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_deleted_total",
			Help:      "Total number of reports deleted",
		}),
		VotesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Vote attempts by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(r.ReportsCreated, r.ReportsVerified, r.ReportsDeleted, r.VotesTotal)
	return r
}

func (r *Recorder) RecordVote(outcome string) {
	r.VotesTotal.WithLabelValues(outcome).Inc()
}
