package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodcheck_analyses_total",
			Help: "Analysis requests by outcome and classification",
		},
		[]string{"outcome", "classification"},
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodcheck_submissions_total",
			Help: "Demographic record submissions by outcome",
		},
		[]string{"outcome"},
	)

	PredictorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodcheck_predictor_request_duration_seconds",
			Help:    "Duration of calls to the prediction backend",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
