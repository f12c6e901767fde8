package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers stage throughput and outcomes. A nil *Metrics records nothing.
type Metrics struct {
	StageDuration      *prometheus.HistogramVec
	StageResults       *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
}

// NewMetrics registers the pipeline metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hub_pipeline_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		StageResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_pipeline_stage_results_total",
			Help: "Stage runs by stage and result (ok, retry, halted)",
		}, []string{"stage", "result"}),
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_pipeline_submissions_total",
			Help: "Compliance submissions by report family and status",
		}, []string{"family", "status"}),
		ValidationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_pipeline_validation_failures_total",
			Help: "Records rejected by validation, by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) observeStage(stage Stage, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	switch {
	case Terminal(err):
		result = "halted"
	case err != nil:
		result = "retry"
	}
	m.StageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
	m.StageResults.WithLabelValues(string(stage), result).Inc()
}

func (m *Metrics) incSubmission(family, status string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(family, status).Inc()
}

func (m *Metrics) incValidationFailure(kind string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(kind).Inc()
}
