package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "askcampus"

// Metrics holds the Prometheus collectors for the research pipeline. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Searches          *prometheus.CounterVec
	DuplicatesRemoved prometheus.Counter
	Fetches           *prometheus.CounterVec
	Grades            *prometheus.CounterVec
	FilterFallbacks   prometheus.Counter
	Runs              *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
	CompletionCalls   *prometheus.CounterVec
}

// NewMetrics builds the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "searches_total",
			Help: "Page discovery calls by outcome (ok, empty, error).",
		}, []string{"outcome"}),
		DuplicatesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "duplicates_removed_total",
			Help: "Candidates dropped because their canonical URL was already seen.",
		}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fetches_total",
			Help: "Page extractions by outcome (success, failure).",
		}, []string{"outcome"}),
		Grades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "grades_total",
			Help: "Relevance grades by outcome (parsed, no_number, completion_error, disabled).",
		}, []string{"outcome"}),
		FilterFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "filter_fallbacks_total",
			Help: "Runs where no page met the threshold and the best page was kept.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total",
			Help: "Completed pipeline runs by terminal state.",
		}, []string{"state"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "stage_duration_seconds",
			Help:    "Wall time spent in each pipeline stage.",
			Buckets: []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
		CompletionCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "completion_calls_total",
			Help: "Completion service calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Searches, m.DuplicatesRemoved, m.Fetches, m.Grades,
			m.FilterFallbacks, m.Runs, m.StageDuration, m.CompletionCalls,
		)
	}
	return m
}

func (m *Metrics) ObserveSearch(outcome string) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddDuplicates(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DuplicatesRemoved.Add(float64(n))
}

func (m *Metrics) ObserveFetch(success bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.Fetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveGrade(outcome string) {
	if m == nil {
		return
	}
	m.Grades.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFilterFallback() {
	if m == nil {
		return
	}
	m.FilterFallbacks.Inc()
}

func (m *Metrics) ObserveRun(state string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(state).Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) ObserveCompletion(provider string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.CompletionCalls.WithLabelValues(provider, outcome).Inc()
}
