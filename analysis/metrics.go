package analysis

import (
	"time"

	"github.com/poiesic/driftlens/core"
	"github.com/poiesic/driftlens/search"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for completed runs.
const (
	OutcomeSuccess   = "success"
	OutcomeInvalid   = "invalid"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Metrics records pipeline activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	runs            *prometheus.CounterVec
	stageFailures   *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	significant     prometheus.Counter
	changepoints    *prometheus.CounterVec
	searchFallbacks *prometheus.CounterVec
	lexicalFailures prometheus.Counter
}

// NewMetrics creates the pipeline collectors and registers them with reg.
// A nil reg selects prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "driftlens_analysis_runs_total",
			Help: "Completed analysis runs by outcome.",
		}, []string{"outcome"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "driftlens_analysis_stage_failures_total",
			Help: "External stage failures by stage.",
		}, []string{"stage"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "driftlens_analysis_stage_duration_seconds",
			Help:    "Histogram of pipeline stage durations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "driftlens_analysis_in_flight",
			Help: "Submissions currently being analysed.",
		}),
		significant: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "driftlens_significant_deltas_total",
			Help: "Biometric deltas flagged clinically significant.",
		}),
		changepoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "driftlens_changepoints_total",
			Help: "Detected sustained shifts by direction.",
		}, []string{"direction"}),
		searchFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "driftlens_search_fallbacks_total",
			Help: "Searches answered by semantic ranking alone, by reason.",
		}, []string{"reason"}),
		lexicalFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "driftlens_search_lexical_failures_total",
			Help: "Lexical ranking failures recovered by the semantic fallback.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.runs,
		m.stageFailures,
		m.stageDuration,
		m.inFlight,
		m.significant,
		m.changepoints,
		m.searchFallbacks,
		m.lexicalFailures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) runStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) runFinished(outcome string) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.runs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) stage(stage Stage, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	if err != nil {
		m.stageFailures.WithLabelValues(string(stage)).Inc()
	}
}

func (m *Metrics) deltas(deltas []core.BiometricDelta) {
	if m == nil {
		return
	}
	for _, d := range deltas {
		if d.Significant {
			m.significant.Inc()
		}
		if d.Changepoint != nil {
			m.changepoints.WithLabelValues(string(d.Changepoint.Direction)).Inc()
		}
	}
}

// searchMonitor returns a monitor feeding the search counters, or nil.
func (m *Metrics) searchMonitor() search.SearchMonitor {
	if m == nil {
		return nil
	}
	return &metricsMonitor{m: m}
}

type metricsMonitor struct {
	m *Metrics
}

var _ search.SearchMonitor = (*metricsMonitor)(nil)

func (mm *metricsMonitor) Start(string, int)                   {}
func (mm *metricsMonitor) AfterSemanticSearch([]core.RankedID) {}
func (mm *metricsMonitor) AfterLexicalSearch([]core.RankedID)  {}
func (mm *metricsMonitor) Finish([]core.CandidateCondition)    {}
func (mm *metricsMonitor) LexicalUnavailable(error)            { mm.m.lexicalFailures.Inc() }

func (mm *metricsMonitor) Fallback(reason search.FallbackReason) {
	mm.m.searchFallbacks.WithLabelValues(string(reason)).Inc()
}
