package core

import (
	"strings"

	"github.com/iancoleman/strcase"
)

// MetricKind enumerates the physiological metrics the analysis understands.
// Declaration order is the presentation order of computed deltas.
type MetricKind int

const (
	// MetricUnconfigured marks a metric with no clinical configuration.
	MetricUnconfigured MetricKind = iota
	MetricRestingHeartRate
	MetricWalkingAsymmetry
	MetricHeartRateVariability
	MetricRespiratoryRate
	MetricStepCount
	MetricSleepAwakeSegments
	MetricWristTemperature
)

// BaselinePolicy selects how a metric's baseline is established.
type BaselinePolicy int

const (
	// BaselineLongitudinal compares the acute window against an independent
	// long-term series of the same metric.
	BaselineLongitudinal BaselinePolicy = iota + 1
	// BaselineAcuteSplit splits the acute series itself: the first SplitAt
	// points form the baseline, the remainder the acute window.
	BaselineAcuteSplit
)

// DefaultSplitAt is the number of leading acute points used as baseline.
const DefaultSplitAt = 3

func (p BaselinePolicy) String() string {
	switch p {
	case BaselineLongitudinal:
		return "longitudinal"
	case BaselineAcuteSplit:
		return "acute_split"
	default:
		return "unknown"
	}
}

// MetricSpec is the fixed configuration of one metric kind.
type MetricSpec struct {
	Kind      MetricKind
	Name      string  // Wire name, e.g. "restingHeartRate"
	Threshold float64 // Clinical significance threshold; delta must strictly exceed it
	Unit      string
	Policy    BaselinePolicy
	SplitAt   int // Used by BaselineAcuteSplit only
}

var metricSpecs = []MetricSpec{
	{Kind: MetricRestingHeartRate, Name: "restingHeartRate", Threshold: 5, Unit: "bpm", Policy: BaselineLongitudinal},
	{Kind: MetricWalkingAsymmetry, Name: "walkingAsymmetryPercentage", Threshold: 3, Unit: "%", Policy: BaselineLongitudinal},
	{Kind: MetricHeartRateVariability, Name: "heartRateVariabilitySDNN", Threshold: 10, Unit: "ms", Policy: BaselineAcuteSplit, SplitAt: DefaultSplitAt},
	{Kind: MetricRespiratoryRate, Name: "respiratoryRate", Threshold: 2, Unit: "breaths/min", Policy: BaselineAcuteSplit, SplitAt: DefaultSplitAt},
	{Kind: MetricStepCount, Name: "stepCount", Threshold: 3000, Unit: "count", Policy: BaselineAcuteSplit, SplitAt: DefaultSplitAt},
	{Kind: MetricSleepAwakeSegments, Name: "sleepAnalysis_awakeSegments", Threshold: 2, Unit: "count", Policy: BaselineAcuteSplit, SplitAt: DefaultSplitAt},
	{Kind: MetricWristTemperature, Name: "appleSleepingWristTemperature", Threshold: 0.5, Unit: "degC_deviation", Policy: BaselineAcuteSplit, SplitAt: DefaultSplitAt},
}

// Metrics returns the configured metric specs in presentation order.
func Metrics() []MetricSpec {
	out := make([]MetricSpec, len(metricSpecs))
	copy(out, metricSpecs)
	return out
}

// Spec returns the configuration of a metric kind.
// Unknown kinds yield an unconfigured spec.
func (k MetricKind) Spec() MetricSpec {
	for _, spec := range metricSpecs {
		if spec.Kind == k {
			return spec
		}
	}
	return UnconfiguredMetric("", "")
}

func (k MetricKind) String() string {
	if k == MetricUnconfigured {
		return "unconfigured"
	}
	return k.Spec().Name
}

// LookupMetric finds a configured metric by wire name. Matching ignores case
// and the camelCase/snake_case distinction.
func LookupMetric(name string) (MetricSpec, bool) {
	key := NormalizeMetricName(name)
	for _, spec := range metricSpecs {
		if NormalizeMetricName(spec.Name) == key {
			return spec, true
		}
	}
	return MetricSpec{}, false
}

// UnconfiguredMetric builds a spec for a metric with no configured threshold.
// Its threshold is zero, so any non-zero delta is reported as significant.
func UnconfiguredMetric(name, unit string) MetricSpec {
	return MetricSpec{
		Kind:      MetricUnconfigured,
		Name:      name,
		Threshold: 0,
		Unit:      unit,
		Policy:    BaselineAcuteSplit,
		SplitAt:   DefaultSplitAt,
	}
}

// NormalizeMetricName folds a metric name to a comparison key.
func NormalizeMetricName(name string) string {
	return strings.ToLower(strcase.ToSnake(strings.TrimSpace(name)))
}
