package biometric

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/poiesic/driftlens/core"
)

const roundPlaces = 2

// Mean returns the arithmetic mean of values, or 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return mean
}

// Round rounds half away from zero to the given number of decimal places.
func Round(value float64, places int) float64 {
	rounded, err := stats.Round(value, places)
	if err != nil {
		return value
	}
	return rounded
}

// ComputeDelta compares the acute series against an independent baseline series.
// Returns core.ErrUnitMismatch if either series mixes units or the two series
// use different units.
func ComputeDelta(acute, baseline core.MetricSeries, spec core.MetricSpec) (core.BiometricDelta, error) {
	unit, err := commonUnit(spec, acute, baseline)
	if err != nil {
		return core.BiometricDelta{}, err
	}
	return newDelta(spec, unit, Mean(acute.Values()), Mean(baseline.Values())), nil
}

// ComputeSplitDelta splits one series into baseline and acute windows.
// The first spec.SplitAt points (core.DefaultSplitAt when unset) are the
// baseline and the remainder the acute window. A series no longer than the
// split point leaves the acute window empty.
func ComputeSplitDelta(series core.MetricSeries, spec core.MetricSpec) (core.BiometricDelta, error) {
	unit, err := commonUnit(spec, series)
	if err != nil {
		return core.BiometricDelta{}, err
	}

	splitAt := spec.SplitAt
	if splitAt <= 0 {
		splitAt = core.DefaultSplitAt
	}
	splitAt = min(splitAt, len(series))

	values := series.Values()
	return newDelta(spec, unit, Mean(values[splitAt:]), Mean(values[:splitAt])), nil
}

// Compute dispatches on the metric's baseline policy.
func Compute(spec core.MetricSpec, acute, longitudinal core.MetricSeries) (core.BiometricDelta, error) {
	switch spec.Policy {
	case core.BaselineLongitudinal:
		return ComputeDelta(acute, longitudinal, spec)
	case core.BaselineAcuteSplit:
		return ComputeSplitDelta(acute, spec)
	default:
		return core.BiometricDelta{}, fmt.Errorf("%w: %d", ErrUnknownPolicy, spec.Policy)
	}
}

func newDelta(spec core.MetricSpec, unit string, acuteMean, baselineMean float64) core.BiometricDelta {
	delta := math.Abs(acuteMean - baselineMean)
	return core.BiometricDelta{
		Metric:       spec.Name,
		Kind:         spec.Kind,
		AcuteMean:    Round(acuteMean, roundPlaces),
		BaselineMean: Round(baselineMean, roundPlaces),
		Delta:        Round(delta, roundPlaces),
		Unit:         unit,
		Significant:  delta > spec.Threshold,
	}
}

// commonUnit returns the single unit shared by all non-empty series.
// With no points at all the metric's configured unit is used.
func commonUnit(spec core.MetricSpec, series ...core.MetricSeries) (string, error) {
	unit := ""
	for _, s := range series {
		for _, p := range s {
			if unit == "" {
				unit = p.Unit
				continue
			}
			if p.Unit != unit {
				return "", fmt.Errorf("%w: %s has %q and %q", core.ErrUnitMismatch, spec.Name, unit, p.Unit)
			}
		}
	}
	if unit == "" {
		unit = spec.Unit
	}
	return unit, nil
}
