// Package changepoint locates the point at which a series shifted away from
// its early level using a two-sided CUSUM (cumulative sum) test.
//
// The first BaselineWindow values define the expected level. Spread is the
// sample standard deviation of the whole series, and both the slack (K) and
// the decision threshold (H) are expressed in units of that spread, so one
// Detector can be applied to metrics with very different noise floors.
package changepoint

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/poiesic/driftlens/core"
)

const (
	// DefaultSlack is the default allowance K, in standard deviations.
	DefaultSlack = 0.5
	// DefaultThreshold is the default decision threshold H, in standard deviations.
	DefaultThreshold = 1.5
	// BaselineWindow is the number of leading values that define the target level.
	BaselineWindow = 3
	// MinObservations is the shortest series the detector will scan.
	MinObservations = 4

	magnitudePlaces = 4
)

var (
	// ErrLengthMismatch is returned when values and timestamps differ in length.
	ErrLengthMismatch = errors.New("values and timestamps differ in length")

	// ErrInvalidParameters is returned for a negative slack or non-positive threshold.
	ErrInvalidParameters = errors.New("invalid CUSUM parameters")
)

// Detector is a configured CUSUM test. The zero value is not usable; use
// Default or New.
type Detector struct {
	K float64 // Slack, in standard deviations
	H float64 // Decision threshold, in standard deviations
}

// Default returns a detector with K=0.5 and H=1.5.
func Default() Detector {
	return Detector{K: DefaultSlack, H: DefaultThreshold}
}

// New returns a detector with the given slack and threshold.
func New(k, h float64) (Detector, error) {
	d := Detector{K: k, H: h}
	if err := d.validate(); err != nil {
		return Detector{}, err
	}
	return d, nil
}

func (d Detector) validate() error {
	if math.IsNaN(d.K) || math.IsNaN(d.H) || d.K < 0 || d.H <= 0 {
		return fmt.Errorf("%w: k=%v h=%v", ErrInvalidParameters, d.K, d.H)
	}
	return nil
}

// Detect scans values in order and reports the first index at which either
// accumulator exceeds the decision threshold. ok is false when the series is
// too short, constant, or never crosses the threshold.
func (d Detector) Detect(values []float64, stamps []time.Time) (cp core.Changepoint, ok bool, err error) {
	if len(values) != len(stamps) {
		return core.Changepoint{}, false, fmt.Errorf("%w: %d values, %d timestamps", ErrLengthMismatch, len(values), len(stamps))
	}
	if err := d.validate(); err != nil {
		return core.Changepoint{}, false, err
	}
	if len(values) < MinObservations || constant(values) {
		return core.Changepoint{}, false, nil
	}

	spread, err := stats.StandardDeviationSample(values)
	if err != nil || spread == 0 || math.IsNaN(spread) {
		return core.Changepoint{}, false, nil
	}

	target, err := stats.Mean(values[:BaselineWindow])
	if err != nil {
		return core.Changepoint{}, false, nil
	}

	slack := d.K * spread
	threshold := d.H * spread

	var up, down float64
	for i, v := range values {
		up = math.Max(0, up+(v-target)-slack)
		down = math.Max(0, down+(target-v)-slack)

		if up > threshold {
			return changepointAt(stamps[i], core.DirectionUp, up), true, nil
		}
		if down > threshold {
			return changepointAt(stamps[i], core.DirectionDown, down), true, nil
		}
	}
	return core.Changepoint{}, false, nil
}

// DetectSeries runs Detect over a metric series.
func (d Detector) DetectSeries(series core.MetricSeries) (core.Changepoint, bool, error) {
	return d.Detect(series.Values(), series.Timestamps())
}

func changepointAt(ts time.Time, dir core.Direction, magnitude float64) core.Changepoint {
	rounded, err := stats.Round(magnitude, magnitudePlaces)
	if err != nil {
		rounded = magnitude
	}
	return core.Changepoint{Timestamp: ts, Direction: dir, Magnitude: rounded}
}

// constant reports whether every value equals the first. The sample standard
// deviation of such a series may come out as a tiny non-zero number.
func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
