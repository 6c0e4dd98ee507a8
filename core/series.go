package core

import (
	"fmt"
	"time"
)

// Accepted timestamp layouts for series points.
var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
}

// ParseDate parses a series timestamp, either a calendar date or RFC 3339.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// MetricPoint is a single observation of a physiological metric.
type MetricPoint struct {
	Timestamp time.Time
	Value     float64
	Unit      string
	Label     string // Optional flag or trend annotation
}

// MetricSeries is an ordered run of observations, oldest first.
type MetricSeries []MetricPoint

// Values returns the observation values in order.
func (s MetricSeries) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Value
	}
	return values
}

// Timestamps returns the observation timestamps in order.
func (s MetricSeries) Timestamps() []time.Time {
	stamps := make([]time.Time, len(s))
	for i, p := range s {
		stamps[i] = p.Timestamp
	}
	return stamps
}

// Unit returns the unit of the series, or "" for an empty series.
func (s MetricSeries) Unit() string {
	if len(s) == 0 {
		return ""
	}
	return s[0].Unit
}

// Validate checks that the series uses one unit and that timestamps never decrease.
func (s MetricSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		if s[i].Unit != s[0].Unit {
			return fmt.Errorf("%w: point %d is %q, series is %q", ErrUnitMismatch, i, s[i].Unit, s[0].Unit)
		}
		if s[i].Timestamp.Before(s[i-1].Timestamp) {
			return fmt.Errorf("%w: point %d", ErrUnorderedTimestamps, i)
		}
	}
	return nil
}
