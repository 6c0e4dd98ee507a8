package core

import (
	"fmt"
	"sort"
)

// RiskFactor is a patient risk factor captured at intake.
type RiskFactor struct {
	Category    string `json:"category"`
	Factor      string `json:"factor"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Weight      int    `json:"weight"`
}

// AcutePoint is one daily observation as submitted.
type AcutePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Flag  string  `json:"flag,omitempty"`
}

// LongitudinalPoint is one weekly observation as submitted.
type LongitudinalPoint struct {
	WeekStart string  `json:"week_start"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Trend     string  `json:"trend,omitempty"`
}

// Payload is one patient submission.
type Payload struct {
	SubmissionID       string                         `json:"submission_id,omitempty"`
	PatientID          string                         `json:"patient_id,omitempty"`
	Narrative          string                         `json:"narrative"`
	RiskFactors        []RiskFactor                   `json:"risk_factors"`
	AcuteSeries        map[string][]AcutePoint        `json:"acute_series"`
	LongitudinalSeries map[string][]LongitudinalPoint `json:"longitudinal_series"`
}

// Acute returns the acute series for a metric. A metric absent from the
// submission yields an empty series.
func (p *Payload) Acute(spec MetricSpec) (MetricSeries, error) {
	points, _ := lookupSeries(p.AcuteSeries, spec.Name)
	return acuteSeries(points)
}

// Longitudinal returns the longitudinal series for a metric. A metric absent
// from the submission yields an empty series.
func (p *Payload) Longitudinal(spec MetricSpec) (MetricSeries, error) {
	points, _ := lookupSeries(p.LongitudinalSeries, spec.Name)
	return longitudinalSeries(points)
}

// SeriesNames returns every metric name present in the submission, sorted.
func (p *Payload) SeriesNames() []string {
	seen := make(map[string]bool)
	for name := range p.AcuteSeries {
		seen[name] = true
	}
	for name := range p.LongitudinalSeries {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookupSeries finds a series by exact name first, then by normalized name.
func lookupSeries[T any](series map[string][]T, name string) ([]T, bool) {
	if points, ok := series[name]; ok {
		return points, true
	}
	key := NormalizeMetricName(name)
	for candidate, points := range series {
		if NormalizeMetricName(candidate) == key {
			return points, true
		}
	}
	return nil, false
}

func acuteSeries(points []AcutePoint) (MetricSeries, error) {
	series := make(MetricSeries, 0, len(points))
	for i, p := range points {
		ts, err := ParseDate(p.Date)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		series = append(series, MetricPoint{Timestamp: ts, Value: p.Value, Unit: p.Unit, Label: p.Flag})
	}
	return series, nil
}

func longitudinalSeries(points []LongitudinalPoint) (MetricSeries, error) {
	series := make(MetricSeries, 0, len(points))
	for i, p := range points {
		ts, err := ParseDate(p.WeekStart)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		series = append(series, MetricPoint{Timestamp: ts, Value: p.Value, Unit: p.Unit, Label: p.Trend})
	}
	return series, nil
}
