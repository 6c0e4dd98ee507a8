package core

import (
	"encoding/json"
	"time"
)

// Direction is the direction of a sustained shift.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Changepoint marks where a series shifted away from its early level.
type Changepoint struct {
	Timestamp time.Time
	Direction Direction
	Magnitude float64 // Accumulated deviation at detection, in series units
}

// BiometricDelta is the outcome of comparing a metric's acute window to its baseline.
type BiometricDelta struct {
	Metric       string
	Kind         MetricKind
	AcuteMean    float64
	BaselineMean float64
	Delta        float64 // Absolute difference, always >= 0
	Unit         string
	Significant  bool
	Changepoint  *Changepoint
}

// WithChangepoint returns a copy of the delta annotated with a change point.
func (d BiometricDelta) WithChangepoint(cp Changepoint) BiometricDelta {
	d.Changepoint = &cp
	return d
}

type biometricDeltaJSON struct {
	Metric                string    `json:"metric"`
	AcuteAvg              float64   `json:"acute_avg"`
	BaselineAvg           float64   `json:"baseline_avg"`
	Delta                 float64   `json:"delta"`
	Unit                  string    `json:"unit"`
	ClinicallySignificant bool      `json:"clinically_significant"`
	ChangepointDetected   bool      `json:"changepoint_detected"`
	ChangepointDate       string    `json:"changepoint_date,omitempty"`
	ChangepointDirection  Direction `json:"changepoint_direction,omitempty"`
	ChangepointMagnitude  float64   `json:"changepoint_magnitude,omitempty"`
}

// MarshalJSON renders the delta in the flat wire form.
func (d BiometricDelta) MarshalJSON() ([]byte, error) {
	out := biometricDeltaJSON{
		Metric:                d.Metric,
		AcuteAvg:              d.AcuteMean,
		BaselineAvg:           d.BaselineMean,
		Delta:                 d.Delta,
		Unit:                  d.Unit,
		ClinicallySignificant: d.Significant,
	}
	if d.Changepoint != nil {
		out.ChangepointDetected = true
		out.ChangepointDate = d.Changepoint.Timestamp.Format(time.DateOnly)
		out.ChangepointDirection = d.Changepoint.Direction
		out.ChangepointMagnitude = d.Changepoint.Magnitude
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the flat wire form.
func (d *BiometricDelta) UnmarshalJSON(data []byte) error {
	var in biometricDeltaJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	spec, ok := LookupMetric(in.Metric)
	if !ok {
		spec = UnconfiguredMetric(in.Metric, in.Unit)
	}
	*d = BiometricDelta{
		Metric:       in.Metric,
		Kind:         spec.Kind,
		AcuteMean:    in.AcuteAvg,
		BaselineMean: in.BaselineAvg,
		Delta:        in.Delta,
		Unit:         in.Unit,
		Significant:  in.ClinicallySignificant,
	}
	if in.ChangepointDetected {
		ts, err := ParseDate(in.ChangepointDate)
		if err != nil {
			return err
		}
		d.Changepoint = &Changepoint{Timestamp: ts, Direction: in.ChangepointDirection, Magnitude: in.ChangepointMagnitude}
	}
	return nil
}

// ClinicalBrief is the structured summary produced by the brief generator.
type ClinicalBrief struct {
	Summary            string   `json:"summary"`
	ClinicalIntake     string   `json:"clinical_intake"`
	PrimaryConcern     string   `json:"primary_concern"`
	KeySymptoms        []string `json:"key_symptoms"`
	SeverityAssessment string   `json:"severity_assessment"`
	RecommendedActions []string `json:"recommended_actions"`
	CitedSources       []string `json:"cited_sources"`
	GuidingQuestions   []string `json:"guiding_questions"`
}

// AnalysisResult is the full outcome of analysing one submission.
type AnalysisResult struct {
	SubmissionID     string               `json:"submission_id"`
	PatientID        string               `json:"patient_id,omitempty"`
	BiometricDeltas  []BiometricDelta     `json:"biometric_deltas"`
	ConditionMatches []CandidateCondition `json:"condition_matches"`
	ClinicalBrief    *ClinicalBrief       `json:"clinical_brief"`
	RiskFactors      []RiskFactor         `json:"risk_factors,omitempty"`
	CompletedAt      time.Time            `json:"completed_at"`
}

// SignificantDeltas returns the deltas flagged as clinically significant.
func (r *AnalysisResult) SignificantDeltas() []BiometricDelta {
	var out []BiometricDelta
	for _, d := range r.BiometricDeltas {
		if d.Significant {
			out = append(out, d)
		}
	}
	return out
}
