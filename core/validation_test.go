package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validPayload() *Payload {
	return &Payload{
		Narrative: "Severe pelvic pain for two weeks, worse at night.",
		RiskFactors: []RiskFactor{
			{Category: "gynecological", Factor: "family history of endometriosis", Severity: "moderate", Weight: 3},
		},
		AcuteSeries: map[string][]AcutePoint{
			"restingHeartRate": {
				{Date: "2025-03-01", Value: 68, Unit: "bpm"},
				{Date: "2025-03-02", Value: 70, Unit: "bpm"},
			},
		},
		LongitudinalSeries: map[string][]LongitudinalPoint{
			"restingHeartRate": {
				{WeekStart: "2025-01-06", Value: 64, Unit: "bpm"},
			},
		},
	}
}

func TestValidatePayload(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Payload)
		wantErr error
	}{
		{
			name:    "valid payload",
			mutate:  func(p *Payload) {},
			wantErr: nil,
		},
		{
			name:    "empty series are allowed",
			mutate:  func(p *Payload) { p.AcuteSeries = nil; p.LongitudinalSeries = nil },
			wantErr: nil,
		},
		{
			name:    "blank narrative",
			mutate:  func(p *Payload) { p.Narrative = "   " },
			wantErr: ErrEmptyNarrative,
		},
		{
			name:    "risk factor without factor",
			mutate:  func(p *Payload) { p.RiskFactors[0].Factor = "" },
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "negative risk weight",
			mutate:  func(p *Payload) { p.RiskFactors[0].Weight = -1 },
			wantErr: ErrInvalidPayload,
		},
		{
			name: "unparseable date",
			mutate: func(p *Payload) {
				p.AcuteSeries["restingHeartRate"][0].Date = "yesterday"
			},
			wantErr: ErrInvalidDate,
		},
		{
			name: "mixed units inside a series",
			mutate: func(p *Payload) {
				p.AcuteSeries["restingHeartRate"][1].Unit = "bps"
			},
			wantErr: ErrUnitMismatch,
		},
		{
			name: "decreasing timestamps",
			mutate: func(p *Payload) {
				p.AcuteSeries["restingHeartRate"][1].Date = "2025-02-01"
			},
			wantErr: ErrUnorderedTimestamps,
		},
		{
			name: "acute and longitudinal units differ",
			mutate: func(p *Payload) {
				p.LongitudinalSeries["restingHeartRate"][0].Unit = "bps"
			},
			wantErr: ErrUnitMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(p)

			err := ValidatePayload(p)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestValidatePayload_Nil(t *testing.T) {
	err := ValidatePayload(nil)
	if !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("ValidatePayload(nil) error = %v, want %v", err, ErrInvalidPayload)
	}
}

func TestValidateCondition(t *testing.T) {
	tests := []struct {
		name      string
		condition *Condition
		wantErr   error
	}{
		{
			name:      "valid condition",
			condition: &Condition{Label: "Endometriosis", Snippet: "Chronic pelvic pain."},
			wantErr:   nil,
		},
		{
			name:      "valid condition without vector",
			condition: &Condition{Label: "Endometriosis", Snippet: "Chronic pelvic pain.", Vector: nil},
			wantErr:   nil,
		},
		{
			name:      "nil condition",
			condition: nil,
			wantErr:   ErrInvalidCondition,
		},
		{
			name:      "empty label",
			condition: &Condition{Snippet: "Chronic pelvic pain."},
			wantErr:   ErrEmptyConditionLabel,
		},
		{
			name:      "empty snippet",
			condition: &Condition{Label: "Endometriosis"},
			wantErr:   ErrEmptySnippet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCondition(tt.condition)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCondition() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCondition() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
