// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate implements validation.Validatable so risk factors are checked
// when a payload is validated.
func (r RiskFactor) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Factor, validation.Required),
		validation.Field(&r.Weight, validation.Min(0)),
	)
}

// ValidatePayload validates a submission before any analysis runs.
//
// Validation rules:
//   - Narrative must not be blank
//   - Risk factors must name a factor and carry a non-negative weight
//   - Every series point must have a parseable date
//   - Each series uses one unit and its timestamps never decrease
//   - Metrics compared against a longitudinal baseline use the same unit in both series
//
// NOT validated:
//   - Series length (short or empty series are degenerate, not invalid)
//   - Metric names (unknown metrics are ignored by the analysis)
func ValidatePayload(p *Payload) error {
	if p == nil {
		return fmt.Errorf("%w: payload is nil", ErrInvalidPayload)
	}

	if strings.TrimSpace(p.Narrative) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, ErrEmptyNarrative)
	}

	if err := validation.ValidateStruct(p,
		validation.Field(&p.SubmissionID, validation.Length(0, 128)),
		validation.Field(&p.PatientID, validation.Length(0, 128)),
		validation.Field(&p.RiskFactors),
	); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	var errs []error
	for _, name := range sortedKeys(p.AcuteSeries) {
		series, err := acuteSeries(p.AcuteSeries[name])
		if err == nil {
			err = series.Validate()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("acute_series.%s: %w", name, err))
		}
	}
	for _, name := range sortedKeys(p.LongitudinalSeries) {
		series, err := longitudinalSeries(p.LongitudinalSeries[name])
		if err == nil {
			err = series.Validate()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("longitudinal_series.%s: %w", name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, errors.Join(errs...))
	}

	for _, spec := range metricSpecs {
		if spec.Policy != BaselineLongitudinal {
			continue
		}
		acute, _ := p.Acute(spec)
		longitudinal, _ := p.Longitudinal(spec)
		if len(acute) > 0 && len(longitudinal) > 0 && acute.Unit() != longitudinal.Unit() {
			errs = append(errs, fmt.Errorf("%s: %w: acute %q, longitudinal %q",
				spec.Name, ErrUnitMismatch, acute.Unit(), longitudinal.Unit()))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, errors.Join(errs...))
	}

	return nil
}

// ValidateCondition validates a corpus Condition according to domain rules.
//
// Validation rules:
//   - Label must not be empty
//   - Snippet must not be empty
//
// NOT validated (populated by the corpus tools):
//   - Vector (can be empty until embedded)
//   - ID (derived from Tuple when zero)
func ValidateCondition(condition *Condition) error {
	if condition == nil {
		return fmt.Errorf("%w: condition is nil", ErrInvalidCondition)
	}

	if strings.TrimSpace(condition.Label) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCondition, ErrEmptyConditionLabel)
	}

	if strings.TrimSpace(condition.Snippet) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCondition, ErrEmptySnippet)
	}

	return nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
