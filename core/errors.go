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

import "errors"

// Domain validation errors
var (
	// ErrInvalidPayload indicates a submission failed validation.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrInvalidCondition indicates a corpus Condition failed validation.
	ErrInvalidCondition = errors.New("invalid condition")

	// ErrUnitMismatch indicates series that must share a unit do not.
	ErrUnitMismatch = errors.New("unit mismatch")

	// ErrUnorderedTimestamps indicates a series whose timestamps decrease.
	ErrUnorderedTimestamps = errors.New("series timestamps are not in order")

	// ErrInvalidDate indicates a timestamp that could not be parsed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrEmptyNarrative indicates the narrative field is empty.
	ErrEmptyNarrative = errors.New("narrative cannot be empty")

	// ErrEmptyConditionLabel indicates the condition Label field is empty.
	ErrEmptyConditionLabel = errors.New("condition label cannot be empty")

	// ErrEmptySnippet indicates the condition Snippet field is empty.
	ErrEmptySnippet = errors.New("condition snippet cannot be empty")

	// ErrInvalidID indicates an identifier that could not be parsed.
	ErrInvalidID = errors.New("invalid id")
)
