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


// Package biometric quantifies how far a patient's acute window has drifted
// from their own baseline.
//
// Every metric kind is compared under one of two explicit baseline policies:
//
//   - core.BaselineLongitudinal: the mean of the acute series is compared to
//     the mean of an independent long-term series (ComputeDelta).
//   - core.BaselineAcuteSplit: the acute series is split; the first SplitAt
//     points are the baseline and the rest are the acute window
//     (ComputeSplitDelta).
//
// Means and deltas are rounded to two decimals. Significance is decided on
// the unrounded delta, which must strictly exceed the metric's threshold.
// An empty side has mean zero; short series are degenerate, never errors.
//
// All functions are pure and safe for concurrent use.
package biometric
