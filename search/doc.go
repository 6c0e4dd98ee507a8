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


// Package search ranks corpus conditions against a patient narrative.
//
// The Searcher fuses two ranked lists produced by the storage layer:
//   - semantic ranking by embedding similarity
//   - lexical ranking by keyword relevance, condition names weighted highest
//
// Lists are combined with reciprocal rank fusion: an item's score is the sum
// of 1/rank over the lists that contain it. When lexical ranking cannot take
// part (no lexical ranker, empty query text, a lexical failure, fusion turned
// off, or an empty fused list) the Searcher falls back to semantic ranking by
// raw similarity. Each fallback is logged and reported to the SearchMonitor.
package search
