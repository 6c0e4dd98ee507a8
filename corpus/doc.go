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


// Package corpus loads, seeds and re-embeds the medical-literature corpus.
//
// The bundled entries (conditions.json) pair a condition with the paper that
// describes it. Seeding embeds each entry's "label: snippet" text in batches,
// retrying failed embedding calls with exponential backoff, and writes the
// normalized vectors through a storage.ConditionRepository. Re-embedding
// replaces every stored vector after an embedding model change.
package corpus
