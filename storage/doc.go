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


// Package storage provides the storage abstraction layer for the condition corpus.
//
// This package defines repository interfaces that decouple storage implementation
// from retrieval logic. Two backends are provided:
//
//   - storage/badger: an embedded store with in-process cosine and keyword ranking
//   - storage/mongo: MongoDB Atlas using $vectorSearch and $search aggregations
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - SemanticRanker: embedding similarity ranking
//   - LexicalRanker: keyword relevance ranking (may be unavailable)
//   - ConditionReader: hydration of ranked IDs
//   - ConditionRepository: all of the above plus corpus maintenance
//
// Rankers return ordered core.RankedID lists. Fusion of the lists is the job of
// the search package, not of the backends.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer func() {
//	    repo.Close()
//	    backend.Close()
//	}()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
