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


// Package ai provides abstractions for the AI services used by driftlens.
//
// Two collaborators are modelled here:
//
//   - Embedder: turns text into vectors for semantic ranking
//   - BriefGenerator: writes the structured clinical brief
//
// AIProvider aggregates both behind one lifecycle.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs through langchaingo
//   - ai/cached: an LRU embedding cache wrapping any Embedder
//   - ai/mock: test doubles with injectable behavior and call counts
//
// Public constructors in ai/openai return interface types. Mock
// constructors return concrete types so tests can inject behavior and
// inspect call counts.
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, narrative)
//	brief, err := provider.BriefGenerator().GenerateBrief(ctx, ai.BriefRequest{Narrative: narrative})
package ai
