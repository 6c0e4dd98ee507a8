// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.BriefGenerator,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockGenerator := mock.NewMockBriefGenerator()
//	mockGenerator.GenerateBriefFunc = func(ctx context.Context, req ai.BriefRequest) (*core.ClinicalBrief, error) {
//	    return nil, errors.New("upstream down")
//	}
//
//	// Check call counts
//	count := mockGenerator.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockBriefGenerator: Echoes the request into a minimal brief
//   - MockProvider: Aggregates mock embedder and brief generator
//
// Call counters are atomic so the mocks can back concurrent pipelines.
package mock
