package ai

import (
	"context"

	"github.com/poiesic/driftlens/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// BriefRequest carries everything the generator grounds a clinical brief on.
type BriefRequest struct {
	// Narrative is the patient's own description of their symptoms.
	Narrative string

	// DeltaSummary is the formatted biometric delta summary.
	DeltaSummary string

	// RiskSummary lists the patient's risk factors. May be empty.
	RiskSummary string

	// RetrievalContext describes the best-matching conditions and the papers
	// behind them. May be empty, in which case no citations are expected.
	RetrievalContext string
}

// BriefGenerator turns a patient's narrative and biometric findings into a
// structured clinical brief.
// Implementations must be thread-safe for concurrent use.
type BriefGenerator interface {
	// GenerateBrief produces a structured brief for req.
	// Returns an error if the generator is unreachable or its output cannot
	// be parsed.
	GenerateBrief(ctx context.Context, req BriefRequest) (*core.ClinicalBrief, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and BriefGenerator instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// BriefGenerator returns the clinical brief service.
	// The returned BriefGenerator is safe for concurrent use.
	BriefGenerator() BriefGenerator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
