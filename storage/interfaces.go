package storage

import (
	"context"

	"github.com/poiesic/driftlens/core"
)

// SemanticRanker ranks corpus entries by embedding similarity.
type SemanticRanker interface {
	// RankSemantic returns up to limit condition IDs ordered by similarity to
	// vector, most similar first. Scores are raw similarities.
	RankSemantic(ctx context.Context, vector []float32, limit int) ([]core.RankedID, error)
}

// LexicalRanker ranks corpus entries by keyword relevance.
type LexicalRanker interface {
	// RankLexical returns up to limit condition IDs ordered by relevance to
	// query, most relevant first. Condition names weigh more than titles and
	// snippets. Returns ErrLexicalUnavailable when the backend cannot serve
	// keyword queries.
	RankLexical(ctx context.Context, query string, limit int) ([]core.RankedID, error)
}

// ConditionReader hydrates ranked IDs into corpus entries.
type ConditionReader interface {
	// GetConditions retrieves multiple conditions by their IDs.
	// Returns only the conditions that exist (no error for missing conditions).
	GetConditions(ctx context.Context, ids ...core.ID) ([]*core.Condition, error)
}

// ConditionRepository stores the medical-literature corpus.
type ConditionRepository interface {
	SemanticRanker
	LexicalRanker
	ConditionReader

	// AddConditions inserts or replaces conditions.
	// Uses content-based IDs (IDFromContent of the condition tuple) when ID is zero.
	// Sets InsertedAt and UpdatedAt.
	// Returns the conditions with IDs and timestamps populated.
	AddConditions(ctx context.Context, conditions ...*core.Condition) ([]*core.Condition, error)

	// UpdateConditions updates existing conditions.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any condition doesn't exist.
	UpdateConditions(ctx context.Context, conditions ...*core.Condition) ([]*core.Condition, error)

	// DeleteConditions removes conditions by their IDs.
	// Returns ErrNotFound if any condition doesn't exist.
	DeleteConditions(ctx context.Context, ids ...core.ID) error

	// DeleteAllConditions empties the corpus.
	DeleteAllConditions(ctx context.Context) error

	// GetCondition retrieves a single condition by ID.
	// Returns ErrNotFound if the condition doesn't exist.
	GetCondition(ctx context.Context, id core.ID) (*core.Condition, error)

	// GetAllConditions retrieves every condition in the corpus.
	GetAllConditions(ctx context.Context) ([]*core.Condition, error)

	// CountConditions returns the number of conditions in the corpus.
	CountConditions(ctx context.Context) (int, error)

	// Close releases resources held by the repository.
	Close() error
}
