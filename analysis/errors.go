package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrPipelineFailed matches every failure of an external stage.
	ErrPipelineFailed = errors.New("analysis pipeline failed")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrInvalidTopK is returned for a non-positive match count.
	ErrInvalidTopK = errors.New("topK must be positive")
)

// Stage names a step of the pipeline.
type Stage string

const (
	StageValidation Stage = "validation"
	StageDeltas     Stage = "deltas"
	StageEmbedding  Stage = "embedding"
	StageRetrieval  Stage = "retrieval"
	StageGeneration Stage = "generation"
)

// StageError reports a failed external stage. Its message names the stage
// only; the cause is reachable through errors.Is / errors.As.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s at %s stage", ErrPipelineFailed, e.Stage)
}

func (e *StageError) Unwrap() []error {
	return []error{ErrPipelineFailed, e.Err}
}
