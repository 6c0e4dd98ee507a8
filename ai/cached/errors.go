package cached

import "errors"

var (
	// ErrEmbedderRequired is returned when no delegate embedder is provided.
	ErrEmbedderRequired = errors.New("delegate embedder required")

	// ErrBatchMismatch is returned when the delegate returns the wrong number of vectors.
	ErrBatchMismatch = errors.New("delegate returned wrong number of vectors")
)
