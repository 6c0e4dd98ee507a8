package openai

import "errors"

var (
	// ErrEmptyEmbedding is returned when the embedding service answers without vectors.
	ErrEmptyEmbedding = errors.New("embedding service returned no vectors")

	// ErrEmptyResponse is returned when the chat model answers without choices.
	ErrEmptyResponse = errors.New("model returned no choices")

	// ErrMalformedBrief is returned when no attempt produced a parseable brief.
	ErrMalformedBrief = errors.New("malformed clinical brief")
)
