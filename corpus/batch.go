package corpus

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/driftlens/ai"
	"github.com/poiesic/driftlens/core"
)

const (
	// DefaultBatchSize is the number of conditions embedded per request.
	DefaultBatchSize = 32

	// DefaultMaxRetries is the number of attempts per embedding request.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the delay before the first retry.
	DefaultRetryDelay = time.Second
)

// Config controls batching and retries.
type Config struct {
	// BatchSize is the number of conditions embedded per request
	BatchSize int

	// ReportInterval is how often to report progress (number of conditions)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per embedding request
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: DefaultBatchSize,
		MaxRetries:     DefaultMaxRetries,
		RetryDelay:     DefaultRetryDelay,
	}
}

func (c *Config) withDefaults() *Config {
	out := *DefaultConfig()
	if c == nil {
		return &out
	}
	if c.BatchSize > 0 {
		out.BatchSize = c.BatchSize
	}
	if c.ReportInterval > 0 {
		out.ReportInterval = c.ReportInterval
	}
	if c.MaxRetries > 0 {
		out.MaxRetries = c.MaxRetries
	}
	if c.RetryDelay > 0 {
		out.RetryDelay = c.RetryDelay
	}
	return &out
}

// embedBatch embeds the conditions' text and stores normalized vectors on them.
func embedBatch(ctx context.Context, embedder ai.Embedder, conditions []*core.Condition, cfg *Config) error {
	if len(conditions) == 0 {
		return nil
	}

	texts := make([]string, len(conditions))
	for i, c := range conditions {
		texts[i] = c.EmbeddingText()
	}

	vectors, err := embedWithRetry(ctx, embedder, texts, cfg)
	if err != nil {
		return err
	}
	if len(vectors) != len(conditions) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(conditions), len(vectors))
	}

	for i, c := range conditions {
		c.Vector = ai.NormalizeVector(vectors[i])
	}
	return nil
}

// forEachBatch calls fn with consecutive slices of at most size items,
// checking ctx between batches.
func forEachBatch[T any](ctx context.Context, items []T, size int, fn func([]T) error) error {
	for start := 0; start < len(items); start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(items[start:min(start+size, len(items))]); err != nil {
			return err
		}
	}
	return nil
}
