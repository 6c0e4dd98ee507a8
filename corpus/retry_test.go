package corpus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/driftlens/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyEmbedder fails the first failures calls, then embeds normally.
func flakyEmbedder(failures int, err error) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	calls := 0
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls <= failures {
			return nil, err
		}
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.DeterministicVector(text, 4)
		}
		return vectors, nil
	}
	return embedder
}

func TestEmbedWithRetry(t *testing.T) {
	rateLimited := errors.New("rate limited")
	texts := []string{"Endometriosis: pelvic pain", "Migraine: aura"}

	tests := []struct {
		name       string
		failures   int
		maxRetries int
		wantErr    error
		wantCalls  int
	}{
		{"first try", 0, 3, nil, 1},
		{"recovers after failures", 2, 5, nil, 3},
		{"all attempts fail", 10, 3, rateLimited, 3},
		{"single attempt", 10, 1, rateLimited, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := flakyEmbedder(tt.failures, rateLimited)
			cfg := &Config{MaxRetries: tt.maxRetries, RetryDelay: time.Millisecond}

			vectors, err := embedWithRetry(context.Background(), embedder, texts, cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, vectors)
			} else {
				require.NoError(t, err)
				assert.Len(t, vectors, len(texts))
			}
			assert.Equal(t, tt.wantCalls, embedder.CallCount())
		})
	}
}

func TestEmbedWithRetryInvalidAttempts(t *testing.T) {
	_, err := embedWithRetry(context.Background(), mock.NewMockEmbedder(), []string{"x"}, &Config{})
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestEmbedWithRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, _ []string) ([][]float32, error) {
		if embedder.CallCount() == 2 {
			cancel()
		}
		return nil, errors.New("unavailable")
	}

	_, err := embedWithRetry(ctx, embedder, []string{"x"}, &Config{MaxRetries: 10, RetryDelay: time.Millisecond})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, embedder.CallCount())
}

func TestEmbedWithRetryDoublesWait(t *testing.T) {
	var stamps []time.Time
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, _ []string) ([][]float32, error) {
		stamps = append(stamps, time.Now())
		return nil, errors.New("unavailable")
	}

	_, err := embedWithRetry(context.Background(), embedder, []string{"x"}, &Config{MaxRetries: 3, RetryDelay: 20 * time.Millisecond})
	require.Error(t, err)
	require.Len(t, stamps, 3)

	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 40*time.Millisecond)
}
