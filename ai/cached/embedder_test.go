package cached

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/driftlens/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedder(t *testing.T) {
	_, err := NewEmbedder(nil, 10, time.Minute)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	e, err := NewEmbedder(mock.NewMockEmbedder(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, e.ttl)
}

func TestEmbedder_EmbedText(t *testing.T) {
	delegate := mock.NewMockEmbedder()
	e, err := NewEmbedder(delegate, 2, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := e.EmbedText(ctx, "pelvic pain")
	require.NoError(t, err)
	second, err := e.EmbedText(ctx, "pelvic pain")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, delegate.CallCount())

	t.Run("returned vectors are copies", func(t *testing.T) {
		v, err := e.EmbedText(ctx, "pelvic pain")
		require.NoError(t, err)
		v[0] = 42
		again, err := e.EmbedText(ctx, "pelvic pain")
		require.NoError(t, err)
		assert.NotEqual(t, float32(42), again[0])
	})

	t.Run("least recently used entry is evicted", func(t *testing.T) {
		delegate.Reset()
		_, _ = e.EmbedText(ctx, "a")
		_, _ = e.EmbedText(ctx, "b")
		_, _ = e.EmbedText(ctx, "pelvic pain")
		assert.Equal(t, 3, delegate.CallCount())
		assert.Equal(t, 2, e.Len())
	})

	t.Run("errors are not cached", func(t *testing.T) {
		delegate.Reset()
		delegate.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
			return nil, errors.New("down")
		}
		_, err := e.EmbedText(ctx, "new text")
		assert.Error(t, err)
		_, err = e.EmbedText(ctx, "new text")
		assert.Error(t, err)
		assert.Equal(t, 2, delegate.CallCount())
	})
}

func TestEmbedder_Expiry(t *testing.T) {
	delegate := mock.NewMockEmbedder()
	e, err := NewEmbedder(delegate, 10, time.Minute)
	require.NoError(t, err)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }
	ctx := context.Background()

	_, err = e.EmbedText(ctx, "fatigue")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = e.EmbedText(ctx, "fatigue")
	require.NoError(t, err)
	assert.Equal(t, 1, delegate.CallCount())

	now = now.Add(2 * time.Minute)
	_, err = e.EmbedText(ctx, "fatigue")
	require.NoError(t, err)
	assert.Equal(t, 2, delegate.CallCount())
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	delegate := mock.NewMockEmbedder()
	var batches [][]string
	delegate.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		batches = append(batches, texts)
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.DeterministicVector(text, 8)
		}
		return out, nil
	}

	e, err := NewEmbedder(delegate, 10, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = e.EmbedText(ctx, "b")
	require.NoError(t, err)

	vectors, err := e.EmbedTexts(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, [][]string{{"a", "c"}}, batches)
	assert.Equal(t, mock.DeterministicVector("a", 8), vectors[0])
	assert.Equal(t, mock.DeterministicVector("b", mock.DefaultDimensions), vectors[1])

	t.Run("fully cached batch skips delegate", func(t *testing.T) {
		batches = nil
		_, err := e.EmbedTexts(ctx, []string{"a", "c"})
		require.NoError(t, err)
		assert.Empty(t, batches)
	})

	t.Run("batch mismatch", func(t *testing.T) {
		delegate.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
			return nil, nil
		}
		_, err := e.EmbedTexts(ctx, []string{"z"})
		assert.ErrorIs(t, err, ErrBatchMismatch)
	})
}
