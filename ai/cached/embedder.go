// Package cached wraps an ai.Embedder with a bounded, expiring cache.
//
// Narratives are often re-analysed unchanged, and corpus tools embed the
// same condition text repeatedly; both skip the embedding service on a hit.
package cached

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/poiesic/driftlens/ai"
)

const (
	DefaultSize = 1024
	DefaultTTL  = time.Hour
)

type entry struct {
	vector []float32
	expiry time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiry)
}

// Embedder caches vectors by input text. It is safe for concurrent use.
type Embedder struct {
	delegate ai.Embedder
	ttl      time.Duration
	lru      *simplelru.LRU
	mu       sync.Mutex
	now      func() time.Time
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder wraps delegate with an LRU of size entries that expire after ttl.
// Non-positive values select DefaultSize and DefaultTTL.
func NewEmbedder(delegate ai.Embedder, size int, ttl time.Duration) (*Embedder, error) {
	if delegate == nil {
		return nil, ErrEmbedderRequired
	}
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	lru, err := simplelru.NewLRU(size, nil)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		delegate: delegate,
		ttl:      ttl,
		lru:      lru,
		now:      time.Now,
	}, nil
}

// EmbedText returns the cached vector for text or embeds and caches it.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.get(text); ok {
		return v, nil
	}

	v, err := e.delegate.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	e.set(text, v)
	return clone(v), nil
}

// EmbedTexts embeds only the texts missing from the cache, in one batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if v, ok := e.get(text); ok {
			results[i] = v
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return results, nil
	}

	vectors, err := e.delegate.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing) {
		return nil, ErrBatchMismatch
	}
	for j, v := range vectors {
		e.set(missing[j], v)
		results[missingIdx[j]] = clone(v)
	}
	return results, nil
}

// Len returns the number of cached entries, expired ones included.
func (e *Embedder) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lru.Len()
}

// Purge empties the cache.
func (e *Embedder) Purge() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lru.Purge()
}

func (e *Embedder) get(text string) ([]float32, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.lru.Get(text)
	if !ok {
		return nil, false
	}
	cached := v.(entry)
	if cached.expired(e.now()) {
		e.lru.Remove(text)
		return nil, false
	}
	return clone(cached.vector), true
}

func (e *Embedder) set(text string, vector []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.lru.Add(text, entry{vector: clone(vector), expiry: e.now().Add(e.ttl)})
}

// clone keeps callers from mutating cached vectors.
func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
