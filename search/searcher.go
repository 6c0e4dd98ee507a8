package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/poiesic/driftlens/core"
	"github.com/poiesic/driftlens/storage"
)

const (
	// DefaultPoolFactor sizes the candidate pool requested from each ranker
	// relative to topK.
	DefaultPoolFactor = 20

	// DefaultCacheTTL is the hydration cache lifetime used by WithConditionCache
	// when given a non-positive TTL.
	DefaultCacheTTL = 10 * time.Minute
)

// Corpus is the storage surface a Searcher needs: semantic ranking plus
// hydration of ranked IDs.
type Corpus interface {
	storage.SemanticRanker
	storage.ConditionReader
}

// Searcher ranks corpus conditions by fusing semantic and lexical relevance.
// It is safe for concurrent use.
type Searcher struct {
	corpus     Corpus
	lexical    storage.LexicalRanker
	fusion     bool
	poolFactor int
	cache      *cache.Cache
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithLexicalRanker sets the lexical ranker. By default the corpus is used
// when it implements storage.LexicalRanker.
func WithLexicalRanker(ranker storage.LexicalRanker) Option {
	return func(s *Searcher) error {
		s.lexical = ranker
		return nil
	}
}

// WithoutFusion disables lexical ranking; every search uses the semantic fallback.
func WithoutFusion() Option {
	return func(s *Searcher) error {
		s.fusion = false
		return nil
	}
}

// WithPoolFactor sets the candidate pool size as a multiple of topK.
func WithPoolFactor(factor int) Option {
	return func(s *Searcher) error {
		if factor < 1 {
			return ErrInvalidPoolFactor
		}
		s.poolFactor = factor
		return nil
	}
}

// WithConditionCache caches hydrated conditions for ttl.
func WithConditionCache(ttl time.Duration) Option {
	return func(s *Searcher) error {
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		s.cache = cache.New(ttl, 2*ttl)
		return nil
	}
}

// WithCache caches hydrated conditions in c, which may be shared by several
// searchers. Flushing c invalidates all of them.
func WithCache(c *cache.Cache) Option {
	return func(s *Searcher) error {
		s.cache = c
		return nil
	}
}

// NewSearcher creates a new searcher over corpus.
func NewSearcher(corpus Corpus, opts ...Option) (*Searcher, error) {
	if corpus == nil {
		return nil, ErrRepositoryRequired
	}

	s := &Searcher{
		corpus:     corpus,
		fusion:     true,
		poolFactor: DefaultPoolFactor,
		logger:     slog.Default(),
	}
	if lexical, ok := corpus.(storage.LexicalRanker); ok {
		s.lexical = lexical
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "search")

	return s, nil
}

// Search returns up to topK conditions ranked against vector and text.
func (s *Searcher) Search(ctx context.Context, vector []float32, text string, topK int) ([]core.CandidateCondition, error) {
	return s.SearchWithMonitor(ctx, vector, text, topK, nil)
}

// SearchWithMonitor is Search with callbacks at each stage.
//
// Only a semantic ranking failure is returned to the caller. Lexical
// failures degrade the search to semantic ranking.
func (s *Searcher) SearchWithMonitor(ctx context.Context, vector []float32, text string, topK int, monitor SearchMonitor) ([]core.CandidateCondition, error) {
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(text, topK)
	pool := topK * s.poolFactor

	fusion, reason := s.fusionAvailable(text)
	var lexicalCh chan lexicalResult
	if fusion {
		lexicalCh = make(chan lexicalResult, 1)
		go func() {
			ranked, err := s.lexical.RankLexical(ctx, text, pool)
			lexicalCh <- lexicalResult{ranked: ranked, err: err}
		}()
	}

	semantic, err := s.corpus.RankSemantic(ctx, vector, pool)
	if err != nil {
		s.logger.Error("semantic ranking failed", "err", err)
		if lexicalCh != nil {
			<-lexicalCh
		}
		return nil, err
	}
	monitor.AfterSemanticSearch(semantic)

	var lexical []core.RankedID
	if fusion {
		res := <-lexicalCh
		if res.err != nil {
			s.logger.Warn("lexical ranking unavailable, using semantic ranking", "err", res.err)
			monitor.LexicalUnavailable(res.err)
			fusion, reason = false, FallbackLexicalError
		} else {
			lexical = res.ranked
			monitor.AfterLexicalSearch(lexical)
		}
	}

	// The whole ranking is kept so hydrate can backfill past stale IDs.
	ranking, fused := rank(semantic, lexical, len(semantic)+len(lexical), fusion)
	if fusion && !fused {
		reason = FallbackEmptyFusion
	}
	if !fused {
		s.logger.Debug("semantic fallback", "reason", reason)
		monitor.Fallback(reason)
	}

	results, err := s.hydrate(ctx, ranking, topK)
	if err != nil {
		s.logger.Error("error retrieving conditions", "count", len(ranking), "err", err)
		return nil, err
	}

	monitor.Finish(results)
	return results, nil
}

type lexicalResult struct {
	ranked []core.RankedID
	err    error
}

func (s *Searcher) fusionAvailable(text string) (bool, FallbackReason) {
	switch {
	case !s.fusion:
		return false, FallbackFusionDisabled
	case s.lexical == nil:
		return false, FallbackNoLexicalRanker
	case strings.TrimSpace(text) == "":
		return false, FallbackEmptyQueryText
	}
	return true, ""
}

// hydrate resolves ranked IDs into up to topK candidates, preserving order.
// IDs the corpus no longer holds are skipped and the next ranked IDs take
// their place.
func (s *Searcher) hydrate(ctx context.Context, ranking []ranked, topK int) ([]core.CandidateCondition, error) {
	results := make([]core.CandidateCondition, 0, min(topK, len(ranking)))

	for next := 0; next < len(ranking) && len(results) < topK; {
		window := ranking[next:min(next+topK-len(results), len(ranking))]
		next += len(window)

		conditions, err := s.lookup(ctx, window)
		if err != nil {
			return nil, err
		}
		for _, r := range window {
			c, ok := conditions[r.id]
			if !ok {
				s.logger.Debug("ranked condition missing from corpus", "id", r.id)
				continue
			}
			results = append(results, core.CandidateCondition{
				Id:           c.Id,
				Condition:    c.Label,
				Title:        c.Title,
				SourceID:     c.SourceID,
				Snippet:      c.Snippet,
				Score:        r.score,
				SemanticRank: r.semanticRank,
				LexicalRank:  r.lexicalRank,
			})
		}
	}
	return results, nil
}

// lookup loads the conditions for window, from the cache when enabled.
func (s *Searcher) lookup(ctx context.Context, window []ranked) (map[core.ID]*core.Condition, error) {
	conditions := make(map[core.ID]*core.Condition, len(window))
	missing := make([]core.ID, 0, len(window))
	for _, r := range window {
		if c, ok := s.cached(r.id); ok {
			conditions[r.id] = c
			continue
		}
		missing = append(missing, r.id)
	}
	if len(missing) == 0 {
		return conditions, nil
	}

	found, err := s.corpus.GetConditions(ctx, missing...)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	for _, c := range found {
		conditions[c.Id] = c
		if s.cache != nil {
			s.cache.SetDefault(c.Id.String(), c)
		}
	}
	return conditions, nil
}

func (s *Searcher) cached(id core.ID) (*core.Condition, bool) {
	if s.cache == nil {
		return nil, false
	}
	v, ok := s.cache.Get(id.String())
	if !ok {
		return nil, false
	}
	c, ok := v.(*core.Condition)
	return c, ok
}

// InvalidateCache drops every cached condition.
func (s *Searcher) InvalidateCache() {
	if s.cache != nil {
		s.cache.Flush()
	}
}
