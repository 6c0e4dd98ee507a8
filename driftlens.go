// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package driftlens wires the corpus store, the AI provider, hybrid retrieval
// and the analysis pipeline into one Engine.
//
// A typical program opens an engine, seeds the corpus once and analyses
// submissions:
//
//	engine, err := driftlens.NewEngine("driftlens.db")
//	...
//	defer engine.Close()
//
//	pipeline, err := engine.NewPipeline()
//	...
//	defer pipeline.Release()
//	result, err := pipeline.Run(ctx, payload)
package driftlens

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/poiesic/driftlens/ai"
	"github.com/poiesic/driftlens/ai/cached"
	"github.com/poiesic/driftlens/ai/openai"
	"github.com/poiesic/driftlens/analysis"
	"github.com/poiesic/driftlens/core"
	"github.com/poiesic/driftlens/corpus"
	"github.com/poiesic/driftlens/search"
	"github.com/poiesic/driftlens/storage"
	"github.com/poiesic/driftlens/storage/badger"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrRepositoryRequired is returned by NewEngineWithRepository for a nil repository.
var ErrRepositoryRequired = errors.New("repository required")

// Engine owns the storage and AI resources shared by searchers and pipelines.
type Engine struct {
	backend  *badger.Backend
	repo     storage.ConditionRepository
	provider ai.AIProvider
	embedder ai.Embedder
	metrics  *analysis.Metrics
	// conditions is shared by every searcher; nil when disabled.
	conditions *cache.Cache
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig     *ai.Config
	provider     ai.AIProvider
	cacheSize    int
	cacheTTL     time.Duration
	conditionTTL time.Duration
	registerer   prometheus.Registerer
	logger       *slog.Logger
}

// WithAIConfig configures the OpenAI-compatible provider.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider uses provider instead of building one from the AI config.
// The engine closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithEmbeddingCache caches up to size query embeddings for ttl.
// A non-positive size disables the cache.
func WithEmbeddingCache(size int, ttl time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

// WithConditionCache caches hydrated search results for ttl, shared by every
// searcher the engine creates. Seeding and re-embedding through the engine
// flush it. A non-positive ttl disables the cache.
func WithConditionCache(ttl time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.conditionTTL = ttl
	}
}

// WithRegisterer records pipeline metrics in reg.
func WithRegisterer(reg prometheus.Registerer) EngineOption {
	return func(o *engineOptions) {
		o.registerer = reg
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens a badger corpus store at filePath.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	repo, err := badger.NewConditionRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	engine, err := newEngine(repo, opts...)
	if err != nil {
		repo.Close()
		backend.Close()
		return nil, err
	}
	engine.backend = backend
	return engine, nil
}

// NewEngineWithRepository builds an engine over an already opened corpus
// store, such as an atlas.ConditionRepository. The engine closes repo.
func NewEngineWithRepository(repo storage.ConditionRepository, opts ...EngineOption) (*Engine, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	return newEngine(repo, opts...)
}

func newEngine(repo storage.ConditionRepository, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	embedder := provider.Embedder()
	if options.cacheSize > 0 {
		c, err := cached.NewEmbedder(embedder, options.cacheSize, options.cacheTTL)
		if err != nil {
			provider.Close()
			return nil, err
		}
		embedder = c
	}

	var metrics *analysis.Metrics
	if options.registerer != nil {
		var err error
		metrics, err = analysis.NewMetrics(options.registerer)
		if err != nil {
			provider.Close()
			return nil, err
		}
	}

	var conditions *cache.Cache
	if options.conditionTTL > 0 {
		conditions = cache.New(options.conditionTTL, 2*options.conditionTTL)
	}

	return &Engine{
		repo:       repo,
		provider:   provider,
		embedder:   embedder,
		metrics:    metrics,
		conditions: conditions,
		logger:     options.logger,
	}, nil
}

// Close releases the provider, the repository and the backend.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.repo.Close(); err != nil {
		e.logger.Error("error closing condition repository", "err", err)
		return err
	}

	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			return err
		}
	}
	return nil
}

func (e *Engine) Repository() storage.ConditionRepository {
	return e.repo
}

// Embedder returns the engine's embedder, cached when configured.
func (e *Engine) Embedder() ai.Embedder {
	return e.embedder
}

// Metrics returns the pipeline metrics, or nil without a registerer.
func (e *Engine) Metrics() *analysis.Metrics {
	return e.metrics
}

// NewSearcher creates a searcher over the engine's corpus, sharing the
// engine's condition cache when one is configured.
func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{search.WithLogger(e.logger)}
	if e.conditions != nil {
		base = append(base, search.WithCache(e.conditions))
	}
	return search.NewSearcher(e.repo, append(base, opts...)...)
}

// InvalidateCaches drops every cached condition. Call it after writing to
// Repository() directly; the engine's seeders and reembedders do it for you.
func (e *Engine) InvalidateCaches() {
	if e.conditions != nil {
		e.conditions.Flush()
	}
}

// NewPipeline creates an analysis pipeline retrieving through a default
// searcher. Callers must Release it.
func (e *Engine) NewPipeline(opts ...analysis.Option) (*analysis.Pipeline, error) {
	searcher, err := e.NewSearcher()
	if err != nil {
		return nil, err
	}
	return e.NewPipelineWithRetriever(searcher, opts...)
}

// NewPipelineWithRetriever creates an analysis pipeline over retriever.
func (e *Engine) NewPipelineWithRetriever(retriever analysis.Retriever, opts ...analysis.Option) (*analysis.Pipeline, error) {
	base := []analysis.Option{analysis.WithLogger(e.logger)}
	if e.metrics != nil {
		base = append(base, analysis.WithMetrics(e.metrics))
	}
	return analysis.NewPipeline(retriever, &engineProvider{AIProvider: e.provider, embedder: e.embedder}, append(base, opts...)...)
}

// NewSeeder creates a corpus seeder. Seeding bypasses the query cache.
func (e *Engine) NewSeeder(opts ...corpus.SeederOption) (*corpus.Seeder, error) {
	opts = append([]corpus.SeederOption{corpus.WithSeederLogger(e.logger)}, opts...)
	return corpus.NewSeeder(e.writableRepository(), e.provider.Embedder(), opts...)
}

// NewReembedder creates a corpus reembedder writing progress to progress.
func (e *Engine) NewReembedder(cfg *corpus.Config, progress io.Writer) (*corpus.Reembedder, error) {
	return corpus.NewReembedder(e.writableRepository(), e.provider.Embedder(), cfg, progress)
}

func (e *Engine) writableRepository() storage.ConditionRepository {
	if e.conditions == nil {
		return e.repo
	}
	return &invalidatingRepository{ConditionRepository: e.repo, invalidate: e.InvalidateCaches}
}

// invalidatingRepository flushes the condition cache after every write,
// failed ones included, since a batch may have partly landed.
type invalidatingRepository struct {
	storage.ConditionRepository
	invalidate func()
}

func (r *invalidatingRepository) AddConditions(ctx context.Context, conditions ...*core.Condition) ([]*core.Condition, error) {
	defer r.invalidate()
	return r.ConditionRepository.AddConditions(ctx, conditions...)
}

func (r *invalidatingRepository) UpdateConditions(ctx context.Context, conditions ...*core.Condition) ([]*core.Condition, error) {
	defer r.invalidate()
	return r.ConditionRepository.UpdateConditions(ctx, conditions...)
}

func (r *invalidatingRepository) DeleteConditions(ctx context.Context, ids ...core.ID) error {
	defer r.invalidate()
	return r.ConditionRepository.DeleteConditions(ctx, ids...)
}

func (r *invalidatingRepository) DeleteAllConditions(ctx context.Context) error {
	defer r.invalidate()
	return r.ConditionRepository.DeleteAllConditions(ctx)
}

// engineProvider substitutes the engine's embedder for the provider's own.
type engineProvider struct {
	ai.AIProvider
	embedder ai.Embedder
}

func (p *engineProvider) Embedder() ai.Embedder {
	return p.embedder
}
