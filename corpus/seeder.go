package corpus

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/driftlens/ai"
	"github.com/poiesic/driftlens/core"
	"github.com/poiesic/driftlens/storage"
)

// Seeder embeds corpus entries and stores them.
type Seeder struct {
	repo     storage.ConditionRepository
	embedder ai.Embedder
	config   *Config
	progress io.Writer
	replace  bool
	logger   *slog.Logger
}

// SeederOption configures a Seeder.
type SeederOption func(*Seeder)

// WithReplace empties the corpus before seeding.
func WithReplace() SeederOption {
	return func(s *Seeder) {
		s.replace = true
	}
}

// WithProgress writes progress lines to w.
func WithProgress(w io.Writer) SeederOption {
	return func(s *Seeder) {
		s.progress = w
	}
}

// WithSeederConfig overrides batching and retry settings.
func WithSeederConfig(cfg *Config) SeederOption {
	return func(s *Seeder) {
		s.config = cfg.withDefaults()
	}
}

// WithSeederLogger sets a custom logger.
func WithSeederLogger(logger *slog.Logger) SeederOption {
	return func(s *Seeder) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSeeder creates a seeder writing to repo.
func NewSeeder(repo storage.ConditionRepository, embedder ai.Embedder, opts ...SeederOption) (*Seeder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Seeder{
		repo:     repo,
		embedder: embedder,
		config:   DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "corpus-seeder")
	return s, nil
}

// Seed embeds and stores entries, returning the number stored. Entries with
// the same condition and source replace each other.
func (s *Seeder) Seed(ctx context.Context, entries []Entry) (int, error) {
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("%w %d (%s): %w", ErrInvalidEntry, i, e.Condition, err)
		}
	}

	if s.replace {
		existing, err := s.repo.CountConditions(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count conditions: %w", err)
		}
		if existing > 0 {
			s.logger.Info("replacing corpus", "existing", existing)
			if err := s.repo.DeleteAllConditions(ctx); err != nil {
				return 0, fmt.Errorf("failed to clear corpus: %w", err)
			}
		}
	}

	conditions := Conditions(entries)
	tracker := NewProgressTracker(s.progress, len(conditions), s.config.ReportInterval)
	tracker.Start()

	stored := 0
	err := forEachBatch(ctx, conditions, s.config.BatchSize, func(batch []*core.Condition) error {
		if err := embedBatch(ctx, s.embedder, batch, s.config); err != nil {
			return err
		}
		if _, err := s.repo.AddConditions(ctx, batch...); err != nil {
			return fmt.Errorf("failed to store conditions: %w", err)
		}
		stored += len(batch)
		tracker.Add(len(batch))
		return nil
	})
	if err != nil {
		return stored, err
	}
	tracker.Finish()

	s.logger.Info("corpus seeded", "conditions", stored, "elapsed", tracker.Elapsed())
	return stored, nil
}
