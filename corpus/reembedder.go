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

// Reembedder replaces the vector of every stored condition.
type Reembedder struct {
	repo     storage.ConditionRepository
	embedder ai.Embedder
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr), may be nil
func NewReembedder(repo storage.ConditionRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	return &Reembedder{
		repo:     repo,
		embedder: embedder,
		config:   config.withDefaults(),
		progress: progress,
		logger:   slog.Default().With("component", "corpus-reembedder"),
	}, nil
}

// Run re-embeds all conditions and returns the number updated.
func (r *Reembedder) Run(ctx context.Context) (int, error) {
	conditions, err := r.repo.GetAllConditions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load conditions: %w", err)
	}
	if len(conditions) == 0 {
		r.logger.Info("corpus is empty, nothing to re-embed")
		return 0, nil
	}

	r.logger.Info("re-embedding corpus", "conditions", len(conditions), "batch_size", r.config.BatchSize)
	tracker := NewProgressTracker(r.progress, len(conditions), r.config.ReportInterval)
	tracker.Start()

	updated := 0
	err = forEachBatch(ctx, conditions, r.config.BatchSize, func(batch []*core.Condition) error {
		if err := embedBatch(ctx, r.embedder, batch, r.config); err != nil {
			return err
		}
		if _, err := r.repo.UpdateConditions(ctx, batch...); err != nil {
			return fmt.Errorf("failed to update conditions: %w", err)
		}
		updated += len(batch)
		tracker.Add(len(batch))
		return nil
	})
	if err != nil {
		return updated, err
	}
	tracker.Finish()

	r.logger.Info("re-embedding complete", "conditions", updated, "elapsed", tracker.Elapsed())
	return updated, nil
}
