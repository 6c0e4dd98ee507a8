package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/driftlens/ai"
	"github.com/poiesic/driftlens/biometric"
	"github.com/poiesic/driftlens/changepoint"
	"github.com/poiesic/driftlens/core"
	"github.com/poiesic/driftlens/search"
)

const (
	// DefaultTopK is the number of condition matches returned per submission.
	DefaultTopK = 5

	// DefaultContextMatches is the number of top matches rendered into the
	// generator's retrieval context.
	DefaultContextMatches = 3

	// DefaultStageTimeout bounds each external call.
	DefaultStageTimeout = 30 * time.Second
)

// Retriever ranks corpus conditions. *search.Searcher implements it.
type Retriever interface {
	Search(ctx context.Context, vector []float32, text string, topK int) ([]core.CandidateCondition, error)
}

// monitoredRetriever is implemented by retrievers that report their stages.
type monitoredRetriever interface {
	SearchWithMonitor(ctx context.Context, vector []float32, text string, topK int, monitor search.SearchMonitor) ([]core.CandidateCondition, error)
}

// Pipeline orchestrates the analysis of patient submissions.
// It is safe for concurrent use; each Run keeps its own state.
type Pipeline struct {
	retriever      Retriever
	embedder       ai.Embedder
	generator      ai.BriefGenerator
	detector       *changepoint.Detector
	pool           *ants.Pool
	metrics        *Metrics
	topK           int
	contextMatches int
	stageTimeout   time.Duration
	unconfigured   bool
	logger         *slog.Logger
	now            func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of submissions analysed concurrently by
// Submit and RunAll. Default is runtime.NumCPU().
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithTopK sets the number of condition matches per submission.
func WithTopK(topK int) Option {
	return func(p *Pipeline) error {
		if topK <= 0 {
			return ErrInvalidTopK
		}
		p.topK = topK
		return nil
	}
}

// WithStageTimeout bounds each external call. Non-positive disables the bound;
// the caller's context still applies.
func WithStageTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		p.stageTimeout = timeout
		return nil
	}
}

// WithChangepointDetector sets the detector used to annotate deltas.
func WithChangepointDetector(d changepoint.Detector) Option {
	return func(p *Pipeline) error {
		if _, err := changepoint.New(d.K, d.H); err != nil {
			return err
		}
		p.detector = &d
		return nil
	}
}

// WithoutChangepoints disables change-point annotation.
func WithoutChangepoints() Option {
	return func(p *Pipeline) error {
		p.detector = nil
		return nil
	}
}

// WithMetrics records pipeline activity in m.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) error {
		p.metrics = m
		return nil
	}
}

// WithUnconfiguredMetrics also analyses series whose names match no known
// metric. They carry a zero threshold, so any nonzero delta is significant.
func WithUnconfiguredMetrics() Option {
	return func(p *Pipeline) error {
		p.unconfigured = true
		return nil
	}
}

// NewPipeline creates a new analysis pipeline.
func NewPipeline(retriever Retriever, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	detector := changepoint.Default()
	p := &Pipeline{
		retriever:      retriever,
		embedder:       provider.Embedder(),
		generator:      provider.BriefGenerator(),
		detector:       &detector,
		topK:           DefaultTopK,
		contextMatches: DefaultContextMatches,
		stageTimeout:   DefaultStageTimeout,
		logger:         slog.Default(),
		now:            time.Now,
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}

	if p.pool == nil {
		pool, err := ants.NewPool(runtime.NumCPU())
		if err != nil {
			return nil, err
		}
		p.pool = pool
	}
	p.logger = p.logger.With("component", "analysis")

	return p, nil
}

// Run analyses one submission. Nothing is returned on failure: validation
// and delta errors wrap core.ErrInvalidPayload, external stage failures are
// *StageError values, and caller cancellation returns the context error.
func (p *Pipeline) Run(ctx context.Context, payload *core.Payload) (*core.AnalysisResult, error) {
	p.metrics.runStarted()
	result, err := p.run(ctx, payload)
	p.metrics.runFinished(outcome(err))
	return result, err
}

func (p *Pipeline) run(ctx context.Context, payload *core.Payload) (*core.AnalysisResult, error) {
	if err := core.ValidatePayload(payload); err != nil {
		p.logger.Warn("rejected submission", "err", err)
		return nil, err
	}

	submissionID := payload.SubmissionID
	if submissionID == "" {
		submissionID = uuid.NewString()
	}
	logger := p.logger.With("submission", submissionID)

	// Deltas
	start := time.Now()
	deltas, err := p.computeDeltas(payload)
	p.metrics.stage(StageDeltas, time.Since(start), err)
	if err != nil {
		logger.Warn("delta computation failed", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidPayload, err)
	}
	p.metrics.deltas(deltas)
	deltaSummary := biometric.FormatSummary(deltas)

	// Embedding
	var vector []float32
	err = p.stage(ctx, logger, StageEmbedding, func(ctx context.Context) error {
		vector, err = p.embedder.EmbedText(ctx, embeddingText(payload.Narrative, deltaSummary))
		return err
	})
	if err != nil {
		return nil, err
	}

	// Retrieval
	var matches []core.CandidateCondition
	err = p.stage(ctx, logger, StageRetrieval, func(ctx context.Context) error {
		matches, err = p.search(ctx, vector, payload.Narrative)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Generation
	req := ai.BriefRequest{
		Narrative:        payload.Narrative,
		DeltaSummary:     deltaSummary,
		RiskSummary:      FormatRiskSummary(payload.RiskFactors),
		RetrievalContext: FormatRetrievalContext(matches[:min(p.contextMatches, len(matches))]),
	}
	var brief *core.ClinicalBrief
	err = p.stage(ctx, logger, StageGeneration, func(ctx context.Context) error {
		brief, err = p.generator.GenerateBrief(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	if matches == nil {
		matches = []core.CandidateCondition{}
	}
	logger.Info("analysis complete",
		"deltas", len(deltas),
		"matches", len(matches))

	return &core.AnalysisResult{
		SubmissionID:     submissionID,
		PatientID:        payload.PatientID,
		BiometricDeltas:  deltas,
		ConditionMatches: matches,
		ClinicalBrief:    brief,
		RiskFactors:      payload.RiskFactors,
		CompletedAt:      p.now().UTC(),
	}, nil
}

// stage runs fn under the stage timeout and classifies its failure.
func (p *Pipeline) stage(ctx context.Context, logger *slog.Logger, stage Stage, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stageCtx := ctx
	if p.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, p.stageTimeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(stageCtx)
	p.metrics.stage(stage, time.Since(start), err)
	if err == nil {
		return nil
	}

	// The caller gave up; this is not a stage failure.
	if ctxErr := ctx.Err(); ctxErr != nil {
		logger.Info("analysis cancelled", "stage", stage)
		return ctxErr
	}

	logger.Error("stage failed", "stage", stage, "err", err)
	return &StageError{Stage: stage, Err: err}
}

func (p *Pipeline) search(ctx context.Context, vector []float32, text string) ([]core.CandidateCondition, error) {
	if mr, ok := p.retriever.(monitoredRetriever); ok {
		if monitor := p.metrics.searchMonitor(); monitor != nil {
			return mr.SearchWithMonitor(ctx, vector, text, p.topK, monitor)
		}
	}
	return p.retriever.Search(ctx, vector, text, p.topK)
}

// Submit analyses payload on the worker pool and reports to done.
// Returns an error only when the pool rejects the task.
func (p *Pipeline) Submit(ctx context.Context, payload *core.Payload, done func(*core.AnalysisResult, error)) error {
	return p.pool.Submit(func() {
		result, err := p.Run(ctx, payload)
		if done != nil {
			done(result, err)
		}
	})
}

// RunAll analyses payloads concurrently on the worker pool. Results keep the
// order of payloads; failed submissions leave a nil entry and contribute to
// the joined error.
func (p *Pipeline) RunAll(ctx context.Context, payloads []*core.Payload) ([]*core.AnalysisResult, error) {
	results := make([]*core.AnalysisResult, len(payloads))
	errs := make([]error, len(payloads))

	var wg sync.WaitGroup
	for i, payload := range payloads {
		wg.Add(1)
		err := p.Submit(ctx, payload, func(result *core.AnalysisResult, err error) {
			defer wg.Done()
			results[i] = result
			if err != nil {
				errs[i] = fmt.Errorf("submission %d: %w", i, err)
			}
		})
		if err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("submission %d: %w", i, err)
		}
	}
	wg.Wait()

	return results, errors.Join(errs...)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrPipelineFailed):
		return OutcomeFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeInvalid
	}
}
