package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/poiesic/driftlens"
	"github.com/poiesic/driftlens/analysis"
	"github.com/poiesic/driftlens/config"
	"github.com/poiesic/driftlens/core"
	"github.com/poiesic/driftlens/corpus"
	"github.com/poiesic/driftlens/search"
	"github.com/poiesic/driftlens/storage/atlas"
	"github.com/urfave/cli/v2"
)

var errQueryRequired = errors.New("search query is required")

// openEngine opens the configured corpus store and AI provider.
func openEngine(ctx context.Context, s *config.Settings) (*driftlens.Engine, error) {
	opts := []driftlens.EngineOption{
		driftlens.WithAIConfig(s.AIConfig()),
		driftlens.WithEmbeddingCache(s.EmbeddingCache, 0),
		driftlens.WithConditionCache(s.ConditionCacheTTL),
		driftlens.WithLogger(slog.Default()),
	}

	if s.Backend != config.BackendAtlas {
		engine, err := driftlens.NewEngine(s.DataPath, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return engine, nil
	}

	repo, err := atlas.Open(ctx, s.AtlasConfig(), atlas.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	engine, err := driftlens.NewEngineWithRepository(repo, opts...)
	if err != nil {
		repo.Close()
		return nil, err
	}
	return engine, nil
}

func analyzeCommand(c *cli.Context) error {
	ctx := c.Context
	s := settingsOf(c)

	payloads, batch, err := readPayloads(c.Args().First(), c.App.Reader)
	if err != nil {
		return err
	}

	engine, err := openEngine(ctx, s)
	if err != nil {
		return err
	}
	defer engine.Close()

	searcher, err := engine.NewSearcher(searchOptions(c, s)...)
	if err != nil {
		return err
	}

	topK := s.TopK
	if c.IsSet("top-k") {
		topK = c.Int("top-k")
	}
	timeout := s.StageTimeout
	if c.IsSet("stage-timeout") {
		timeout = c.Duration("stage-timeout")
	}
	opts := []analysis.Option{
		analysis.WithTopK(topK),
		analysis.WithStageTimeout(timeout),
	}
	workers := s.Workers
	if c.IsSet("workers") {
		workers = c.Int("workers")
	}
	if workers > 0 {
		opts = append(opts, analysis.WithPoolSize(workers))
	}
	if c.Bool("no-changepoints") {
		opts = append(opts, analysis.WithoutChangepoints())
	}
	if c.Bool("unconfigured-metrics") {
		opts = append(opts, analysis.WithUnconfiguredMetrics())
	}

	pipeline, err := engine.NewPipelineWithRetriever(searcher, opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	if batch {
		results, runErr := pipeline.RunAll(ctx, payloads)
		if err := writeJSON(c.App.Writer, results, c.Bool("pretty")); err != nil {
			return err
		}
		if runErr != nil {
			return fmt.Errorf("some submissions failed: %w", runErr)
		}
		return nil
	}

	result, err := pipeline.Run(ctx, payloads[0])
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return writeJSON(c.App.Writer, result, c.Bool("pretty"))
}

func searchCommand(c *cli.Context) error {
	ctx := c.Context
	s := settingsOf(c)

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errQueryRequired
	}
	topK := s.TopK
	if c.IsSet("top-k") {
		topK = c.Int("top-k")
	}

	engine, err := openEngine(ctx, s)
	if err != nil {
		return err
	}
	defer engine.Close()

	searcher, err := engine.NewSearcher(searchOptions(c, s)...)
	if err != nil {
		return err
	}

	vector, err := engine.Embedder().EmbedText(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to embed query: %w", err)
	}
	matches, err := searcher.Search(ctx, vector, query, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printMatches(c.App.Writer, matches)
	return nil
}

func seedCommand(c *cli.Context) error {
	ctx := c.Context
	s := settingsOf(c)

	entries, err := loadEntries(c.String("file"))
	if err != nil {
		return err
	}

	engine, err := openEngine(ctx, s)
	if err != nil {
		return err
	}
	defer engine.Close()

	if repo, ok := engine.Repository().(*atlas.ConditionRepository); ok {
		if err := repo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	opts := []corpus.SeederOption{
		corpus.WithProgress(c.App.ErrWriter),
		corpus.WithSeederConfig(batchConfig(c)),
	}
	if c.Bool("replace") {
		opts = append(opts, corpus.WithReplace())
	}
	seeder, err := engine.NewSeeder(opts...)
	if err != nil {
		return err
	}

	stored, err := seeder.Seed(ctx, entries)
	if err != nil {
		return fmt.Errorf("seeding failed after %d conditions: %w", stored, err)
	}

	fmt.Fprintf(c.App.ErrWriter, "Stored %d conditions.\n", stored)
	if s.Backend == config.BackendAtlas {
		fmt.Fprintf(c.App.ErrWriter, "Vector search needs an Atlas index named %q on the embedding field.\n", s.VectorIndex)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := c.Context
	s := settingsOf(c)

	engine, err := openEngine(ctx, s)
	if err != nil {
		return err
	}
	defer engine.Close()

	reembedder, err := engine.NewReembedder(batchConfig(c), c.App.ErrWriter)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Backend: %s\n", s.Backend)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", s.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", s.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	updated, err := reembedder.Run(ctx)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	fmt.Fprintf(c.App.ErrWriter, "Reembedded %d conditions.\n", updated)
	return nil
}

func searchOptions(c *cli.Context, s *config.Settings) []search.Option {
	var opts []search.Option
	if c.Bool("no-fusion") || !s.Fusion {
		opts = append(opts, search.WithoutFusion())
	}
	return opts
}

func batchConfig(c *cli.Context) *corpus.Config {
	return &corpus.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
}

// readPayloads reads one payload object or an array of them from path, or
// from stdin when path is empty or "-". batch reports an array input.
func readPayloads(path string, stdin io.Reader) (payloads []*core.Payload, batch bool, err error) {
	var data []byte
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read payload: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &payloads); err != nil {
			return nil, false, fmt.Errorf("failed to decode payloads: %w", err)
		}
		if len(payloads) == 0 {
			return nil, false, errors.New("payload array is empty")
		}
		return payloads, true, nil
	}

	var payload core.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, false, fmt.Errorf("failed to decode payload: %w", err)
	}
	return []*core.Payload{&payload}, false, nil
}

func loadEntries(path string) ([]corpus.Entry, error) {
	if path == "" {
		return corpus.BundledEntries()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return corpus.LoadEntries(f)
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func printMatches(w io.Writer, matches []core.CandidateCondition) {
	fmt.Fprintf(w, "Found %d matches\n", len(matches))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSCORE\tSEM\tLEX\tCONDITION\tSOURCE")
	for i, m := range matches {
		fmt.Fprintf(tw, "%d\t%.4f\t%s\t%s\t%s\t%s\n",
			i+1, m.Score, rankString(m.SemanticRank), rankString(m.LexicalRank), m.Condition, m.SourceID)
	}
	tw.Flush()
}

func rankString(rank int) string {
	if rank == 0 {
		return "-"
	}
	return strconv.Itoa(rank)
}
