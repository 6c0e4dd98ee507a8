package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/driftlens/ai"
	"github.com/poiesic/driftlens/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const parseAttempts = 3

var errEmptySummary = errors.New("summary is empty")

// BriefGenerator implements ai.BriefGenerator using OpenAI-compatible chat APIs.
type BriefGenerator struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

// newBriefGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newBriefGenerator(config *ai.Config) (*BriefGenerator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GeneratorHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.GeneratorModel),
	)
	if err != nil {
		return nil, err
	}

	return newBriefGeneratorWithModel(client, config.Temperature), nil
}

func newBriefGeneratorWithModel(client llms.Model, temperature float64) *BriefGenerator {
	return &BriefGenerator{
		client:      client,
		temperature: temperature,
		logger:      slog.Default().With("component", "openai-generator"),
	}
}

// NewBriefGenerator creates a new brief generator using the provided configuration.
//
// Returns ai.BriefGenerator interface to enforce abstraction.
func NewBriefGenerator(config *ai.Config) (ai.BriefGenerator, error) {
	return newBriefGenerator(config)
}

// GenerateBrief asks the model for a clinical brief in JSON mode.
// Malformed JSON is repaired where possible and the request is retried up
// to three times; transport errors are returned immediately.
func (g *BriefGenerator) GenerateBrief(ctx context.Context, req ai.BriefRequest) (*core.ClinicalBrief, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, buildSystemPrompt()),
		llms.TextParts(llms.ChatMessageTypeHuman, buildUserPrompt(req)),
	}

	var lastErr error
	for attempt := 1; attempt <= parseAttempts; attempt++ {
		response, err := g.client.GenerateContent(ctx, content,
			llms.WithTemperature(g.temperature),
			llms.WithJSONMode())
		if err != nil {
			g.logger.Error("failed to generate content", "attempt", attempt, "err", err)
			return nil, err
		}
		if len(response.Choices) < 1 {
			return nil, ErrEmptyResponse
		}

		brief, err := parseBrief(response.Choices[0].Content)
		if err != nil {
			lastErr = err
			g.logger.Warn("error parsing brief response", "attempt", attempt, "err", err)
			continue
		}

		g.logger.Debug("generated clinical brief",
			"symptoms", len(brief.KeySymptoms),
			"cited", len(brief.CitedSources))
		return brief, nil
	}

	g.logger.Error("failed to parse brief response after retries", "err", lastErr)
	return nil, fmt.Errorf("%w: %w", ErrMalformedBrief, lastErr)
}

// parseBrief decodes a model response into a brief. List fields are never nil.
func parseBrief(text string) (*core.ClinicalBrief, error) {
	text = repairJSON(stripFences(text))

	var brief core.ClinicalBrief
	if err := json.Unmarshal([]byte(text), &brief); err != nil {
		return nil, err
	}
	if strings.TrimSpace(brief.Summary) == "" {
		return nil, errEmptySummary
	}

	for _, list := range []*[]string{
		&brief.KeySymptoms,
		&brief.RecommendedActions,
		&brief.CitedSources,
		&brief.GuidingQuestions,
	} {
		if *list == nil {
			*list = []string{}
		}
	}
	return &brief, nil
}
