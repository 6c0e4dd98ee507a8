package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/driftlens/ai"
	"github.com/poiesic/driftlens/core"
)

// MockBriefGenerator is a test double for ai.BriefGenerator.
type MockBriefGenerator struct {
	// GenerateBriefFunc is called by GenerateBrief if set.
	// If nil, returns a brief echoing the request.
	GenerateBriefFunc func(ctx context.Context, req ai.BriefRequest) (*core.ClinicalBrief, error)

	callCount atomic.Int64
	last      atomic.Pointer[ai.BriefRequest]
}

// NewMockBriefGenerator creates a mock generator with default behavior.
func NewMockBriefGenerator() *MockBriefGenerator {
	return &MockBriefGenerator{}
}

// GenerateBrief records req and returns a brief.
func (m *MockBriefGenerator) GenerateBrief(ctx context.Context, req ai.BriefRequest) (*core.ClinicalBrief, error) {
	m.callCount.Add(1)
	m.last.Store(&req)

	if m.GenerateBriefFunc != nil {
		return m.GenerateBriefFunc(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cited []string
	if req.RetrievalContext != "" {
		cited = []string{"retrieved literature"}
	}
	return &core.ClinicalBrief{
		Summary:            firstLine(req.Narrative),
		ClinicalIntake:     req.Narrative,
		PrimaryConcern:     firstLine(req.Narrative),
		KeySymptoms:        []string{},
		SeverityAssessment: firstLine(req.DeltaSummary),
		RecommendedActions: []string{},
		CitedSources:       cited,
		GuidingQuestions:   []string{},
	}, nil
}

// CallCount returns the number of GenerateBrief calls.
func (m *MockBriefGenerator) CallCount() int {
	return int(m.callCount.Load())
}

// LastRequest returns the most recent request, or nil before the first call.
func (m *MockBriefGenerator) LastRequest() *ai.BriefRequest {
	return m.last.Load()
}

// Reset clears the call count, the recorded request and injected behavior.
func (m *MockBriefGenerator) Reset() {
	m.callCount.Store(0)
	m.last.Store(nil)
	m.GenerateBriefFunc = nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
