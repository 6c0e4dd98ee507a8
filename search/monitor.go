package search

import "github.com/poiesic/driftlens/core"

// FallbackReason explains why a search was answered from semantic ranking alone.
type FallbackReason string

const (
	FallbackNoLexicalRanker FallbackReason = "no_lexical_ranker"
	FallbackFusionDisabled  FallbackReason = "fusion_disabled"
	FallbackEmptyQueryText  FallbackReason = "empty_query_text"
	FallbackLexicalError    FallbackReason = "lexical_error"
	FallbackEmptyFusion     FallbackReason = "empty_fusion"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(text string, topK int)
	AfterSemanticSearch(ranked []core.RankedID)
	AfterLexicalSearch(ranked []core.RankedID)
	LexicalUnavailable(err error)
	Fallback(reason FallbackReason)
	Finish(results []core.CandidateCondition)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)                 {}
func (n *noopMonitor) AfterSemanticSearch(_ []core.RankedID) {}
func (n *noopMonitor) AfterLexicalSearch(_ []core.RankedID)  {}
func (n *noopMonitor) LexicalUnavailable(_ error)            {}
func (n *noopMonitor) Fallback(_ FallbackReason)             {}
func (n *noopMonitor) Finish(_ []core.CandidateCondition)    {}
