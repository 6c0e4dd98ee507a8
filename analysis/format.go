package analysis

import (
	"fmt"
	"strings"

	"github.com/poiesic/driftlens/core"
)

// FormatRiskSummary renders one markdown bullet per risk factor.
func FormatRiskSummary(factors []core.RiskFactor) string {
	lines := make([]string, 0, len(factors))
	for _, f := range factors {
		lines = append(lines, fmt.Sprintf("- **%s** (%s): %s severity. %s",
			f.Factor, f.Category, f.Severity, f.Description))
	}
	return strings.Join(lines, "\n")
}

// FormatRetrievalContext renders matches as numbered sections for grounding
// the brief generator. Returns "" for no matches.
func FormatRetrievalContext(matches []core.CandidateCondition) string {
	if len(matches) == 0 {
		return ""
	}

	sections := make([]string, 0, len(matches))
	for i, m := range matches {
		sections = append(sections, fmt.Sprintf(
			"### [%d] %s\n**Paper:** %s\n**Source:** %s\n**Key findings:** %s\n",
			i+1,
			orDefault(m.Condition, "Unknown Condition"),
			orDefault(m.Title, "Untitled"),
			orDefault(m.SourceID, "N/A"),
			m.Snippet))
	}
	return strings.Join(sections, "\n")
}

// embeddingText is the only text the embedder sees: the narrative followed
// by the delta summary.
func embeddingText(narrative, deltaSummary string) string {
	return strings.TrimSpace(narrative) + " " + deltaSummary
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
