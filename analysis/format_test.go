package analysis

import (
	"testing"

	"github.com/poiesic/driftlens/core"
	"github.com/stretchr/testify/assert"
)

func TestFormatRiskSummary(t *testing.T) {
	tests := []struct {
		name     string
		factors  []core.RiskFactor
		expected string
	}{
		{"none", nil, ""},
		{
			"one",
			[]core.RiskFactor{{Category: "family", Factor: "PCOS in sister", Severity: "moderate", Description: "Diagnosed at 22."}},
			"- **PCOS in sister** (family): moderate severity. Diagnosed at 22.",
		},
		{
			"keeps order",
			[]core.RiskFactor{
				{Category: "lifestyle", Factor: "Smoker", Severity: "high", Description: "10 years."},
				{Category: "medical", Factor: "Anemia", Severity: "low", Description: "Resolved."},
			},
			"- **Smoker** (lifestyle): high severity. 10 years.\n- **Anemia** (medical): low severity. Resolved.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatRiskSummary(tt.factors))
		})
	}
}

func TestFormatRetrievalContext(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, FormatRetrievalContext(nil))
	})

	t.Run("numbered sections", func(t *testing.T) {
		matches := []core.CandidateCondition{
			{Condition: "Endometriosis", Title: "Pelvic pain cohort", SourceID: "PMC1", Snippet: "Dysmenorrhea was common."},
			{Condition: "Adenomyosis", Title: "Uterine imaging", SourceID: "PMC2", Snippet: "Heavy bleeding."},
		}

		expected := "### [1] Endometriosis\n**Paper:** Pelvic pain cohort\n**Source:** PMC1\n**Key findings:** Dysmenorrhea was common.\n" +
			"\n" +
			"### [2] Adenomyosis\n**Paper:** Uterine imaging\n**Source:** PMC2\n**Key findings:** Heavy bleeding.\n"
		assert.Equal(t, expected, FormatRetrievalContext(matches))
	})

	t.Run("defaults for missing fields", func(t *testing.T) {
		got := FormatRetrievalContext([]core.CandidateCondition{{Snippet: "Some text."}})
		assert.Equal(t, "### [1] Unknown Condition\n**Paper:** Untitled\n**Source:** N/A\n**Key findings:** Some text.\n", got)
	})
}

func TestEmbeddingText(t *testing.T) {
	assert.Equal(t, "Pain and fatigue. ### Summary", embeddingText("\n Pain and fatigue. \t", "### Summary"))
}

func TestStageError(t *testing.T) {
	err := &StageError{Stage: StageRetrieval, Err: assert.AnError}

	assert.Equal(t, "analysis pipeline failed at retrieval stage", err.Error())
	assert.ErrorIs(t, err, ErrPipelineFailed)
	assert.ErrorIs(t, err, assert.AnError)
}
