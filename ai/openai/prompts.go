package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/driftlens/ai"
)

const briefResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "summary": {"type": "string"},
    "clinical_intake": {"type": "string"},
    "primary_concern": {"type": "string"},
    "key_symptoms": {"type": "array", "items": {"type": "string"}},
    "severity_assessment": {"type": "string"},
    "recommended_actions": {"type": "array", "items": {"type": "string"}},
    "cited_sources": {"type": "array", "items": {"type": "string"}},
    "guiding_questions": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["summary", "clinical_intake", "primary_concern", "key_symptoms",
    "severity_assessment", "recommended_actions", "cited_sources", "guiding_questions"],
  "additionalProperties": false
}`

const briefPromptTemplate = `You are a clinical data analyst specializing in women's health.
Given a patient's narrative description of their symptoms along with their biometric data summary,
produce a structured clinical brief.

Focus on:
1. Objective symptom identification from the narrative
2. Correlation between reported symptoms and biometric anomalies
3. Severity assessment based on the delta between acute and baseline metrics
4. Evidence-based recommended diagnostic actions
5. Questions the physician should ask to complete the intake

When retrieval context is provided with matching medical conditions and literature,
you MUST reference these sources in your analysis:
- Mention which retrieved conditions align with the patient's presentation
- Cite the specific paper titles when discussing diagnostic pathways
- List every referenced source in cited_sources as "Condition: Paper Title"
When no retrieval context is provided, cited_sources must be [].

Be clinical, precise, and advocacy-oriented. This brief will be presented to a physician
to counter potential dismissal of the patient's pain experience.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble or
explanation. Start your response directly with the opening brace { and end with the closing brace }.

%s`

// buildSystemPrompt creates the system prompt with the response schema embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(briefPromptTemplate, briefResponseSchema)
}

// buildUserPrompt lays out the request as markdown sections. Empty optional
// sections are omitted.
func buildUserPrompt(req ai.BriefRequest) string {
	var b strings.Builder
	section := func(title, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		fmt.Fprintf(&b, "## %s\n%s\n\n", title, strings.TrimSpace(body))
	}

	section("Patient Narrative", req.Narrative)
	section("Biometric Data Summary", req.DeltaSummary)
	section("Risk Factors", req.RiskSummary)
	section("Retrieved Medical Literature (RAG Context)", req.RetrievalContext)
	b.WriteString("Produce the clinical brief.")
	return b.String()
}
