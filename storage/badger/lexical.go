package badger

import (
	"math"
	"strings"

	"github.com/poiesic/driftlens/core"
)

// Field weights for keyword scoring. Condition names dominate.
const (
	labelWeight   = 3.0
	titleWeight   = 1.0
	snippetWeight = 1.0
)

// Stop words to filter out of queries and documents
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "i": true, "my": true, "me": true, "or": true,
	"has": true, "had": true, "been": true, "very": true, "so": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '/' || r == '-'
	})
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// termCounts tallies tokens of a text.
func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, token := range tokenizeAndFilter(text) {
		counts[token]++
	}
	return counts
}

// lexicalDocument is the tokenized form of one condition.
type lexicalDocument struct {
	id      core.ID
	label   map[string]int
	title   map[string]int
	snippet map[string]int
}

func newLexicalDocument(c *core.Condition) lexicalDocument {
	return lexicalDocument{
		id:      c.Id,
		label:   termCounts(c.Label),
		title:   termCounts(c.Title),
		snippet: termCounts(c.Snippet),
	}
}

func (d lexicalDocument) contains(term string) bool {
	return d.label[term] > 0 || d.title[term] > 0 || d.snippet[term] > 0
}

// saturate dampens repeated terms so one long snippet cannot dominate.
func saturate(tf int) float64 {
	if tf == 0 {
		return 0
	}
	return float64(tf) / (float64(tf) + 1)
}

// scoreDocuments scores docs against the query terms with a field-weighted,
// idf-scaled keyword model. Documents sharing no term score zero.
func scoreDocuments(docs []lexicalDocument, query string) []core.RankedID {
	terms := make([]string, 0)
	seen := make(map[string]bool)
	for _, term := range tokenizeAndFilter(query) {
		if !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 || len(docs) == 0 {
		return nil
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(terms))
	for _, term := range terms {
		df := 0.0
		for _, d := range docs {
			if d.contains(term) {
				df++
			}
		}
		idf[term] = math.Log(1 + (n-df+0.5)/(df+0.5))
	}

	var ranked []core.RankedID
	for _, d := range docs {
		score := 0.0
		for _, term := range terms {
			weighted := labelWeight*saturate(d.label[term]) +
				titleWeight*saturate(d.title[term]) +
				snippetWeight*saturate(d.snippet[term])
			score += idf[term] * weighted
		}
		if score > 0 {
			ranked = append(ranked, core.RankedID{Id: d.id, Score: score})
		}
	}
	return ranked
}
