package core

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID as fixed-width hex, the form used by external stores.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// ParseID parses the hex form produced by ID.String.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID(v), nil
}

// Condition is one entry of the medical-literature corpus.
type Condition struct {
	Id         ID
	Label      string    // Condition name, e.g. "Endometriosis"
	Title      string    // Title of the source paper
	SourceID   string    // Literature identifier, e.g. a PMCID
	Snippet    string    // Key findings used for retrieval and citation
	Vector     []float32 // Embedding of EmbeddingText (populated by the corpus tools)
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Tuple returns a string representation of the condition as "(Label,SourceID)".
// This is used for generating deterministic IDs.
func (c *Condition) Tuple() string {
	return "(" + c.Label + "," + c.SourceID + ")"
}

// EmbeddingText is the text embedded for a corpus entry.
func (c *Condition) EmbeddingText() string {
	return c.Label + ": " + c.Snippet
}

// RankedID is one entry of a ranked list produced by a ranker.
// Lists are ordered best first; rank is the 1-based position.
type RankedID struct {
	Id    ID
	Score float64
}

// CandidateCondition is a hydrated retrieval result.
type CandidateCondition struct {
	Id           ID      `json:"-"`
	Condition    string  `json:"condition"`
	Title        string  `json:"title"`
	SourceID     string  `json:"source_id"`
	Snippet      string  `json:"snippet"`
	Score        float64 `json:"similarity_score"`
	SemanticRank int     `json:"semantic_rank,omitempty"`
	LexicalRank  int     `json:"lexical_rank,omitempty"`
}
