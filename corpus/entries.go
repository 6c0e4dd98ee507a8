package corpus

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/poiesic/driftlens/core"
)

//go:embed conditions.json
var bundled []byte

// Entry is one corpus entry as distributed in JSON.
type Entry struct {
	Condition string `json:"condition"`
	Title     string `json:"title"`
	SourceID  string `json:"source_id"`
	Snippet   string `json:"snippet"`
}

// Validate implements validation.Validatable.
func (e Entry) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Condition, validation.Required),
		validation.Field(&e.SourceID, validation.Required),
		validation.Field(&e.Snippet, validation.Required),
	)
}

// ToCondition converts the entry to an unembedded corpus condition with a
// content-derived ID.
func (e Entry) ToCondition() *core.Condition {
	c := &core.Condition{
		Label:    e.Condition,
		Title:    e.Title,
		SourceID: e.SourceID,
		Snippet:  e.Snippet,
	}
	c.Id = core.IDFromContent(c.Tuple())
	return c
}

// BundledEntries returns the entries shipped with the module.
func BundledEntries() ([]Entry, error) {
	return LoadEntries(bytes.NewReader(bundled))
}

// LoadEntries decodes and validates a JSON array of entries.
func LoadEntries(r io.Reader) ([]Entry, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w %d (%s): %w", ErrInvalidEntry, i, e.Condition, err)
		}
	}
	return entries, nil
}

// Conditions converts entries to corpus conditions.
func Conditions(entries []Entry) []*core.Condition {
	out := make([]*core.Condition, len(entries))
	for i, e := range entries {
		out[i] = e.ToCondition()
	}
	return out
}
