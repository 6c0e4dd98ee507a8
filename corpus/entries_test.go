package corpus

import (
	"strings"
	"testing"

	"github.com/poiesic/driftlens/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundledEntries(t *testing.T) {
	entries, err := BundledEntries()
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	assert.Equal(t, "Endometriosis", entries[0].Condition)
	assert.Equal(t, "PMC10210381", entries[0].SourceID)

	seen := make(map[core.ID]bool)
	for _, c := range Conditions(entries) {
		assert.False(t, seen[c.Id], "duplicate entry %s", c.Tuple())
		seen[c.Id] = true
	}
}

func TestLoadEntries(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr error
	}{
		{"empty array", `[]`, 0, nil},
		{"one entry", `[{"condition":"PCOS","title":"T","source_id":"PMC1","snippet":"S"}]`, 1, nil},
		{"missing source", `[{"condition":"PCOS","snippet":"S"}]`, 0, ErrInvalidEntry},
		{"missing snippet", `[{"condition":"PCOS","source_id":"PMC1"}]`, 0, ErrInvalidEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := LoadEntries(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, entries, tt.want)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		_, err := LoadEntries(strings.NewReader(`{"condition":`))
		assert.Error(t, err)
	})
}

func TestEntryToCondition(t *testing.T) {
	e := Entry{Condition: "Vulvodynia", Title: "Review", SourceID: "PMC7821117", Snippet: "Chronic vulvar pain."}
	c := e.ToCondition()

	assert.Equal(t, core.IDFromContent("(Vulvodynia,PMC7821117)"), c.Id)
	assert.Equal(t, "Vulvodynia", c.Label)
	assert.Equal(t, "Review", c.Title)
	assert.Equal(t, "Vulvodynia: Chronic vulvar pain.", c.EmbeddingText())
	assert.Nil(t, c.Vector)
}
