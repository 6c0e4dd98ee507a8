package storage

import (
	"testing"
	"time"

	"github.com/poiesic/driftlens/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Marshal
			data := MarshalID(tt.id)
			require.NotNil(t, data)
			require.NotEmpty(t, data)

			// Unmarshal
			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalID(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestMarshalUnmarshalCondition(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name      string
		condition *core.Condition
	}{
		{
			name: "minimal condition",
			condition: &core.Condition{
				Id:         core.ID(1),
				Label:      "Vulvodynia",
				Snippet:    "Chronic vulvar pain.",
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
		{
			name: "full condition with vector",
			condition: &core.Condition{
				Id:         core.IDFromContent("(Endometriosis,PMC10210381)"),
				Label:      "Endometriosis",
				Title:      "The effects of coagulation factors on the risk of endometriosis",
				SourceID:   "PMC10210381",
				Snippet:    "Chronic pelvic pain with acute exacerbation.",
				Vector:     []float32{0.1, -0.25, 0.5, 1.0},
				InsertedAt: now.Add(-time.Hour),
				UpdatedAt:  now,
			},
		},
		{
			name: "unicode text",
			condition: &core.Condition{
				Id:         core.ID(7),
				Label:      "Adénomyose",
				Title:      "Review - résumé",
				Snippet:    "Douleur pelvienne chronique.",
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalCondition(tt.condition)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalCondition(data)
			require.NoError(t, err)
			assert.Equal(t, tt.condition, decoded)
		})
	}
}

func TestUnmarshalCondition_Invalid(t *testing.T) {
	valid := MarshalCondition(&core.Condition{
		Id:      core.ID(3),
		Label:   "Ovarian Cysts",
		Snippet: "Acute pelvic pain.",
		Vector:  []float32{1, 2, 3},
	})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"partial data", []byte{1, 2, 3}},
		{"truncated record", valid[:len(valid)-6]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalCondition(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}
