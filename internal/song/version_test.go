package song

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextVersionLabel(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"unversioned", "Ocean Drive", "V2"},
		{"v2 to v3", "Ocean Drive (V2)", "V3"},
		{"double digit", "Ocean Drive (V12)", "V13"},
		{"marker mid-title ignored", "Ocean (V2) Drive", "V2"},
		{"malformed number", "Ocean Drive (Vx)", "V2"},
		{"empty title", "", "V2"},
		{"zero treated as unversioned", "Ocean Drive (V0)", "V2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextVersionLabel(tt.title))
		})
	}
}

func TestDerive(t *testing.T) {
	base := Song{
		ID:                   "a1",
		CreatedAt:            1,
		Title:                "Neon Rain",
		StylePrompt:          "1980s synthwave, 110 BPM",
		NegativePrompt:       "live, muffled",
		Lyrics:               "old lyrics",
		TechnicalExplanation: "old rationale",
		CoverArtPrompt:       "rain-soaked city at night",
		Analysis:             &Analysis{OverallScore: 70},
		Variations:           []Variation{{ID: "v1", Type: "More Rhythmic"}},
		Flags:                Flags{AdvancedLyricLogic: true},
	}

	derived := Derive(base, "new lyrics", "new rationale", Flags{CentralMetaphorLogic: true})

	t.Run("fresh identity with parent link", func(t *testing.T) {
		require.NotEmpty(t, derived.ID)
		assert.NotEqual(t, base.ID, derived.ID)
		assert.Equal(t, "a1", derived.ParentID)
	})

	t.Run("title gains single version suffix", func(t *testing.T) {
		assert.Equal(t, "Neon Rain (V2)", derived.Title)

		v3 := Derive(derived, "newer lyrics", "r", derived.Flags)
		assert.Equal(t, "Neon Rain (V3)", v3.Title)
	})

	t.Run("content replaced, style carried over", func(t *testing.T) {
		assert.Equal(t, "new lyrics", derived.Lyrics)
		assert.Equal(t, "new rationale", derived.TechnicalExplanation)
		assert.Equal(t, base.StylePrompt, derived.StylePrompt)
		assert.Equal(t, base.NegativePrompt, derived.NegativePrompt)
		assert.Equal(t, base.CoverArtPrompt, derived.CoverArtPrompt)
	})

	t.Run("stale enrichment cleared", func(t *testing.T) {
		assert.Nil(t, derived.Analysis)
		assert.Nil(t, derived.Variations)
		assert.Empty(t, derived.RenderTaskID)
	})

	t.Run("flags are what the caller supplied", func(t *testing.T) {
		assert.False(t, derived.Flags.AdvancedLyricLogic)
		assert.True(t, derived.Flags.CentralMetaphorLogic)
	})
}

func TestFindParent(t *testing.T) {
	st := NewStore(nil, nil)
	base := testSong("a1", "Neon Rain")
	st.InsertFront(base)

	derived := Derive(base, "l", "r", Flags{})
	st.InsertFront(derived)

	t.Run("resolves against live store", func(t *testing.T) {
		parent, ok := FindParent(derived, st)
		require.True(t, ok)
		assert.Equal(t, "a1", parent.ID)
	})

	t.Run("original has no parent", func(t *testing.T) {
		_, ok := FindParent(base, st)
		assert.False(t, ok)
	})

	t.Run("dangling reference after clear", func(t *testing.T) {
		st.ClearAll()
		_, ok := FindParent(derived, st)
		assert.False(t, ok)
	})
}
