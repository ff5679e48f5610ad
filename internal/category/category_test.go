package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	cats := All()
	require.Len(t, cats, 12)
	assert.Equal(t, "philosophy", cats[0].ID)
	assert.Equal(t, "religion", cats[len(cats)-1].ID)

	seen := make(map[string]bool)
	for _, c := range cats {
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
		assert.NotEmpty(t, c.Name)
		assert.NotEmpty(t, c.SearchTerms, "%s has no search terms", c.ID)
		assert.Regexp(t, `^#[0-9A-F]{6}$`, c.Color)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	cats := All()
	cats[0].ID = "mutated"
	assert.Equal(t, "philosophy", All()[0].ID)
}

func TestLookup(t *testing.T) {
	tests := []struct {
		id       string
		wantTerm string
		wantErr  bool
	}{
		{"mathematics", "mathematics", false},
		{"technology", "technology", false},
		{"sports", "sports", false},
		{"astrology", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			c, err := Lookup(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknown)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTerm, c.PrimaryTerm())
		})
	}
}

func TestPrimaryTermFallsBackToID(t *testing.T) {
	assert.Equal(t, "misc", Category{ID: "misc"}.PrimaryTerm())
}
