package nfl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryCoversAllFranchises(t *testing.T) {
	d := NewDirectory()
	teams := d.Teams()
	require.Len(t, teams, 32)

	seenIDs := make(map[int]bool)
	seenESPN := make(map[string]bool)
	for _, team := range teams {
		assert.False(t, seenIDs[team.ID], "duplicate internal id %d", team.ID)
		assert.False(t, seenESPN[team.ESPNID], "duplicate espn id %s", team.ESPNID)
		seenIDs[team.ID] = true
		seenESPN[team.ESPNID] = true
		assert.NotEmpty(t, team.Abbreviation)
		assert.NotEmpty(t, team.Name)
	}
}

func TestDirectoryByESPNID(t *testing.T) {
	d := NewDirectory()

	kc, ok := d.ByESPNID("12")
	require.True(t, ok)
	assert.Equal(t, "KC", kc.Abbreviation)
	assert.Equal(t, 16, kc.ID)

	// BAL and HOU sit past the contiguous range upstream.
	bal, ok := d.ByESPNID("33")
	require.True(t, ok)
	assert.Equal(t, "BAL", bal.Abbreviation)

	_, ok = d.ByESPNID("99")
	assert.False(t, ok)
}

func TestDirectoryByAbbreviationRemaps(t *testing.T) {
	d := NewDirectory()

	tests := []struct {
		in   string
		want string
	}{
		{"KC", "KC"},
		{"kc", "KC"},
		{" WSH ", "WSH"},
		{"WAS", "WSH"},
		{"JAC", "JAX"},
		{"OAK", "LV"},
		{"SD", "LAC"},
		{"STL", "LAR"},
		{"LA", "LAR"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			team, ok := d.ByAbbreviation(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, team.Abbreviation)
		})
	}

	_, ok := d.ByAbbreviation("XYZ")
	assert.False(t, ok)
}

func TestDirectoryByName(t *testing.T) {
	d := NewDirectory()

	exact, ok := d.ByName("Kansas City Chiefs")
	require.True(t, ok)
	assert.Equal(t, "KC", exact.Abbreviation)

	// Partial in either direction: a fragment of the name, or the name
	// buried in a longer label.
	fragment, ok := d.ByName("Chiefs")
	require.True(t, ok)
	assert.Equal(t, "KC", fragment.Abbreviation)

	label, ok := d.ByName("Kansas City Chiefs Odds")
	require.True(t, ok)
	assert.Equal(t, "KC", label.Abbreviation)

	_, ok = d.ByName("Hartford Whalers")
	assert.False(t, ok)
	_, ok = d.ByName("")
	assert.False(t, ok)
}

func TestDirectoryTeamsReturnsCopy(t *testing.T) {
	d := NewDirectory()
	teams := d.Teams()
	teams[0].Abbreviation = "MUT"

	fresh := d.Teams()
	assert.NotEqual(t, "MUT", fresh[0].Abbreviation)
}
