package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatMapValue(t *testing.T) {
	var nilMap StatMap
	v, err := nilMap.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v, "nil map stores as an empty object, not NULL")

	m := StatMap{"passingyards": 291}
	v, err = m.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"passingyards":291}`, v)

	// jsonb parameters travel as text.
	_, ok := v.(string)
	assert.True(t, ok)
}

func TestStatMapScan(t *testing.T) {
	var m StatMap
	require.NoError(t, m.Scan([]byte(`{"receptions":7,"receivingyards":104}`)))
	assert.Equal(t, 7.0, m["receptions"])
	assert.Equal(t, 104.0, m["receivingyards"])

	// Some drivers hand jsonb back as string.
	var fromString StatMap
	require.NoError(t, fromString.Scan(`{"sacks":2}`))
	assert.Equal(t, 2.0, fromString["sacks"])

	var fromNil StatMap
	require.NoError(t, fromNil.Scan(nil))
	assert.Nil(t, fromNil)

	var fromEmpty StatMap
	require.NoError(t, fromEmpty.Scan([]byte{}))
	assert.Nil(t, fromEmpty)

	var bad StatMap
	assert.Error(t, bad.Scan(42))
}

func TestStatMapRoundTrip(t *testing.T) {
	original := StatMap{"completions": 24, "passingattempts": 37, "qbrating": 118.4}
	v, err := original.Value()
	require.NoError(t, err)

	var back StatMap
	require.NoError(t, back.Scan([]byte(v.(string))))
	assert.Equal(t, original, back)
}

func TestStatMapLookup(t *testing.T) {
	m := StatMap{"passingYards": 291}

	got, ok := m.Lookup("passingYards")
	require.True(t, ok)
	assert.Equal(t, 291.0, got)

	// Case differences between payload vintages still resolve.
	got, ok = m.Lookup("passingyards")
	require.True(t, ok)
	assert.Equal(t, 291.0, got)

	_, ok = m.Lookup("rushingyards")
	assert.False(t, ok)

	var nilMap StatMap
	_, ok = nilMap.Lookup("anything")
	assert.False(t, ok)
}

func TestSetOddsDerivesImpliedTotals(t *testing.T) {
	var g ScheduleGame
	g.SetOdds(-3.0, 45.0)

	require.True(t, g.Spread.Valid)
	assert.Equal(t, -3.0, g.Spread.Float64)
	require.True(t, g.OverUnder.Valid)
	assert.Equal(t, 45.0, g.OverUnder.Float64)

	// Home favored by 3 with a 45 total: 24 at home, 21 away.
	require.True(t, g.HomeImplied.Valid)
	assert.Equal(t, 24.0, g.HomeImplied.Float64)
	require.True(t, g.AwayImplied.Valid)
	assert.Equal(t, 21.0, g.AwayImplied.Float64)
}

func TestSetOddsRoundsToHalfPoint(t *testing.T) {
	var g ScheduleGame
	g.SetOdds(-2.5, 47.5)

	// (47.5 + 2.5) / 2 = 25.0 and (47.5 - 2.5) / 2 = 22.5.
	assert.Equal(t, 25.0, g.HomeImplied.Float64)
	assert.Equal(t, 22.5, g.AwayImplied.Float64)

	var odd ScheduleGame
	odd.SetOdds(-3.0, 44.33)
	assert.Equal(t, 23.7, odd.HomeImplied.Float64)
	assert.Equal(t, 20.7, odd.AwayImplied.Float64)
}

func TestPlayerFullName(t *testing.T) {
	p := Player{FirstName: "Patrick", LastName: "Mahomes"}
	assert.Equal(t, "Patrick Mahomes", p.FullName())

	mononym := Player{LastName: "Neymar"}
	assert.Equal(t, "Neymar", mononym.FullName())
}
