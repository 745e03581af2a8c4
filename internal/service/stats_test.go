package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/gridiron/internal/store"
)

func TestFlattenRecordDistinguishesAbsentFromZero(t *testing.T) {
	gameDate := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	rec := &store.PlayerGameStat{
		ESPNGameID: "401",
		GameDate:   gameDate,
		Season:     2025,
		Week:       1,
		Passing: store.StatMap{
			"completions":       24,
			"passingattempts":   37,
			"passingyards":      278,
			"passingtouchdowns": 2,
			"interceptions":     0,
		},
		Fumbles: 1,
	}

	line := flattenRecord(rec)

	assert.Equal(t, "401", line.ESPNGameID)
	assert.Equal(t, 1, line.Week)

	require.NotNil(t, line.PassingYards)
	assert.Equal(t, 278.0, *line.PassingYards)

	// An explicit zero survives as a pointer to zero.
	require.NotNil(t, line.Interceptions)
	assert.Zero(t, *line.Interceptions)

	// A QB who never rushed has nil rushing fields, not zeros.
	assert.Nil(t, line.RushingAttempts)
	assert.Nil(t, line.RushingYards)
	assert.Nil(t, line.Receptions)

	assert.Equal(t, 1, line.Fumbles)
	assert.Zero(t, line.FumblesLost)
}

func TestFlattenRecordToleratesLabelCase(t *testing.T) {
	rec := &store.PlayerGameStat{
		Receiving: store.StatMap{"Receptions": 7, "receivingYards": 104},
	}

	line := flattenRecord(rec)
	require.NotNil(t, line.Receptions)
	assert.Equal(t, 7.0, *line.Receptions)
	require.NotNil(t, line.ReceivingYards)
	assert.Equal(t, 104.0, *line.ReceivingYards)
}

func TestStatHelpers(t *testing.T) {
	m := store.StatMap{"receptions": 7}

	p := statPtr(m, "receptions")
	require.NotNil(t, p)
	assert.Equal(t, 7.0, *p)
	assert.Nil(t, statPtr(m, "targets"))
	assert.Nil(t, statPtr(nil, "receptions"))

	assert.Equal(t, 7.0, statOr(m, "receptions", -1))
	assert.Equal(t, -1.0, statOr(m, "targets", -1))
	assert.Zero(t, statOr(nil, "receptions", 0))
}
