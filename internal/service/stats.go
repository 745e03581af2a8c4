package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fortuna/gridiron/internal/store"
	"github.com/fortuna/gridiron/internal/store/repository"
)

// StatsService reads the opaque stat blobs back out with a forgiving
// decoder: fields the ingest never captured stay nil rather than zero.
type StatsService struct {
	stats   *repository.StatsRepository
	players *repository.PlayerRepository
}

func NewStatsService(stats *repository.StatsRepository, players *repository.PlayerRepository) *StatsService {
	return &StatsService{
		stats:   stats,
		players: players,
	}
}

// StatLine is one game's stat record flattened for API consumers. Pointer
// fields distinguish "not recorded" from an explicit zero.
type StatLine struct {
	ESPNGameID string    `json:"espn_game_id"`
	GameDate   time.Time `json:"game_date"`
	Season     int       `json:"season"`
	Week       int       `json:"week"`

	Completions     *float64 `json:"completions,omitempty"`
	PassingAttempts *float64 `json:"passing_attempts,omitempty"`
	PassingYards    *float64 `json:"passing_yards,omitempty"`
	PassingTDs      *float64 `json:"passing_tds,omitempty"`
	Interceptions   *float64 `json:"interceptions,omitempty"`

	RushingAttempts *float64 `json:"rushing_attempts,omitempty"`
	RushingYards    *float64 `json:"rushing_yards,omitempty"`
	RushingTDs      *float64 `json:"rushing_tds,omitempty"`

	Receptions     *float64 `json:"receptions,omitempty"`
	Targets        *float64 `json:"targets,omitempty"`
	ReceivingYards *float64 `json:"receiving_yards,omitempty"`
	ReceivingTDs   *float64 `json:"receiving_tds,omitempty"`

	Fumbles     int `json:"fumbles"`
	FumblesLost int `json:"fumbles_lost"`
}

// PlayerGameLog returns a player's per-game lines for a season, newest
// first.
func (s *StatsService) PlayerGameLog(ctx context.Context, playerID, season int) ([]*StatLine, error) {
	records, err := s.stats.ListByPlayer(ctx, playerID, season)
	if err != nil {
		return nil, fmt.Errorf("fetching game log: %w", err)
	}

	lines := make([]*StatLine, 0, len(records))
	for _, rec := range records {
		lines = append(lines, flattenRecord(rec))
	}
	return lines, nil
}

// SeasonTotals sums the counting stats across a player's season.
type SeasonTotals struct {
	PlayerID int `json:"player_id"`
	Season   int `json:"season"`
	Games    int `json:"games"`

	PassingYards  float64 `json:"passing_yards"`
	PassingTDs    float64 `json:"passing_tds"`
	Interceptions float64 `json:"interceptions"`

	RushingYards float64 `json:"rushing_yards"`
	RushingTDs   float64 `json:"rushing_tds"`

	Receptions     float64 `json:"receptions"`
	ReceivingYards float64 `json:"receiving_yards"`
	ReceivingTDs   float64 `json:"receiving_tds"`

	Fumbles     int `json:"fumbles"`
	FumblesLost int `json:"fumbles_lost"`
}

// Totals aggregates a player's season. Absent fields contribute nothing,
// which keeps a QB's receiving totals at zero instead of inventing them.
func (s *StatsService) Totals(ctx context.Context, playerID, season int) (*SeasonTotals, error) {
	records, err := s.stats.ListByPlayer(ctx, playerID, season)
	if err != nil {
		return nil, fmt.Errorf("fetching season records: %w", err)
	}

	totals := &SeasonTotals{
		PlayerID: playerID,
		Season:   season,
		Games:    len(records),
	}
	for _, rec := range records {
		totals.PassingYards += statOr(rec.Passing, "passingyards", 0)
		totals.PassingTDs += statOr(rec.Passing, "passingtouchdowns", 0)
		totals.Interceptions += statOr(rec.Passing, "interceptions", 0)
		totals.RushingYards += statOr(rec.Rushing, "rushingyards", 0)
		totals.RushingTDs += statOr(rec.Rushing, "rushingtouchdowns", 0)
		totals.Receptions += statOr(rec.Receiving, "receptions", 0)
		totals.ReceivingYards += statOr(rec.Receiving, "receivingyards", 0)
		totals.ReceivingTDs += statOr(rec.Receiving, "receivingtouchdowns", 0)
		totals.Fumbles += rec.Fumbles
		totals.FumblesLost += rec.FumblesLost
	}
	return totals, nil
}

func flattenRecord(rec *store.PlayerGameStat) *StatLine {
	line := &StatLine{
		ESPNGameID:  rec.ESPNGameID,
		GameDate:    rec.GameDate,
		Season:      rec.Season,
		Week:        rec.Week,
		Fumbles:     rec.Fumbles,
		FumblesLost: rec.FumblesLost,
	}

	line.Completions = statPtr(rec.Passing, "completions")
	line.PassingAttempts = statPtr(rec.Passing, "passingattempts")
	line.PassingYards = statPtr(rec.Passing, "passingyards")
	line.PassingTDs = statPtr(rec.Passing, "passingtouchdowns")
	line.Interceptions = statPtr(rec.Passing, "interceptions")

	line.RushingAttempts = statPtr(rec.Rushing, "rushingattempts")
	line.RushingYards = statPtr(rec.Rushing, "rushingyards")
	line.RushingTDs = statPtr(rec.Rushing, "rushingtouchdowns")

	line.Receptions = statPtr(rec.Receiving, "receptions")
	line.Targets = statPtr(rec.Receiving, "receivingtargets")
	line.ReceivingYards = statPtr(rec.Receiving, "receivingyards")
	line.ReceivingTDs = statPtr(rec.Receiving, "receivingtouchdowns")

	return line
}

func statPtr(m store.StatMap, name string) *float64 {
	if v, ok := m.Lookup(name); ok {
		return &v
	}
	return nil
}

func statOr(m store.StatMap, name string, fallback float64) float64 {
	if v, ok := m.Lookup(name); ok {
		return v
	}
	return fallback
}
