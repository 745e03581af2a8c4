package store

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// StatMap is a stat-name → numeric value mapping persisted as jsonb.
// An absent key means the source never produced the field; an explicit
// zero is a real value. Consumers read it schema-on-read via Lookup.
type StatMap map[string]float64

// Value marshals the map for storage. A nil map stores as an empty object.
func (m StatMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshaling stat map: %w", err)
	}
	// jsonb params go over the wire as text, not bytea
	return string(b), nil
}

// Scan unmarshals a jsonb column back into the map.
func (m *StatMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		if len(v) == 0 {
			*m = nil
			return nil
		}
		return json.Unmarshal(v, m)
	case string:
		if v == "" {
			*m = nil
			return nil
		}
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("scanning stat map: unsupported type %T", src)
	}
}

// Lookup fetches a field by name, case-insensitively, tolerating unknown
// and missing fields.
func (m StatMap) Lookup(name string) (float64, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return 0, false
}

// Player is a durable internal identity. Rows are created out-of-band;
// this service only ever annotates them (ESPN id, headshot fields).
type Player struct {
	PlayerID          int            `json:"player_id" db:"player_id"`
	FirstName         string         `json:"first_name" db:"first_name"`
	LastName          string         `json:"last_name" db:"last_name"`
	TeamID            int            `json:"team_id" db:"team_id"`
	ESPNID            sql.NullString `json:"espn_id,omitempty" db:"espn_id"`
	HeadshotURL       sql.NullString `json:"headshot_url,omitempty" db:"headshot_url"`
	HeadshotUpdatedAt sql.NullTime   `json:"headshot_updated_at,omitempty" db:"headshot_updated_at"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// FullName returns "First Last" for logs and name matching.
func (p *Player) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// PlayerGameStat is one player's consolidated stat line for one game.
// (espn_player_id, espn_game_id) is the upsert key; code is generated once
// at insert and never rewritten.
type PlayerGameStat struct {
	StatID       int       `json:"stat_id" db:"stat_id"`
	Code         string    `json:"code" db:"code"`
	PlayerID     int       `json:"player_id" db:"player_id"`
	ESPNPlayerID string    `json:"espn_player_id" db:"espn_player_id"`
	ESPNGameID   string    `json:"espn_game_id" db:"espn_game_id"`
	GameDate     time.Time `json:"game_date" db:"game_date"`
	Season       int       `json:"season" db:"season"`
	Week         int       `json:"week" db:"week"`
	Passing      StatMap   `json:"passing" db:"passing"`
	Rushing      StatMap   `json:"rushing" db:"rushing"`
	Receiving    StatMap   `json:"receiving" db:"receiving"`
	Fumbles      int       `json:"fumbles" db:"fumbles"`
	FumblesLost  int       `json:"fumbles_lost" db:"fumbles_lost"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ScheduleGame is one scheduled matchup, keyed by ESPN's game id.
type ScheduleGame struct {
	GameID      int             `json:"game_id" db:"game_id"`
	ESPNGameID  string          `json:"espn_game_id" db:"espn_game_id"`
	Season      int             `json:"season" db:"season"`
	SeasonType  int             `json:"season_type" db:"season_type"`
	Week        int             `json:"week" db:"week"`
	HomeTeamID  int             `json:"home_team_id" db:"home_team_id"`
	AwayTeamID  int             `json:"away_team_id" db:"away_team_id"`
	Kickoff     time.Time       `json:"kickoff" db:"kickoff"`
	Spread      sql.NullFloat64 `json:"spread,omitempty" db:"spread"`
	OverUnder   sql.NullFloat64 `json:"over_under,omitempty" db:"over_under"`
	HomeImplied sql.NullFloat64 `json:"home_implied,omitempty" db:"home_implied"`
	AwayImplied sql.NullFloat64 `json:"away_implied,omitempty" db:"away_implied"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// SetOdds records a spread/total pair and derives both implied team totals,
// rounded to one decimal. Spread is home-relative (home favored by 3 → -3.0).
func (g *ScheduleGame) SetOdds(spread, overUnder float64) {
	g.Spread = sql.NullFloat64{Float64: spread, Valid: true}
	g.OverUnder = sql.NullFloat64{Float64: overUnder, Valid: true}
	g.HomeImplied = sql.NullFloat64{Float64: roundHalfPoint((overUnder - spread) / 2), Valid: true}
	g.AwayImplied = sql.NullFloat64{Float64: roundHalfPoint((overUnder + spread) / 2), Valid: true}
}

func roundHalfPoint(v float64) float64 {
	return math.Round(v*10) / 10
}

// IngestRun is one job execution recorded in the run ledger.
type IngestRun struct {
	RunID      int            `json:"run_id" db:"run_id"`
	Kind       string         `json:"kind" db:"kind"`
	Status     string         `json:"status" db:"status"`
	Season     int            `json:"season" db:"season"`
	StartWeek  int            `json:"start_week" db:"start_week"`
	EndWeek    int            `json:"end_week" db:"end_week"`
	SeasonType int            `json:"season_type" db:"season_type"`
	Found      int            `json:"found" db:"found"`
	Matched    int            `json:"matched" db:"matched"`
	Processed  int            `json:"processed" db:"processed"`
	Error      sql.NullString `json:"error,omitempty" db:"error"`
	StartedAt  sql.NullTime   `json:"started_at,omitempty" db:"started_at"`
	FinishedAt sql.NullTime   `json:"finished_at,omitempty" db:"finished_at"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}
