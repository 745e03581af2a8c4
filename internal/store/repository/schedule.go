package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fortuna/gridiron/internal/store"
)

const scheduleColumns = `game_id, espn_game_id, season, season_type, week,
	home_team_id, away_team_id, kickoff, spread, over_under, home_implied,
	away_implied, created_at, updated_at`

// ScheduleRepository handles schedule game data access.
type ScheduleRepository struct {
	db *store.Database
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *store.Database) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Upsert inserts or updates a schedule game by its ESPN game id. Betting
// fields coalesce so a run that saw no odds never erases previously captured
// ones. The struct is refreshed with the stored identity and timestamps.
func (r *ScheduleRepository) Upsert(ctx context.Context, g *store.ScheduleGame) error {
	query := `
		INSERT INTO schedule_games (espn_game_id, season, season_type, week,
			home_team_id, away_team_id, kickoff, spread, over_under, home_implied, away_implied)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (espn_game_id) DO UPDATE SET
			season = EXCLUDED.season,
			season_type = EXCLUDED.season_type,
			week = EXCLUDED.week,
			home_team_id = EXCLUDED.home_team_id,
			away_team_id = EXCLUDED.away_team_id,
			kickoff = EXCLUDED.kickoff,
			spread = COALESCE(EXCLUDED.spread, schedule_games.spread),
			over_under = COALESCE(EXCLUDED.over_under, schedule_games.over_under),
			home_implied = COALESCE(EXCLUDED.home_implied, schedule_games.home_implied),
			away_implied = COALESCE(EXCLUDED.away_implied, schedule_games.away_implied),
			updated_at = NOW()
		RETURNING game_id, created_at, updated_at
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		g.ESPNGameID, g.Season, g.SeasonType, g.Week,
		g.HomeTeamID, g.AwayTeamID, g.Kickoff,
		g.Spread, g.OverUnder, g.HomeImplied, g.AwayImplied,
	).Scan(&g.GameID, &g.CreatedAt, &g.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upserting schedule game: %w", err)
	}

	return nil
}

// UpdateOdds overwrites the betting fields of one game.
func (r *ScheduleRepository) UpdateOdds(ctx context.Context, espnGameID string, spread, overUnder, homeImplied, awayImplied float64) error {
	query := `
		UPDATE schedule_games
		SET spread = $2, over_under = $3, home_implied = $4, away_implied = $5, updated_at = NOW()
		WHERE espn_game_id = $1
	`

	result, err := r.db.DB().ExecContext(ctx, query, espnGameID, spread, overUnder, homeImplied, awayImplied)
	if err != nil {
		return fmt.Errorf("updating odds: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("schedule game %s: %w", espnGameID, ErrNotFound)
	}
	return nil
}

// GetByESPNGameID finds one game by its external id.
func (r *ScheduleRepository) GetByESPNGameID(ctx context.Context, espnGameID string) (*store.ScheduleGame, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedule_games WHERE espn_game_id = $1`

	g, err := scanScheduleGame(r.db.DB().QueryRowContext(ctx, query, espnGameID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("schedule game %s: %w", espnGameID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying schedule game: %w", err)
	}
	return g, nil
}

// ListByWeek returns the games of one (season, season type, week), ordered
// by kickoff.
func (r *ScheduleRepository) ListByWeek(ctx context.Context, season, seasonType, week int) ([]*store.ScheduleGame, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedule_games
		WHERE season = $1 AND season_type = $2 AND week = $3
		ORDER BY kickoff
	`

	rows, err := r.db.DB().QueryContext(ctx, query, season, seasonType, week)
	if err != nil {
		return nil, fmt.Errorf("querying week games: %w", err)
	}
	defer rows.Close()

	var games []*store.ScheduleGame
	for rows.Next() {
		g, err := scanScheduleGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning schedule game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// CurrentWeek reports the (season, season type, week) of the most recent
// game kicking off at or before the given horizon. Used by the daemon to
// decide which week a scheduled stats run should cover.
func (r *ScheduleRepository) CurrentWeek(ctx context.Context, horizon time.Time) (season, seasonType, week int, err error) {
	query := `
		SELECT season, season_type, week
		FROM schedule_games
		WHERE kickoff <= $1
		ORDER BY kickoff DESC
		LIMIT 1
	`

	err = r.db.DB().QueryRowContext(ctx, query, horizon).Scan(&season, &seasonType, &week)
	if err == sql.ErrNoRows {
		return 0, 0, 0, fmt.Errorf("current week: %w", ErrNotFound)
	}
	if err != nil {
		return 0, 0, 0, fmt.Errorf("querying current week: %w", err)
	}
	return season, seasonType, week, nil
}

func scanScheduleGame(row interface{ Scan(dest ...interface{}) error }) (*store.ScheduleGame, error) {
	g := &store.ScheduleGame{}
	err := row.Scan(
		&g.GameID, &g.ESPNGameID, &g.Season, &g.SeasonType, &g.Week,
		&g.HomeTeamID, &g.AwayTeamID, &g.Kickoff,
		&g.Spread, &g.OverUnder, &g.HomeImplied, &g.AwayImplied,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}
