package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/fortuna/gridiron/internal/store"
)

const statColumns = `stat_id, code, player_id, espn_player_id, espn_game_id,
	game_date, season, week, passing, rushing, receiving, fumbles, fumbles_lost,
	created_at, updated_at`

// StatsRepository handles player game stat persistence.
type StatsRepository struct {
	db *store.Database
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(db *store.Database) *StatsRepository {
	return &StatsRepository{db: db}
}

// Upsert inserts or updates one consolidated stat line by its natural key
// (espn_player_id, espn_game_id). An existing row keeps its identity, code,
// and created_at; only the stat fields and updated_at change. A new row gets
// a freshly generated code. The stat struct is refreshed with the stored
// identity and timestamps.
func (r *StatsRepository) Upsert(ctx context.Context, s *store.PlayerGameStat) error {
	if s.Code == "" {
		s.Code = uuid.NewString()
	}

	query := `
		INSERT INTO player_game_stats (code, player_id, espn_player_id, espn_game_id,
			game_date, season, week, passing, rushing, receiving, fumbles, fumbles_lost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (espn_player_id, espn_game_id) DO UPDATE SET
			passing = EXCLUDED.passing,
			rushing = EXCLUDED.rushing,
			receiving = EXCLUDED.receiving,
			fumbles = EXCLUDED.fumbles,
			fumbles_lost = EXCLUDED.fumbles_lost,
			updated_at = NOW()
		RETURNING stat_id, code, created_at, updated_at
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		s.Code, s.PlayerID, s.ESPNPlayerID, s.ESPNGameID,
		s.GameDate, s.Season, s.Week,
		s.Passing, s.Rushing, s.Receiving, s.Fumbles, s.FumblesLost,
	).Scan(&s.StatID, &s.Code, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upserting player game stat: %w", err)
	}

	return nil
}

// GetByNaturalKey finds one stat line by (espn_player_id, espn_game_id).
func (r *StatsRepository) GetByNaturalKey(ctx context.Context, espnPlayerID, espnGameID string) (*store.PlayerGameStat, error) {
	query := `SELECT ` + statColumns + ` FROM player_game_stats WHERE espn_player_id = $1 AND espn_game_id = $2`

	s, err := scanStat(r.db.DB().QueryRowContext(ctx, query, espnPlayerID, espnGameID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("stat line %s/%s: %w", espnPlayerID, espnGameID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying stat line: %w", err)
	}
	return s, nil
}

// ListByPlayer returns a player's stat lines for one season, most recent
// game first.
func (r *StatsRepository) ListByPlayer(ctx context.Context, playerID, season int) ([]*store.PlayerGameStat, error) {
	query := `
		SELECT ` + statColumns + `
		FROM player_game_stats
		WHERE player_id = $1 AND season = $2
		ORDER BY game_date DESC
	`

	rows, err := r.db.DB().QueryContext(ctx, query, playerID, season)
	if err != nil {
		return nil, fmt.Errorf("querying player stat lines: %w", err)
	}
	defer rows.Close()

	var stats []*store.PlayerGameStat
	for rows.Next() {
		s, err := scanStat(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning stat line: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func scanStat(row interface{ Scan(dest ...interface{}) error }) (*store.PlayerGameStat, error) {
	s := &store.PlayerGameStat{}
	err := row.Scan(
		&s.StatID, &s.Code, &s.PlayerID, &s.ESPNPlayerID, &s.ESPNGameID,
		&s.GameDate, &s.Season, &s.Week,
		&s.Passing, &s.Rushing, &s.Receiving, &s.Fumbles, &s.FumblesLost,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}
