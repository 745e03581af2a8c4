package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/gridiron/internal/store"
)

// ErrNotFound is returned by single-row lookups when no row matches.
var ErrNotFound = errors.New("not found")

const playerColumns = `player_id, first_name, last_name, team_id, espn_id,
	headshot_url, headshot_updated_at, created_at, updated_at`

// PlayerRepository handles player data access. It never inserts rows;
// player identities are created out-of-band and only annotated here.
type PlayerRepository struct {
	db *store.Database
}

// NewPlayerRepository creates a new player repository.
func NewPlayerRepository(db *store.Database) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// GetByID finds a player by internal id.
func (r *PlayerRepository) GetByID(ctx context.Context, playerID int) (*store.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE player_id = $1`

	p, err := scanPlayer(r.db.DB().QueryRowContext(ctx, query, playerID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("player %d: %w", playerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying player: %w", err)
	}
	return p, nil
}

// GetByESPNID finds a player by their ESPN id.
func (r *PlayerRepository) GetByESPNID(ctx context.Context, espnID string) (*store.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE espn_id = $1`

	p, err := scanPlayer(r.db.DB().QueryRowContext(ctx, query, espnID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("player with espn id %s: %w", espnID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying player by espn id: %w", err)
	}
	return p, nil
}

// SearchByName returns every player whose stored name equals the given
// first/last pair. Callers pass normalized forms (uppercase, no periods);
// the stored side is case-folded and period-stripped to match. Not filtered
// by team.
func (r *PlayerRepository) SearchByName(ctx context.Context, firstName, lastName string) ([]*store.Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE UPPER(REPLACE(first_name, '.', '')) = $1
			AND UPPER(REPLACE(last_name, '.', '')) = $2
		ORDER BY player_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("querying players by name: %w", err)
	}
	defer rows.Close()

	return scanPlayers(rows)
}

// ListByTeam returns all players on one internal team id.
func (r *PlayerRepository) ListByTeam(ctx context.Context, teamID int) ([]*store.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE team_id = $1 ORDER BY last_name, first_name`

	rows, err := r.db.DB().QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("querying team players: %w", err)
	}
	defer rows.Close()

	return scanPlayers(rows)
}

// ListUnmatched returns players that still have no ESPN id.
func (r *PlayerRepository) ListUnmatched(ctx context.Context) ([]*store.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE espn_id IS NULL ORDER BY last_name, first_name`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying unmatched players: %w", err)
	}
	defer rows.Close()

	return scanPlayers(rows)
}

// ListWithESPNID returns players that have an ESPN id, for the headshot
// pipeline.
func (r *PlayerRepository) ListWithESPNID(ctx context.Context) ([]*store.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE espn_id IS NOT NULL ORDER BY player_id`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying players with espn id: %w", err)
	}
	defer rows.Close()

	return scanPlayers(rows)
}

// SetESPNID records a newly discovered ESPN id on an existing row.
func (r *PlayerRepository) SetESPNID(ctx context.Context, playerID int, espnID string) error {
	query := `UPDATE players SET espn_id = $2, updated_at = NOW() WHERE player_id = $1`

	result, err := r.db.DB().ExecContext(ctx, query, playerID, espnID)
	if err != nil {
		return fmt.Errorf("updating espn id: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("player %d: %w", playerID, ErrNotFound)
	}
	return nil
}

// UpdateHeadshot records a freshly uploaded headshot URL and its timestamp.
func (r *PlayerRepository) UpdateHeadshot(ctx context.Context, playerID int, url string, updatedAt time.Time) error {
	query := `UPDATE players SET headshot_url = $2, headshot_updated_at = $3, updated_at = NOW() WHERE player_id = $1`

	result, err := r.db.DB().ExecContext(ctx, query, playerID, url, updatedAt)
	if err != nil {
		return fmt.Errorf("updating headshot: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("player %d: %w", playerID, ErrNotFound)
	}
	return nil
}

func scanPlayer(row interface{ Scan(dest ...interface{}) error }) (*store.Player, error) {
	p := &store.Player{}
	err := row.Scan(
		&p.PlayerID, &p.FirstName, &p.LastName, &p.TeamID, &p.ESPNID,
		&p.HeadshotURL, &p.HeadshotUpdatedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanPlayers(rows *sql.Rows) ([]*store.Player, error) {
	var players []*store.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
