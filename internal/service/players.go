package service

import (
	"context"
	"fmt"

	"github.com/fortuna/gridiron/internal/nfl"
	"github.com/fortuna/gridiron/internal/store"
	"github.com/fortuna/gridiron/internal/store/repository"
)

// PlayerService handles player-related reads.
type PlayerService struct {
	players *repository.PlayerRepository
	teams   *nfl.Directory
}

func NewPlayerService(players *repository.PlayerRepository, teams *nfl.Directory) *PlayerService {
	return &PlayerService{
		players: players,
		teams:   teams,
	}
}

// PlayerProfile is a player enriched with their team.
type PlayerProfile struct {
	Player *store.Player `json:"player"`
	Team   *nfl.Team     `json:"team"`
}

// Profile retrieves one player with team details.
func (s *PlayerService) Profile(ctx context.Context, playerID int) (*PlayerProfile, error) {
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("fetching player: %w", err)
	}

	team, _ := s.teams.ByID(player.TeamID)
	return &PlayerProfile{
		Player: player,
		Team:   team,
	}, nil
}

// Unmatched lists players not yet linked to an upstream id; the operator
// surface for reviewing identity gaps.
func (s *PlayerService) Unmatched(ctx context.Context) ([]*PlayerProfile, error) {
	players, err := s.players.ListUnmatched(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing unmatched players: %w", err)
	}

	profiles := make([]*PlayerProfile, 0, len(players))
	for _, p := range players {
		team, _ := s.teams.ByID(p.TeamID)
		profiles = append(profiles, &PlayerProfile{Player: p, Team: team})
	}
	return profiles, nil
}

// Roster lists a team's players.
func (s *PlayerService) Roster(ctx context.Context, teamID int) ([]*store.Player, error) {
	players, err := s.players.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("listing roster: %w", err)
	}
	return players, nil
}
