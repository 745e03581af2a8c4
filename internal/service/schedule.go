package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/cache"
	"github.com/fortuna/gridiron/internal/nfl"
	"github.com/fortuna/gridiron/internal/store"
	"github.com/fortuna/gridiron/internal/store/repository"
)

const scheduleCacheTTL = 60 * time.Second

// ScheduleService serves week schedules with team details and lines.
type ScheduleService struct {
	sched *repository.ScheduleRepository
	teams *nfl.Directory
	cache *cache.RedisCache
	log   *logrus.Entry
}

// NewScheduleService wires the service; cache may be nil, which disables
// the read-through layer.
func NewScheduleService(sched *repository.ScheduleRepository, teams *nfl.Directory, redisCache *cache.RedisCache, logger *logrus.Logger) *ScheduleService {
	return &ScheduleService{
		sched: sched,
		teams: teams,
		cache: redisCache,
		log:   logger.WithField("component", "schedule-service"),
	}
}

// GameLine is one schedule row enriched with both teams.
type GameLine struct {
	Game     *store.ScheduleGame `json:"game"`
	HomeTeam *nfl.Team           `json:"home_team"`
	AwayTeam *nfl.Team           `json:"away_team"`
}

// WeekSchedule returns one week's games in kickoff order.
func (s *ScheduleService) WeekSchedule(ctx context.Context, season, seasonType, week int) ([]*GameLine, error) {
	key := fmt.Sprintf("schedule:%d:%d:%d", season, seasonType, week)

	if s.cache != nil {
		var cached []*GameLine
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !cache.IsMiss(err) {
			s.log.WithError(err).Warn("⚠️  cache read failed")
		}
	}

	games, err := s.sched.ListByWeek(ctx, season, seasonType, week)
	if err != nil {
		return nil, fmt.Errorf("fetching week schedule: %w", err)
	}

	lines := make([]*GameLine, 0, len(games))
	for _, g := range games {
		home, _ := s.teams.ByID(g.HomeTeamID)
		away, _ := s.teams.ByID(g.AwayTeamID)
		lines = append(lines, &GameLine{
			Game:     g,
			HomeTeam: home,
			AwayTeam: away,
		})
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, lines, scheduleCacheTTL); err != nil {
			s.log.WithError(err).Warn("⚠️  cache write failed")
		}
	}

	return lines, nil
}

// CurrentWeek exposes the derived in-progress week for API consumers.
func (s *ScheduleService) CurrentWeek(ctx context.Context) (season, seasonType, week int, err error) {
	return s.sched.CurrentWeek(ctx, time.Now().Add(36*time.Hour))
}
