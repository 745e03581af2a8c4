package lines

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/nfl"
	"github.com/fortuna/gridiron/internal/store"
)

// ScheduleLines is the schedule repository slice the fallback needs.
type ScheduleLines interface {
	ListByWeek(ctx context.Context, season, seasonType, week int) ([]*store.ScheduleGame, error)
	UpdateOdds(ctx context.Context, espnGameID string, spread, overUnder, homeImplied, awayImplied float64) error
}

// Ingester backfills betting lines for games the primary feed left bare.
// It only ever fills gaps; a line already captured upstream wins.
type Ingester struct {
	client *Client
	teams  *nfl.Directory
	sched  ScheduleLines
	log    *logrus.Entry
}

func NewIngester(client *Client, teams *nfl.Directory, sched ScheduleLines, logger *logrus.Logger) *Ingester {
	return &Ingester{
		client: client,
		teams:  teams,
		sched:  sched,
		log:    logger.WithField("component", "lines-ingester"),
	}
}

// ApplyWeek scrapes the lines page once and writes odds onto the week's
// games that have none. Per-game failures degrade to warnings.
func (in *Ingester) ApplyWeek(ctx context.Context, season, seasonType, week int) (int, error) {
	games, err := in.sched.ListByWeek(ctx, season, seasonType, week)
	if err != nil {
		return 0, fmt.Errorf("listing week games: %w", err)
	}

	var bare []*store.ScheduleGame
	for _, g := range games {
		if !g.Spread.Valid {
			bare = append(bare, g)
		}
	}
	if len(bare) == 0 {
		in.log.WithFields(logrus.Fields{"season": season, "week": week}).Debug("no gaps to fill")
		return 0, nil
	}

	html, err := in.client.FetchLines(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching lines page: %w", err)
	}
	doc, err := ParseHTML(html)
	if err != nil {
		return 0, err
	}

	entries := ParseLines(doc)
	if len(entries) == 0 {
		in.log.Warn("⚠️  lines page yielded no entries")
		return 0, nil
	}

	var filled int
	for _, g := range bare {
		entry, ok := in.matchEntry(g, entries)
		if !ok {
			continue
		}

		g.SetOdds(entry.Spread, entry.OverUnder)
		err := in.sched.UpdateOdds(ctx, g.ESPNGameID,
			g.Spread.Float64, g.OverUnder.Float64,
			g.HomeImplied.Float64, g.AwayImplied.Float64)
		if err != nil {
			in.log.WithError(err).WithField("game", g.ESPNGameID).Warn("⚠️  odds update failed")
			continue
		}
		filled++
		in.log.WithFields(logrus.Fields{
			"game":       g.ESPNGameID,
			"spread":     entry.Spread,
			"over_under": entry.OverUnder,
		}).Info("✓ filled line from fallback source")
	}

	return filled, nil
}

// matchEntry pairs a schedule row with a scraped line by resolving both
// scraped names through the directory.
func (in *Ingester) matchEntry(g *store.ScheduleGame, entries []Entry) (Entry, bool) {
	for _, e := range entries {
		home, okHome := in.resolveTeam(e.HomeName)
		away, okAway := in.resolveTeam(e.AwayName)
		if !okHome || !okAway {
			continue
		}
		if home.ID == g.HomeTeamID && away.ID == g.AwayTeamID {
			return e, true
		}
	}
	return Entry{}, false
}

func (in *Ingester) resolveTeam(name string) (*nfl.Team, bool) {
	if team, ok := in.teams.ByName(name); ok {
		return team, true
	}
	return in.teams.ByAbbreviation(name)
}
