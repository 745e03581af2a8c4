package espn

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/nfl"
	"github.com/fortuna/gridiron/internal/store"
)

// ScheduleStore persists schedule rows.
type ScheduleStore interface {
	Upsert(ctx context.Context, g *store.ScheduleGame) error
}

// ScheduleIngester mirrors the weekly event listings into schedule rows,
// capturing betting lines when the odds collection has any.
type ScheduleIngester struct {
	client *Client
	teams  *nfl.Directory
	store  ScheduleStore
	log    *logrus.Entry
}

func NewScheduleIngester(client *Client, teams *nfl.Directory, scheduleStore ScheduleStore, logger *logrus.Logger) *ScheduleIngester {
	return &ScheduleIngester{
		client: client,
		teams:  teams,
		store:  scheduleStore,
		log:    logger.WithField("component", "schedule-ingester"),
	}
}

// SyncWeeks upserts every event in the week range. Found counts events
// seen, Matched counts events whose both teams mapped to the directory,
// Processed counts rows written.
func (si *ScheduleIngester) SyncWeeks(ctx context.Context, season, seasonType, startWeek, endWeek int) (Summary, error) {
	var total Summary

	for week := startWeek; week <= endWeek; week++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		events := ResolveCollectionAs[Event](ctx, si.client, si.client.WeekEventsURL(season, seasonType, week))
		if len(events) == 0 {
			si.log.WithFields(logrus.Fields{"season": season, "week": week}).Warn("⚠️  no events for week")
			continue
		}

		for _, ev := range events {
			total.Found++

			game, ok := si.buildGame(ev, season, seasonType, week)
			if !ok {
				continue
			}
			total.Matched++

			si.applyOdds(ctx, ev, game)

			if err := si.store.Upsert(ctx, game); err != nil {
				si.log.WithError(err).WithField("event", ev.ID).Error("schedule upsert failed")
				continue
			}
			total.Processed++
		}

		si.log.WithFields(logrus.Fields{"season": season, "week": week, "events": len(events)}).Info("✓ week synced")
	}

	return total, nil
}

func (si *ScheduleIngester) buildGame(ev Event, season, seasonType, week int) (*store.ScheduleGame, bool) {
	home, okHome := ev.Competitor("home")
	away, okAway := ev.Competitor("away")
	if !okHome || !okAway {
		si.log.WithField("event", ev.ID).Warn("⚠️  event missing competitors")
		return nil, false
	}

	// Competitor id doubles as the team's ESPN id on this endpoint.
	homeTeam, okHome := si.teams.ByESPNID(home.ID)
	awayTeam, okAway := si.teams.ByESPNID(away.ID)
	if !okHome || !okAway {
		si.log.WithFields(logrus.Fields{
			"event": ev.ID,
			"home":  home.ID,
			"away":  away.ID,
		}).Warn("⚠️  unmapped team, skipping event")
		return nil, false
	}

	kickoff, err := ev.Kickoff()
	if err != nil {
		si.log.WithError(err).WithField("event", ev.ID).Warn("⚠️  unparseable kickoff, skipping event")
		return nil, false
	}

	// Season and week come from the request loop; the event payload only
	// carries them as unresolved references.
	return &store.ScheduleGame{
		ESPNGameID: ev.ID,
		Season:     season,
		SeasonType: seasonType,
		Week:       week,
		HomeTeamID: homeTeam.ID,
		AwayTeamID: awayTeam.ID,
		Kickoff:    kickoff,
	}, true
}

// applyOdds pulls the event's odds collection and folds the first book's
// line in. No odds is normal for games far out; the upsert keeps any
// previously captured line either way.
func (si *ScheduleIngester) applyOdds(ctx context.Context, ev Event, game *store.ScheduleGame) {
	oddsURL := ev.OddsURL()
	if oddsURL == "" {
		oddsURL = si.client.EventOddsURL(ev.ID)
	}

	odds := ResolveCollectionAs[Odds](ctx, si.client, oddsURL)
	if len(odds) == 0 {
		return
	}

	line := odds[0]
	game.SetOdds(float64(line.Spread), float64(line.OverUnder))
	si.log.WithFields(logrus.Fields{
		"event":      ev.ID,
		"provider":   line.Provider.Name,
		"spread":     float64(line.Spread),
		"over_under": float64(line.OverUnder),
	}).Debug("captured line")
}
