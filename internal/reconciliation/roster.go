package reconciliation

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/ingest/espn"
	"github.com/fortuna/gridiron/internal/nfl"
	"github.com/fortuna/gridiron/internal/store"
)

// RosterStore is the player repository slice the roster sync needs beyond
// the matcher's.
type RosterStore interface {
	PlayerStore
	ListByTeam(ctx context.Context, teamID int) ([]*store.Player, error)
}

// Metrics tracks one roster sync pass. Updated counts ids written by the
// fuzzy path here; exact-path learns are written and logged by the matcher.
type Metrics struct {
	Examined  int
	Exact     int
	Fuzzy     int
	Ambiguous int
	Unmatched int
	Updated   int
}

// RosterSync walks every team's active roster and links athletes to player
// rows. Unlike the per-game matcher it may fall back to fuzzy name matching,
// which is safe here because candidates are narrowed to one team's roster.
type RosterSync struct {
	client  *espn.Client
	teams   *nfl.Directory
	players RosterStore
	matcher *Matcher
	log     *logrus.Entry
}

func NewRosterSync(client *espn.Client, teams *nfl.Directory, players RosterStore, matcher *Matcher, logger *logrus.Logger) *RosterSync {
	return &RosterSync{
		client:  client,
		teams:   teams,
		players: players,
		matcher: matcher,
		log:     logger.WithField("component", "roster-sync"),
	}
}

// Sync resolves every active athlete across the league for one season.
// Found counts athletes examined, Matched counts exact plus fuzzy links,
// Processed counts espn ids actually written.
func (rs *RosterSync) Sync(ctx context.Context, season int) (espn.Summary, error) {
	var metrics Metrics

	for _, team := range rs.teams.Teams() {
		if err := ctx.Err(); err != nil {
			return summaryFrom(metrics), err
		}

		if err := rs.syncTeam(ctx, season, team, &metrics); err != nil {
			return summaryFrom(metrics), err
		}
	}

	rs.log.WithFields(logrus.Fields{
		"examined":  metrics.Examined,
		"exact":     metrics.Exact,
		"fuzzy":     metrics.Fuzzy,
		"ambiguous": metrics.Ambiguous,
		"unmatched": metrics.Unmatched,
		"updated":   metrics.Updated,
	}).Info("✓ roster sync complete")

	return summaryFrom(metrics), nil
}

func (rs *RosterSync) syncTeam(ctx context.Context, season int, team nfl.Team, metrics *Metrics) error {
	athletes := ResolveRoster(ctx, rs.client, season, team)
	if len(athletes) == 0 {
		rs.log.WithField("team", team.Abbreviation).Warn("⚠️  empty roster")
		return nil
	}

	// One roster read per team; every fuzzy probe below searches this pool.
	pool, err := rs.players.ListByTeam(ctx, team.ID)
	if err != nil {
		return err
	}

	for _, athlete := range athletes {
		metrics.Examined++

		player, err := rs.matcher.Resolve(ctx, athlete)
		if err != nil {
			return err
		}
		if player != nil {
			metrics.Exact++
			continue
		}

		rs.fuzzyLink(ctx, athlete, pool, metrics)
	}

	return nil
}

// ResolveRoster fetches a team's active athletes for a season.
func ResolveRoster(ctx context.Context, client *espn.Client, season int, team nfl.Team) []espn.Athlete {
	return espn.ResolveCollectionAs[espn.Athlete](ctx, client, client.TeamAthletesURL(season, team.ESPNID))
}

// fuzzyLink tries the relaxed rules against the team's own roster pool.
// Exactly one candidate earns a link; anything else leaves the athlete for
// a human.
func (rs *RosterSync) fuzzyLink(ctx context.Context, athlete espn.Athlete, pool []*store.Player, metrics *Metrics) {
	first, last := athlete.Names()
	first = NormalizeName(first)
	last = NormalizeName(last)
	if last == "" {
		metrics.Unmatched++
		return
	}

	var candidates []*store.Player
	for _, p := range pool {
		if p.ESPNID.Valid {
			continue
		}
		if fuzzyNameMatch(first, last, NormalizeName(p.FirstName), NormalizeName(p.LastName)) {
			candidates = append(candidates, p)
		}
	}

	switch len(candidates) {
	case 0:
		metrics.Unmatched++
		rs.log.WithFields(logrus.Fields{
			"athlete": athlete.ID,
			"name":    athlete.DisplayName,
		}).Info("no fuzzy match")
	case 1:
		match := candidates[0]
		metrics.Fuzzy++
		if err := rs.players.SetESPNID(ctx, match.PlayerID, athlete.ID); err != nil {
			rs.log.WithError(err).WithField("player", match.PlayerID).Warn("⚠️  failed to persist espn id")
			return
		}
		metrics.Updated++
		rs.log.WithFields(logrus.Fields{
			"player":  match.PlayerID,
			"athlete": athlete.ID,
			"name":    match.FullName(),
		}).Info("✓ fuzzy link")
	default:
		metrics.Ambiguous++
		rs.log.WithFields(logrus.Fields{
			"athlete":    athlete.ID,
			"name":       athlete.DisplayName,
			"candidates": len(candidates),
		}).Warn("⚠️  fuzzy ambiguity, leaving unmatched")
	}
}

// fuzzyNameMatch: last names must match exactly; first names match on a
// prefix relationship in either direction ("Mitch" vs "Mitchell"), or on
// first-token equality when both carry multiple tokens.
func fuzzyNameMatch(first, last, poolFirst, poolLast string) bool {
	if last == "" || last != poolLast {
		return false
	}
	if first == "" || poolFirst == "" {
		return false
	}
	if strings.HasPrefix(first, poolFirst) || strings.HasPrefix(poolFirst, first) {
		return true
	}

	aTokens := strings.Fields(first)
	bTokens := strings.Fields(poolFirst)
	if len(aTokens) > 1 && len(bTokens) > 1 && aTokens[0] == bTokens[0] {
		return true
	}
	return false
}

func summaryFrom(m Metrics) espn.Summary {
	return espn.Summary{
		Found:     m.Examined,
		Matched:   m.Exact + m.Fuzzy,
		Processed: m.Updated,
	}
}
