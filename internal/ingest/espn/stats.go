package espn

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/pacing"
	"github.com/fortuna/gridiron/internal/store"
)

// IdentityResolver maps a box score athlete to a player row. A nil player
// with a nil error means "no unambiguous match"; errors are reserved for
// store failures.
type IdentityResolver interface {
	Resolve(ctx context.Context, athlete Athlete) (*store.Player, error)
}

// StatStore persists consolidated per-game stat records.
type StatStore interface {
	Upsert(ctx context.Context, s *store.PlayerGameStat) error
}

// StatsIngester walks weekly events, decodes each game's box score and
// persists one consolidated record per matched player per game.
type StatsIngester struct {
	client   *Client
	resolver IdentityResolver
	stats    StatStore
	pacer    *pacing.Pacer
	log      *logrus.Entry
}

// NewStatsIngester wires a stats ingester. The pacer spaces persistence
// calls and is separate from the client's fetch pacer.
func NewStatsIngester(client *Client, resolver IdentityResolver, stats StatStore, pacer *pacing.Pacer, logger *logrus.Logger) *StatsIngester {
	return &StatsIngester{
		client:   client,
		resolver: resolver,
		stats:    stats,
		pacer:    pacer,
		log:      logger.WithField("component", "stats-ingester"),
	}
}

// IngestWeeks processes every event in the given week range sequentially.
// Game-level failures (summary fetch, box score shape) skip that game and
// continue; resolver store failures abort the run. The returned summary
// counts unique athletes seen, athletes matched to a player row, and
// records actually persisted.
func (si *StatsIngester) IngestWeeks(ctx context.Context, season, seasonType, startWeek, endWeek int) (Summary, error) {
	var total Summary

	for week := startWeek; week <= endWeek; week++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		events := ResolveCollectionAs[Event](ctx, si.client, si.client.WeekEventsURL(season, seasonType, week))
		if len(events) == 0 {
			// Ambiguous: a bye-heavy week looks the same as an upstream failure.
			si.log.WithFields(logrus.Fields{"season": season, "week": week}).Warn("⚠️  no events for week")
			continue
		}

		si.log.WithFields(logrus.Fields{"season": season, "week": week, "events": len(events)}).Info("ingesting week")

		for _, ev := range events {
			if err := ctx.Err(); err != nil {
				return total, err
			}

			summary, err := si.ingestGame(ctx, ev, season, seasonType, week)
			total.Add(summary)
			if err != nil {
				if isFatal(err) {
					return total, err
				}
				si.log.WithError(err).WithField("event", ev.ID).Error("skipping game")
			}
		}
	}

	si.log.WithFields(logrus.Fields{
		"found":     total.Found,
		"matched":   total.Matched,
		"processed": total.Processed,
	}).Info("✓ stats ingest complete")
	return total, nil
}

// fatalError marks failures that must abort the run instead of skipping the
// current game.
type fatalError struct{ err error }

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

func isFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}

func (si *StatsIngester) ingestGame(ctx context.Context, ev Event, season, seasonType, week int) (Summary, error) {
	var summary Summary

	gameDate, err := ev.Kickoff()
	if err != nil {
		return summary, fmt.Errorf("parse kickoff %q: %w", ev.Date, err)
	}

	raw, err := si.client.FetchGameSummary(ctx, ev.ID)
	if err != nil {
		return summary, fmt.Errorf("fetch summary: %w", err)
	}

	boxes, err := ParseBoxScore(raw)
	if err != nil {
		return summary, fmt.Errorf("parse box score: %w", err)
	}

	// One consolidated record per athlete per game, in first-seen order so
	// reruns persist deterministically.
	records := make(map[string]*store.PlayerGameStat)
	var order []string
	resolved := make(map[string]*store.Player)

	for _, box := range boxes {
		for _, category := range box.Categories {
			for _, line := range category.Athletes {
				athleteID := line.Athlete.ID

				player, seen := resolved[athleteID]
				if !seen {
					summary.Found++
					player, err = si.resolver.Resolve(ctx, line.Athlete)
					if err != nil {
						return summary, &fatalError{fmt.Errorf("resolve athlete %s: %w", athleteID, err)}
					}
					resolved[athleteID] = player
					if player == nil {
						si.log.WithFields(logrus.Fields{
							"athlete": athleteID,
							"name":    line.Athlete.DisplayName,
						}).Info("unmatched athlete")
					} else {
						summary.Matched++
					}
				}
				if player == nil {
					continue
				}

				rec, ok := records[athleteID]
				if !ok {
					rec = &store.PlayerGameStat{
						PlayerID:     player.PlayerID,
						ESPNPlayerID: athleteID,
						ESPNGameID:   ev.ID,
						GameDate:     gameDate,
						Season:       season,
						Week:         week,
					}
					records[athleteID] = rec
					order = append(order, athleteID)
				}

				ApplyCategory(rec, category.Name, category.Keys, line.Values)
			}
		}
	}

	summary.Processed = si.persistAll(ctx, ev.ID, records, order)
	return summary, nil
}

// persistAll writes the consolidated records one at a time with a pacing
// delay before each. A foreign-key violation means the player row vanished
// between resolution and persist; that record is skipped, anything else is
// a failure, and neither aborts the batch.
func (si *StatsIngester) persistAll(ctx context.Context, eventID string, records map[string]*store.PlayerGameStat, order []string) int {
	var processed, skipped, failed int

	for _, athleteID := range order {
		si.pacer.Wait()

		rec := records[athleteID]
		if err := si.stats.Upsert(ctx, rec); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23503" {
				skipped++
				si.log.WithFields(logrus.Fields{
					"event":   eventID,
					"athlete": athleteID,
					"player":  rec.PlayerID,
				}).Warn("⚠️  player row missing, skipping stat record")
				continue
			}
			failed++
			si.log.WithError(err).WithFields(logrus.Fields{
				"event":   eventID,
				"athlete": athleteID,
			}).Error("stat upsert failed")
			continue
		}
		processed++
	}

	si.log.WithFields(logrus.Fields{
		"event":     eventID,
		"processed": processed,
		"skipped":   skipped,
		"failed":    failed,
	}).Debug("game persisted")

	return processed
}
