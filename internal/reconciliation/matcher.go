package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/ingest/espn"
	"github.com/fortuna/gridiron/internal/store"
	"github.com/fortuna/gridiron/internal/store/repository"
)

// PlayerStore is the slice of the player repository the matcher needs.
type PlayerStore interface {
	GetByESPNID(ctx context.Context, espnID string) (*store.Player, error)
	SearchByName(ctx context.Context, firstName, lastName string) ([]*store.Player, error)
	SetESPNID(ctx context.Context, playerID int, espnID string) error
}

// Matcher resolves ESPN athletes to player rows, learning id mappings as a
// side effect. It never creates player rows; those arrive out-of-band.
type Matcher struct {
	players PlayerStore
	log     *logrus.Entry
}

func NewMatcher(players PlayerStore, logger *logrus.Logger) *Matcher {
	return &Matcher{
		players: players,
		log:     logger.WithField("component", "matcher"),
	}
}

// Resolve implements espn.IdentityResolver. A nil player with nil error
// means no unambiguous match; only store failures surface as errors.
//
// Name candidates are not team-filtered, so two active same-name players
// would collide here and resolve as ambiguous. The roster sync narrows by
// team and picks those up.
func (m *Matcher) Resolve(ctx context.Context, athlete espn.Athlete) (*store.Player, error) {
	if athlete.ID != "" {
		player, err := m.players.GetByESPNID(ctx, athlete.ID)
		if err == nil {
			return player, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("lookup by espn id: %w", err)
		}
	}

	first, last := athlete.Names()
	first = NormalizeName(first)
	last = NormalizeName(last)
	if last == "" {
		m.log.WithField("athlete", athlete.ID).Warn("⚠️  athlete has no usable name")
		return nil, nil
	}

	candidates, err := m.MatchByName(ctx, first, last, "")
	if err != nil {
		return nil, err
	}

	switch len(candidates) {
	case 0:
		m.log.WithFields(logrus.Fields{
			"athlete": athlete.ID,
			"name":    athlete.DisplayName,
		}).Info("no match")
		return nil, nil
	case 1:
		match := candidates[0]
		// Best-effort learn: a failed write still returns the match.
		if athlete.ID != "" {
			if err := m.players.SetESPNID(ctx, match.PlayerID, athlete.ID); err != nil {
				m.log.WithError(err).WithFields(logrus.Fields{
					"player":  match.PlayerID,
					"athlete": athlete.ID,
				}).Warn("⚠️  failed to persist espn id")
			} else {
				m.log.WithFields(logrus.Fields{
					"player":  match.PlayerID,
					"athlete": athlete.ID,
					"name":    match.FullName(),
				}).Info("✓ learned espn id")
			}
		}
		return match, nil
	default:
		// Never guess between same-name players.
		m.log.WithFields(logrus.Fields{
			"athlete":    athlete.ID,
			"name":       athlete.DisplayName,
			"candidates": len(candidates),
		}).Warn("⚠️  ambiguous name, leaving unmatched")
		return nil, nil
	}
}

// MatchByName returns the name-match candidates for an already normalized
// name pair. teamHint is accepted for narrowing but not applied at the data
// layer yet, so same-name collisions across teams resolve as ambiguous; the
// team-scoped roster sync picks those up instead.
func (m *Matcher) MatchByName(ctx context.Context, firstName, lastName, teamHint string) ([]*store.Player, error) {
	_ = teamHint
	candidates, err := m.players.SearchByName(ctx, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("search by name: %w", err)
	}
	return candidates, nil
}

// suffixes dropped from the end of a normalized name.
var nameSuffixes = map[string]bool{
	"JR":  true,
	"SR":  true,
	"II":  true,
	"III": true,
	"IV":  true,
}

// NormalizeName uppercases, strips periods, collapses whitespace and drops
// a trailing generational suffix. "Odell Beckham Jr." and "ODELL BECKHAM"
// normalize identically.
func NormalizeName(name string) string {
	name = strings.ReplaceAll(strings.ToUpper(name), ".", "")
	fields := strings.Fields(name)
	if len(fields) > 1 && nameSuffixes[fields[len(fields)-1]] {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}
