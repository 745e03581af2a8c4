package headshots

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/blob"
	"github.com/fortuna/gridiron/internal/ingest/espn"
	"github.com/fortuna/gridiron/internal/store"
)

// PlayerSource is the player repository slice the syncer needs.
type PlayerSource interface {
	ListWithESPNID(ctx context.Context) ([]*store.Player, error)
	UpdateHeadshot(ctx context.Context, playerID int, url string, updatedAt time.Time) error
}

// Syncer mirrors player headshots from the upstream CDN into our bucket.
// Only players already linked to an ESPN id are eligible; a recent sync is
// skipped unless forced.
type Syncer struct {
	client  *espn.Client
	players PlayerSource
	blob    blob.Store
	clock   clockwork.Clock
	bucket  string
	maxAge  time.Duration
	log     *logrus.Entry
}

func NewSyncer(client *espn.Client, players PlayerSource, blobStore blob.Store, bucket string, maxAge time.Duration, logger *logrus.Logger) *Syncer {
	return &Syncer{
		client:  client,
		players: players,
		blob:    blobStore,
		clock:   clockwork.NewRealClock(),
		bucket:  bucket,
		maxAge:  maxAge,
		log:     logger.WithField("component", "headshots"),
	}
}

// NewSyncerWithClock is the test hook for freshness checks.
func NewSyncerWithClock(client *espn.Client, players PlayerSource, blobStore blob.Store, bucket string, maxAge time.Duration, clock clockwork.Clock, logger *logrus.Logger) *Syncer {
	s := NewSyncer(client, players, blobStore, bucket, maxAge, logger)
	s.clock = clock
	return s
}

// Sync walks linked players one at a time. Per-player failures are logged
// and skipped; the pass always completes. Found counts eligible players,
// Matched counts those with an upstream image, Processed counts uploads.
func (s *Syncer) Sync(ctx context.Context, force bool) (espn.Summary, error) {
	players, err := s.players.ListWithESPNID(ctx)
	if err != nil {
		return espn.Summary{}, fmt.Errorf("listing linked players: %w", err)
	}

	var summary espn.Summary
	var fresh int

	for _, p := range players {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if !force && p.HeadshotUpdatedAt.Valid && s.clock.Since(p.HeadshotUpdatedAt.Time) < s.maxAge {
			fresh++
			continue
		}
		summary.Found++

		if err := s.syncPlayer(ctx, p, &summary); err != nil {
			s.log.WithError(err).WithField("player", p.PlayerID).Warn("⚠️  headshot sync failed")
		}
	}

	s.log.WithFields(logrus.Fields{
		"eligible": summary.Found,
		"fresh":    fresh,
		"uploaded": summary.Processed,
	}).Info("✓ headshot sync complete")
	return summary, nil
}

func (s *Syncer) syncPlayer(ctx context.Context, p *store.Player, summary *espn.Summary) error {
	athlete, err := s.client.FetchAthlete(ctx, p.ESPNID.String)
	if err != nil {
		return fmt.Errorf("fetch athlete: %w", err)
	}
	if athlete.Headshot.Href == "" {
		s.log.WithField("player", p.PlayerID).Debug("no headshot upstream")
		return nil
	}
	summary.Matched++

	img, err := s.client.Download(ctx, athlete.Headshot.Href)
	if err != nil {
		return fmt.Errorf("download image: %w", err)
	}

	path := fmt.Sprintf("nfl/%d.png", p.PlayerID)
	url, err := s.blob.Upload(ctx, s.bucket, path, img, "image/png")
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	if err := s.players.UpdateHeadshot(ctx, p.PlayerID, url, s.clock.Now()); err != nil {
		return fmt.Errorf("record url: %w", err)
	}

	summary.Processed++
	return nil
}
