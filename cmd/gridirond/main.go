package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/api/rest"
	"github.com/fortuna/gridiron/internal/api/websocket"
	"github.com/fortuna/gridiron/internal/blob"
	"github.com/fortuna/gridiron/internal/cache"
	"github.com/fortuna/gridiron/internal/config"
	"github.com/fortuna/gridiron/internal/headshots"
	"github.com/fortuna/gridiron/internal/ingest/espn"
	"github.com/fortuna/gridiron/internal/ingest/lines"
	"github.com/fortuna/gridiron/internal/jobs"
	"github.com/fortuna/gridiron/internal/nfl"
	"github.com/fortuna/gridiron/internal/pacing"
	"github.com/fortuna/gridiron/internal/publisher"
	"github.com/fortuna/gridiron/internal/reconciliation"
	"github.com/fortuna/gridiron/internal/scheduler"
	"github.com/fortuna/gridiron/internal/store"
	"github.com/fortuna/gridiron/internal/store/repository"
)

const (
	serviceName    = "gridiron"
	serviceVersion = "1.0.0"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := newLogger(cfg.LogLevel)
	log.Infof("Starting %s v%s - NFL Data Pipeline", serviceName, serviceVersion)

	// Database
	db, err := store.NewDatabase(cfg.DatabaseDSN, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	log.Info("✓ Connected to database")

	if err := db.RunMigrations(); err != nil {
		log.WithError(err).Fatal("failed to run database migrations")
	}
	log.Info("✓ Database migrations applied")

	// Seed initial data (non-fatal - may already exist)
	if err := db.SeedData(); err != nil {
		log.WithError(err).Warn("⚠️  seed data warning (continuing anyway)")
	} else {
		log.Info("✓ Seed data applied")
	}

	// Redis, with retry logic. The daemon needs it for run events and the
	// schedule cache, so exhaustion is fatal.
	var redisCache *cache.RedisCache
	maxRetries := 30
	retryDelay := 2 * time.Second

	log.Info("Connecting to Redis...")
	for i := 0; i < maxRetries; i++ {
		redisCache, err = cache.NewRedisCache(cfg.RedisURL)
		if err == nil {
			break
		}

		if i < maxRetries-1 {
			log.WithError(err).Warnf("redis connection attempt %d/%d failed (retrying in %v)", i+1, maxRetries, retryDelay)
			time.Sleep(retryDelay)
		} else {
			log.WithError(err).Fatalf("failed to connect to Redis after %d attempts", maxRetries)
		}
	}
	defer redisCache.Close()

	log.Info("✓ Connected to Redis")

	// Shared infrastructure
	teams := nfl.NewDirectory()
	fetchPacer := pacing.New(cfg.PaceInterval)
	persistPacer := pacing.New(cfg.PaceInterval)
	espnClient := espn.NewClient(cfg.ESPNCoreAPIBase, cfg.ESPNSiteAPIBase, fetchPacer, log)

	playerRepo := repository.NewPlayerRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	schedRepo := repository.NewScheduleRepository(db)
	runRepo := repository.NewRunRepository(db)

	// Ingest pipeline
	matcher := reconciliation.NewMatcher(playerRepo, log)
	statsIngester := espn.NewStatsIngester(espnClient, matcher, statsRepo, persistPacer, log)
	scheduleIngester := espn.NewScheduleIngester(espnClient, teams, schedRepo, log)
	rosterSync := reconciliation.NewRosterSync(espnClient, teams, playerRepo, matcher, log)

	var linesIngester *lines.Ingester
	if cfg.LinesEnabled && cfg.LinesURL != "" {
		linesClient, err := lines.NewClient(cfg.LinesURL, log)
		if err != nil {
			log.WithError(err).Fatal("failed to start lines client")
		}
		defer linesClient.Close()
		linesIngester = lines.NewIngester(linesClient, teams, schedRepo, log)
		log.Info("✓ Fallback lines source enabled")
	}

	var headshotSyncer *headshots.Syncer
	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		blobStore := blob.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, log)
		headshotSyncer = headshots.NewSyncer(espnClient, playerRepo, blobStore, cfg.HeadshotBucket, cfg.HeadshotMaxAge, log)
		log.Info("✓ Headshot sync enabled")
	} else {
		log.Warn("⚠️  supabase not configured, headshot runs disabled")
	}

	// Job service. Every trigger path (cron, REST, CLI) goes through it so
	// per-kind exclusion holds process-wide.
	registry := jobs.NewRegistry()
	runPublisher := publisher.NewRedisStreamPublisher(redisCache.Client())
	jobService := jobs.NewService(registry, runRepo, runPublisher, log)

	jobService.Register(jobs.NewRunner(jobs.RunKindStats, func(ctx context.Context, req jobs.Request) (espn.Summary, error) {
		return statsIngester.IngestWeeks(ctx, req.Season, req.SeasonType, req.StartWeek, req.EndWeek)
	}))
	jobService.Register(jobs.NewRunner(jobs.RunKindSchedule, func(ctx context.Context, req jobs.Request) (espn.Summary, error) {
		summary, err := scheduleIngester.SyncWeeks(ctx, req.Season, req.SeasonType, req.StartWeek, req.EndWeek)
		if err != nil {
			return summary, err
		}
		if linesIngester != nil {
			for week := req.StartWeek; week <= req.EndWeek; week++ {
				if _, err := linesIngester.ApplyWeek(ctx, req.Season, req.SeasonType, week); err != nil {
					log.WithError(err).WithField("week", week).Warn("⚠️  fallback lines pass failed")
					break
				}
			}
		}
		return summary, nil
	}))
	jobService.Register(jobs.NewRunner(jobs.RunKindPlayers, func(ctx context.Context, req jobs.Request) (espn.Summary, error) {
		return rosterSync.Sync(ctx, req.Season)
	}))
	if headshotSyncer != nil {
		jobService.Register(jobs.NewRunner(jobs.RunKindHeadshots, func(ctx context.Context, req jobs.Request) (espn.Summary, error) {
			return headshotSyncer.Sync(ctx, req.ForceRefresh)
		}))
	}

	// Scheduler
	orchestrator, err := scheduler.NewOrchestrator(jobService, schedRepo, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create scheduler")
	}
	orchestrator.Start()
	log.Info("✓ Scheduler started")

	// REST API server
	restServer := rest.NewServer(cfg.RESTPort, db, redisCache, teams, jobService, log)
	go func() {
		if err := restServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("REST server error")
		}
	}()
	log.Infof("✓ REST API server listening on :%s", cfg.RESTPort)

	// WebSocket server
	wsServer := websocket.NewServer(redisCache, log)
	go func() {
		if err := wsServer.Start(cfg.WSPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("WebSocket server error")
		}
	}()
	log.Infof("✓ WebSocket server listening on :%s", cfg.WSPort)

	log.Infof("✓ %s v%s started successfully", serviceName, serviceVersion)
	log.Infof("  REST API: http://0.0.0.0:%s", cfg.RESTPort)
	log.Infof("  WebSocket: ws://0.0.0.0:%s", cfg.WSPort)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := orchestrator.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("⚠️  scheduler shutdown error")
	}
	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("⚠️  REST server shutdown error")
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("⚠️  WebSocket server shutdown error")
	}

	log.Infof("%s stopped", serviceName)
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log
}
