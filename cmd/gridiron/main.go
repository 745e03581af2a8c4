package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/blob"
	"github.com/fortuna/gridiron/internal/config"
	"github.com/fortuna/gridiron/internal/headshots"
	"github.com/fortuna/gridiron/internal/ingest/espn"
	"github.com/fortuna/gridiron/internal/ingest/lines"
	"github.com/fortuna/gridiron/internal/jobs"
	"github.com/fortuna/gridiron/internal/nfl"
	"github.com/fortuna/gridiron/internal/pacing"
	"github.com/fortuna/gridiron/internal/reconciliation"
	"github.com/fortuna/gridiron/internal/store"
	"github.com/fortuna/gridiron/internal/store/repository"
)

const appName = "gridiron"

var statsPattern = regexp.MustCompile(`^--?stats-(\d{4})$`)

func main() {
	_ = godotenv.Load()

	// --stats-<year> carries its season in the flag name, which the flag
	// package cannot express. Pull it out of argv before Parse sees it.
	statsSeason, args := extractStatsFlag(os.Args[1:])
	os.Args = append(os.Args[:1], args...)

	var (
		syncPlayers   = flag.Bool("sync-players", false, "Sync team rosters and reconcile player identities")
		syncSchedule  = flag.Bool("sync-schedule", false, "Sync the season schedule and betting lines")
		headshotsOnly = flag.Bool("headshots-only", false, "Sync player headshots (the default mode)")
		forceRefresh  = flag.Bool("force-refresh", false, "Ignore headshot freshness and re-upload everything")
		season        = flag.Int("season", 0, "Season year (defaults to CURRENT_SEASON)")
		startWeek     = flag.Int("start", 0, "First week to ingest (stats and schedule modes)")
		endWeek       = flag.Int("end", 0, "Last week to ingest (stats and schedule modes)")
		seasonType    = flag.Int("season-type", 0, "1=preseason, 2=regular, 3=postseason")
		dsn           = flag.String("dsn", "", "Postgres DSN (overrides DATABASE_DSN)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	if *dsn != "" {
		cfg.DatabaseDSN = *dsn
	}
	if *season == 0 {
		*season = cfg.CurrentSeason
	}

	log := newLogger(cfg.LogLevel)

	modes := 0
	for _, on := range []bool{statsSeason > 0, *syncPlayers, *syncSchedule, *headshotsOnly} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		log.Fatal("specify at most one of --stats-<year>, --sync-players, --sync-schedule, --headshots-only")
	}

	req := jobs.Request{
		Kind:         jobs.RunKindHeadshots,
		Season:       *season,
		ForceRefresh: *forceRefresh,
	}
	switch {
	case statsSeason > 0:
		req = jobs.Request{Kind: jobs.RunKindStats, Season: statsSeason, StartWeek: *startWeek, EndWeek: *endWeek, SeasonType: *seasonType}
	case *syncPlayers:
		req = jobs.Request{Kind: jobs.RunKindPlayers, Season: *season}
	case *syncSchedule:
		req = jobs.Request{Kind: jobs.RunKindSchedule, Season: *season, StartWeek: *startWeek, EndWeek: *endWeek, SeasonType: *seasonType}
	}

	if req.Kind == jobs.RunKindHeadshots && (cfg.SupabaseURL == "" || cfg.SupabaseKey == "") {
		log.Fatal("SUPABASE_URL and SUPABASE_SERVICE_KEY must be set for headshot sync")
	}

	db, err := store.NewDatabase(cfg.DatabaseDSN, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	teams := nfl.NewDirectory()
	fetchPacer := pacing.New(cfg.PaceInterval)
	persistPacer := pacing.New(cfg.PaceInterval)
	espnClient := espn.NewClient(cfg.ESPNCoreAPIBase, cfg.ESPNSiteAPIBase, fetchPacer, log)

	playerRepo := repository.NewPlayerRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	schedRepo := repository.NewScheduleRepository(db)
	runRepo := repository.NewRunRepository(db)

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
	}

	// One-shot runs record to the ledger like daemon runs but publish no
	// events; there is no stream consumer to feed.
	jobService := jobs.NewService(jobs.NewRegistry(), runRepo, nil, log)

	jobService.Register(jobs.NewRunner(jobs.RunKindStats, func(ctx context.Context, r jobs.Request) (espn.Summary, error) {
		return statsIngester.IngestWeeks(ctx, r.Season, r.SeasonType, r.StartWeek, r.EndWeek)
	}))
	jobService.Register(jobs.NewRunner(jobs.RunKindSchedule, func(ctx context.Context, r jobs.Request) (espn.Summary, error) {
		summary, err := scheduleIngester.SyncWeeks(ctx, r.Season, r.SeasonType, r.StartWeek, r.EndWeek)
		if err != nil {
			return summary, err
		}
		if linesIngester != nil {
			for week := r.StartWeek; week <= r.EndWeek; week++ {
				if _, err := linesIngester.ApplyWeek(ctx, r.Season, r.SeasonType, week); err != nil {
					log.WithError(err).WithField("week", week).Warn("⚠️  fallback lines pass failed")
					break
				}
			}
		}
		return summary, nil
	}))
	jobService.Register(jobs.NewRunner(jobs.RunKindPlayers, func(ctx context.Context, r jobs.Request) (espn.Summary, error) {
		return rosterSync.Sync(ctx, r.Season)
	}))
	jobService.Register(jobs.NewRunner(jobs.RunKindHeadshots, func(ctx context.Context, r jobs.Request) (espn.Summary, error) {
		blobStore := blob.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, log)
		syncer := headshots.NewSyncer(espnClient, playerRepo, blobStore, cfg.HeadshotBucket, cfg.HeadshotMaxAge, log)
		return syncer.Sync(ctx, r.ForceRefresh)
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	run, err := jobService.Execute(ctx, req)
	if err != nil {
		log.WithError(err).Fatalf("%s run failed", req.Kind)
	}

	fmt.Printf("run %d %s: found=%d matched=%d processed=%d\n",
		run.RunID, run.Status, run.Found, run.Matched, run.Processed)
}

// extractStatsFlag removes the dynamic stats mode flag from the argument
// list and returns the season it names, or 0 when absent.
func extractStatsFlag(args []string) (int, []string) {
	season := 0
	rest := make([]string, 0, len(args))

	for _, arg := range args {
		if m := statsPattern.FindStringSubmatch(arg); m != nil {
			season, _ = strconv.Atoi(m[1])
			continue
		}
		rest = append(rest, arg)
	}

	return season, rest
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
