package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/config"
	"github.com/fortuna/gridiron/internal/jobs"
)

// WeekSource supplies the week the stats job should target, derived from
// stored kickoffs rather than wall-clock math.
type WeekSource interface {
	CurrentWeek(ctx context.Context, horizon time.Time) (season, seasonType, week int, err error)
}

// Orchestrator owns the cron table. Every entry funnels into the jobs
// service, so the per-kind non-concurrency rule applies to scheduled and
// manual triggers alike.
type Orchestrator struct {
	cron    *cron.Cron
	service *jobs.Service
	weeks   WeekSource
	cfg     *config.Config
	log     *logrus.Entry
}

func NewOrchestrator(service *jobs.Service, weeks WeekSource, cfg *config.Config, logger *logrus.Logger) (*Orchestrator, error) {
	cl := &cronLogger{log: logger.WithField("component", "cron")}

	o := &Orchestrator{
		cron: cron.New(cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		)),
		service: service,
		weeks:   weeks,
		cfg:     cfg,
		log:     logger.WithField("component", "scheduler"),
	}

	entries := []struct {
		name string
		spec string
		fn   func()
	}{
		{"stats", cfg.CronStats, o.runStats},
		{"schedule", cfg.CronSchedule, o.runSchedule},
		{"players", cfg.CronPlayers, o.runPlayers},
		{"headshots", cfg.CronHeadshots, o.runHeadshots},
	}
	for _, e := range entries {
		if _, err := o.cron.AddFunc(e.spec, e.fn); err != nil {
			return nil, fmt.Errorf("cron entry %s (%q): %w", e.name, e.spec, err)
		}
		o.log.WithFields(logrus.Fields{"job": e.name, "spec": e.spec}).Info("registered")
	}

	return o, nil
}

// Start launches the cron loop. Non-blocking.
func (o *Orchestrator) Start() {
	o.log.Info("╔════════════════════════════════════════╗")
	o.log.Info("║     Gridiron Scheduler Orchestrator    ║")
	o.log.Info("╚════════════════════════════════════════╝")
	o.log.WithField("season", o.cfg.CurrentSeason).Info("→ cron started")
	o.cron.Start()
}

// Stop halts scheduling and waits for in-flight entries, bounded by ctx.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.log.Info("scheduler stopping...")
	done := o.cron.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done.Done():
		o.log.Info("✓ scheduler stopped")
		return nil
	}
}

// runStats targets the week in progress: the latest stored kickoff within
// a short horizon decides which week just finished playing.
func (o *Orchestrator) runStats() {
	ctx := context.Background()

	season, seasonType, week, err := o.weeks.CurrentWeek(ctx, time.Now().Add(36*time.Hour))
	if err != nil {
		// Empty schedule; the schedule job has not run yet this season.
		o.log.WithError(err).Warn("⚠️  cannot derive current week, skipping stats run")
		return
	}

	o.execute(jobs.Request{
		Kind:       jobs.RunKindStats,
		Season:     season,
		SeasonType: seasonType,
		StartWeek:  week,
		EndWeek:    week,
	})
}

func (o *Orchestrator) runSchedule() {
	o.execute(jobs.Request{
		Kind:   jobs.RunKindSchedule,
		Season: o.cfg.CurrentSeason,
	})
}

func (o *Orchestrator) runPlayers() {
	o.execute(jobs.Request{
		Kind:   jobs.RunKindPlayers,
		Season: o.cfg.CurrentSeason,
	})
}

func (o *Orchestrator) runHeadshots() {
	o.execute(jobs.Request{
		Kind:   jobs.RunKindHeadshots,
		Season: o.cfg.CurrentSeason,
	})
}

func (o *Orchestrator) execute(req jobs.Request) {
	if _, err := o.service.Execute(context.Background(), req); err != nil {
		if errors.Is(err, jobs.ErrAlreadyRunning) {
			o.log.WithField("kind", req.Kind).Info("previous run still active, skipped")
			return
		}
		// The service already logged run failures with context.
		o.log.WithError(err).WithField("kind", req.Kind).Debug("scheduled run ended with error")
	}
}

// cronLogger adapts logrus to the cron.Logger contract.
type cronLogger struct {
	log *logrus.Entry
}

func (c *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.WithFields(cronFields(keysAndValues)).Debug(msg)
}

func (c *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.WithError(err).WithFields(cronFields(keysAndValues)).Error(msg)
}

func cronFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
