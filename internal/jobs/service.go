package jobs

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/ingest/espn"
	"github.com/fortuna/gridiron/internal/store"
)

// Runner executes one kind of work.
type Runner interface {
	Kind() RunKind
	Run(ctx context.Context, req Request) (espn.Summary, error)
}

// NewRunner adapts a function into a Runner.
func NewRunner(kind RunKind, fn func(ctx context.Context, req Request) (espn.Summary, error)) Runner {
	return &runnerFunc{kind: kind, fn: fn}
}

type runnerFunc struct {
	kind RunKind
	fn   func(ctx context.Context, req Request) (espn.Summary, error)
}

func (r *runnerFunc) Kind() RunKind { return r.kind }
func (r *runnerFunc) Run(ctx context.Context, req Request) (espn.Summary, error) {
	return r.fn(ctx, req)
}

// RunLedger is the run repository slice the service needs.
type RunLedger interface {
	Create(ctx context.Context, run *store.IngestRun) error
	Finish(ctx context.Context, runID int, status string, found, matched, processed int, errMsg string) error
}

// RunPublisher announces run transitions; nil disables publishing.
type RunPublisher interface {
	PublishRunEvent(ctx context.Context, run interface{}) error
}

// Service runs jobs against the per-kind registry and records every run in
// the ledger. It is the single execution path for cron, REST and CLI.
type Service struct {
	registry  *Registry
	runs      RunLedger
	publisher RunPublisher
	runners   map[RunKind]Runner
	validate  *validator.Validate
	log       *logrus.Entry
}

func NewService(registry *Registry, runs RunLedger, publisher RunPublisher, logger *logrus.Logger) *Service {
	return &Service{
		registry:  registry,
		runs:      runs,
		publisher: publisher,
		runners:   make(map[RunKind]Runner),
		validate:  validator.New(),
		log:       logger.WithField("component", "jobs"),
	}
}

// Register installs a runner for its kind. Later registrations win, which
// tests use to substitute fakes.
func (s *Service) Register(r Runner) {
	s.runners[r.Kind()] = r
}

// Execute runs the request synchronously: acquire, record, run, finish.
// The runner's error is re-surfaced after the ledger is written; there is
// no automatic retry, the next trigger is the retry.
func (s *Service) Execute(ctx context.Context, req Request) (*store.IngestRun, error) {
	req, runner, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	if !s.registry.TryAcquire(req.Kind) {
		s.log.WithField("kind", req.Kind).Warn("⚠️  run already in progress, skipping")
		return nil, ErrAlreadyRunning
	}
	defer s.registry.Release(req.Kind)

	run, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}

	summary, runErr := runner.Run(ctx, req)
	s.finish(ctx, run, summary, runErr)
	return run, runErr
}

// Dispatch starts the request in the background and returns the ledger row
// immediately. Used by the REST surface so a season backfill does not hold
// an HTTP connection open.
func (s *Service) Dispatch(ctx context.Context, req Request) (*store.IngestRun, error) {
	req, runner, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	if !s.registry.TryAcquire(req.Kind) {
		s.log.WithField("kind", req.Kind).Warn("⚠️  run already in progress, skipping")
		return nil, ErrAlreadyRunning
	}

	run, err := s.begin(ctx, req)
	if err != nil {
		s.registry.Release(req.Kind)
		return nil, err
	}

	go func() {
		defer s.registry.Release(req.Kind)
		defer func() {
			if r := recover(); r != nil {
				s.log.WithField("kind", req.Kind).Errorf("run panicked: %v", r)
				s.finish(context.Background(), run, espn.Summary{}, fmt.Errorf("panic: %v", r))
			}
		}()

		// Detached from the request context; the run outlives the HTTP call.
		summary, runErr := runner.Run(context.Background(), req)
		s.finish(context.Background(), run, summary, runErr)
	}()

	return run, nil
}

// prepare normalizes defaults, validates, and resolves the runner.
func (s *Service) prepare(req Request) (Request, Runner, error) {
	if req.SeasonType == 0 {
		req.SeasonType = 2
	}
	if req.Kind.usesWeeks() {
		if req.StartWeek == 0 {
			req.StartWeek = 1
		}
		if req.EndWeek == 0 {
			req.EndWeek = 18
		}
	}

	if err := s.validate.Struct(req); err != nil {
		return req, nil, fmt.Errorf("invalid request: %w", err)
	}

	runner, ok := s.runners[req.Kind]
	if !ok {
		return req, nil, fmt.Errorf("no runner registered for kind %q", req.Kind)
	}
	return req, runner, nil
}

func (s *Service) begin(ctx context.Context, req Request) (*store.IngestRun, error) {
	run := &store.IngestRun{
		Kind:       string(req.Kind),
		Season:     req.Season,
		StartWeek:  req.StartWeek,
		EndWeek:    req.EndWeek,
		SeasonType: req.SeasonType,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"run":    run.RunID,
		"kind":   req.Kind,
		"season": req.Season,
	}).Info("run started")
	s.announce(ctx, run)

	return run, nil
}

// finish writes the outcome to the ledger and mutates the caller's run
// struct to match, so REST responses show final counts without a re-read.
func (s *Service) finish(ctx context.Context, run *store.IngestRun, summary espn.Summary, runErr error) {
	status := StatusCompleted
	errMsg := ""
	if runErr != nil {
		status = StatusFailed
		errMsg = runErr.Error()
		s.log.WithError(runErr).WithFields(logrus.Fields{
			"run":  run.RunID,
			"kind": run.Kind,
		}).Error("run failed")
	}

	if err := s.runs.Finish(ctx, run.RunID, status, summary.Found, summary.Matched, summary.Processed, errMsg); err != nil {
		s.log.WithError(err).WithField("run", run.RunID).Error("failed to record run outcome")
	}

	run.Status = status
	run.Found = summary.Found
	run.Matched = summary.Matched
	run.Processed = summary.Processed
	if errMsg != "" {
		run.Error.String = errMsg
		run.Error.Valid = true
	}

	if runErr == nil {
		s.log.WithFields(logrus.Fields{
			"run":       run.RunID,
			"kind":      run.Kind,
			"found":     summary.Found,
			"matched":   summary.Matched,
			"processed": summary.Processed,
		}).Info("✓ run completed")
	}
	s.announce(ctx, run)
}

func (s *Service) announce(ctx context.Context, run *store.IngestRun) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRunEvent(ctx, run); err != nil {
		s.log.WithError(err).WithField("run", run.RunID).Warn("⚠️  publish failed")
	}
}
