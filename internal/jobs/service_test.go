package jobs

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/gridiron/internal/ingest/espn"
	"github.com/fortuna/gridiron/internal/store"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type finishCall struct {
	runID     int
	status    string
	found     int
	matched   int
	processed int
	errMsg    string
}

type fakeLedger struct {
	mu        sync.Mutex
	nextID    int
	created   []*store.IngestRun
	finishes  []finishCall
	createErr error
}

func (f *fakeLedger) Create(ctx context.Context, run *store.IngestRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	run.RunID = f.nextID
	run.Status = StatusRunning
	snapshot := *run
	f.created = append(f.created, &snapshot)
	return nil
}

func (f *fakeLedger) Finish(ctx context.Context, runID int, status string, found, matched, processed int, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishes = append(f.finishes, finishCall{runID, status, found, matched, processed, errMsg})
	return nil
}

func (f *fakeLedger) finishCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.finishes)
}

func (f *fakeLedger) lastFinish() finishCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finishes[len(f.finishes)-1]
}

type fakePublisher struct {
	mu     sync.Mutex
	events []interface{}
}

func (f *fakePublisher) PublishRunEvent(ctx context.Context, run interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, run)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newTestService(ledger *fakeLedger, pub RunPublisher) *Service {
	return NewService(NewRegistry(), ledger, pub, testLogger())
}

func TestExecuteRecordsLifecycle(t *testing.T) {
	ledger := &fakeLedger{}
	pub := &fakePublisher{}
	svc := newTestService(ledger, pub)
	svc.Register(NewRunner(RunKindStats, func(ctx context.Context, req Request) (espn.Summary, error) {
		return espn.Summary{Found: 30, Matched: 25, Processed: 24}, nil
	}))

	run, err := svc.Execute(context.Background(), Request{Kind: RunKindStats, Season: 2025})
	require.NoError(t, err)
	require.NotNil(t, run)

	// Week-ranged kinds default to the full season and regular season type.
	require.Len(t, ledger.created, 1)
	created := ledger.created[0]
	assert.Equal(t, "stats", created.Kind)
	assert.Equal(t, 2025, created.Season)
	assert.Equal(t, 1, created.StartWeek)
	assert.Equal(t, 18, created.EndWeek)
	assert.Equal(t, 2, created.SeasonType)

	require.Equal(t, 1, ledger.finishCount())
	assert.Equal(t, finishCall{runID: 1, status: StatusCompleted, found: 30, matched: 25, processed: 24}, ledger.lastFinish())

	// The returned struct reflects the final state without a re-read.
	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, 30, run.Found)
	assert.Equal(t, 24, run.Processed)
	assert.False(t, run.Error.Valid)

	// One event at start, one at finish.
	assert.Equal(t, 2, pub.count())
}

func TestExecuteRunnerFailureRecordsFailed(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(ledger, nil)
	svc.Register(NewRunner(RunKindPlayers, func(ctx context.Context, req Request) (espn.Summary, error) {
		return espn.Summary{Found: 5}, errors.New("upstream down")
	}))

	run, err := svc.Execute(context.Background(), Request{Kind: RunKindPlayers, Season: 2025})
	require.Error(t, err)
	require.NotNil(t, run, "the failed run row is still returned")

	last := ledger.lastFinish()
	assert.Equal(t, StatusFailed, last.status)
	assert.Equal(t, "upstream down", last.errMsg)
	assert.Equal(t, 5, last.found)

	assert.Equal(t, StatusFailed, run.Status)
	require.True(t, run.Error.Valid)
	assert.Equal(t, "upstream down", run.Error.String)
}

func TestExecuteSameKindExcluded(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(ledger, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	svc.Register(NewRunner(RunKindStats, func(ctx context.Context, req Request) (espn.Summary, error) {
		close(started)
		<-release
		return espn.Summary{}, nil
	}))
	svc.Register(NewRunner(RunKindSchedule, func(ctx context.Context, req Request) (espn.Summary, error) {
		return espn.Summary{}, nil
	}))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Execute(context.Background(), Request{Kind: RunKindStats, Season: 2025})
		done <- err
	}()
	<-started

	// Same kind skips, a different kind proceeds.
	_, err := svc.Execute(context.Background(), Request{Kind: RunKindStats, Season: 2025})
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	_, err = svc.Execute(context.Background(), Request{Kind: RunKindSchedule, Season: 2025})
	assert.NoError(t, err)

	close(release)
	require.NoError(t, <-done)

	// Finishing frees the kind for the next trigger.
	_, err = svc.Execute(context.Background(), Request{Kind: RunKindStats, Season: 2025})
	assert.NoError(t, err)
}

func TestExecuteValidation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"unknown kind", Request{Kind: "espn", Season: 2025}},
		{"season too old", Request{Kind: RunKindStats, Season: 1980}},
		{"season too far out", Request{Kind: RunKindStats, Season: 2200}},
		{"weeks inverted", Request{Kind: RunKindStats, Season: 2025, StartWeek: 10, EndWeek: 2}},
		{"week out of range", Request{Kind: RunKindStats, Season: 2025, StartWeek: 25, EndWeek: 26}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &fakeLedger{}
			svc := newTestService(ledger, nil)
			svc.Register(NewRunner(RunKindStats, func(ctx context.Context, req Request) (espn.Summary, error) {
				return espn.Summary{}, nil
			}))

			_, err := svc.Execute(context.Background(), tt.req)
			require.Error(t, err)

			var verrs validator.ValidationErrors
			assert.ErrorAs(t, err, &verrs)
			assert.Empty(t, ledger.created, "invalid requests must not reach the ledger")
		})
	}
}

func TestExecuteNoRunnerRegistered(t *testing.T) {
	svc := newTestService(&fakeLedger{}, nil)

	_, err := svc.Execute(context.Background(), Request{Kind: RunKindPlayers, Season: 2025})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no runner")
}

func TestExecuteWeekDefaultsOnlyApplyToWeekKinds(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(ledger, nil)
	svc.Register(NewRunner(RunKindHeadshots, func(ctx context.Context, req Request) (espn.Summary, error) {
		return espn.Summary{}, nil
	}))

	_, err := svc.Execute(context.Background(), Request{Kind: RunKindHeadshots, Season: 2025})
	require.NoError(t, err)

	created := ledger.created[0]
	assert.Zero(t, created.StartWeek)
	assert.Zero(t, created.EndWeek)
	assert.Equal(t, 2, created.SeasonType)
}

func TestDispatchRunsInBackground(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(ledger, nil)

	release := make(chan struct{})
	svc.Register(NewRunner(RunKindStats, func(ctx context.Context, req Request) (espn.Summary, error) {
		<-release
		return espn.Summary{Processed: 7}, nil
	}))

	run, err := svc.Dispatch(context.Background(), Request{Kind: RunKindStats, Season: 2025})
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Zero(t, ledger.finishCount(), "dispatch returns before the run finishes")

	close(release)
	require.Eventually(t, func() bool { return ledger.finishCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, StatusCompleted, ledger.lastFinish().status)
	assert.Equal(t, 7, ledger.lastFinish().processed)

	// The kind frees once the background run completes.
	require.Eventually(t, func() bool {
		_, err := svc.Execute(context.Background(), Request{Kind: RunKindStats, Season: 2025})
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestDispatchDetachesFromCallerContext(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(ledger, nil)

	gotCtx := make(chan context.Context, 1)
	svc.Register(NewRunner(RunKindStats, func(ctx context.Context, req Request) (espn.Summary, error) {
		gotCtx <- ctx
		return espn.Summary{}, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	_, err := svc.Dispatch(ctx, Request{Kind: RunKindStats, Season: 2025})
	require.NoError(t, err)
	cancel()

	select {
	case runCtx := <-gotCtx:
		assert.NoError(t, runCtx.Err(), "the run must outlive the HTTP request context")
	case <-time.After(time.Second):
		t.Fatal("runner never started")
	}
}

func TestDispatchRecoversPanicAsFailed(t *testing.T) {
	ledger := &fakeLedger{}
	svc := newTestService(ledger, nil)
	svc.Register(NewRunner(RunKindStats, func(ctx context.Context, req Request) (espn.Summary, error) {
		panic("boom")
	}))

	_, err := svc.Dispatch(context.Background(), Request{Kind: RunKindStats, Season: 2025})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return ledger.finishCount() == 1 }, time.Second, 5*time.Millisecond)
	last := ledger.lastFinish()
	assert.Equal(t, StatusFailed, last.status)
	assert.Contains(t, last.errMsg, "panic")

	require.Eventually(t, func() bool {
		return svc.registry.TryAcquire(RunKindStats)
	}, time.Second, 5*time.Millisecond)
}

func TestExecuteLedgerFailureAborts(t *testing.T) {
	ledger := &fakeLedger{createErr: errors.New("db down")}
	svc := newTestService(ledger, nil)

	ran := false
	svc.Register(NewRunner(RunKindStats, func(ctx context.Context, req Request) (espn.Summary, error) {
		ran = true
		return espn.Summary{}, nil
	}))

	_, err := svc.Execute(context.Background(), Request{Kind: RunKindStats, Season: 2025})
	require.Error(t, err)
	assert.False(t, ran, "an unrecordable run must not execute")

	// The kind must not stay held after the failed begin.
	assert.True(t, svc.registry.TryAcquire(RunKindStats))
}
