package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/gridiron/internal/ingest/espn"
	"github.com/fortuna/gridiron/internal/jobs"
	"github.com/fortuna/gridiron/internal/nfl"
	"github.com/fortuna/gridiron/internal/store"
)

type stubLedger struct{}

func (stubLedger) Create(ctx context.Context, run *store.IngestRun) error {
	run.RunID = 1
	run.Status = jobs.StatusRunning
	return nil
}

func (stubLedger) Finish(ctx context.Context, runID int, status string, found, matched, processed int, errMsg string) error {
	return nil
}

func newTestHandler(t *testing.T, runners ...jobs.Runner) *Handler {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	jobService := jobs.NewService(jobs.NewRegistry(), stubLedger{}, nil, logger)
	for _, r := range runners {
		jobService.Register(r)
	}

	return NewHandler(&store.Database{}, nil, nfl.NewDirectory(), jobService, logger)
}

func noopRunner(kind jobs.RunKind) jobs.Runner {
	return jobs.NewRunner(kind, func(ctx context.Context, req jobs.Request) (espn.Summary, error) {
		return espn.Summary{}, nil
	})
}

func TestTriggerRunAccepted(t *testing.T) {
	h := newTestHandler(t, noopRunner(jobs.RunKindStats))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs",
		strings.NewReader(`{"kind":"stats","season":2025,"start_week":1,"end_week":1}`))
	h.TriggerRun(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var body struct {
		Run store.IngestRun `json:"run"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Run.RunID)
	assert.Equal(t, "stats", body.Run.Kind)
}

func TestTriggerRunConflictWhileRunning(t *testing.T) {
	release := make(chan struct{})
	blocking := jobs.NewRunner(jobs.RunKindStats, func(ctx context.Context, req jobs.Request) (espn.Summary, error) {
		<-release
		return espn.Summary{}, nil
	})
	defer close(release)

	h := newTestHandler(t, blocking)

	first := httptest.NewRecorder()
	h.TriggerRun(first, httptest.NewRequest(http.MethodPost, "/api/v1/runs",
		strings.NewReader(`{"kind":"stats","season":2025}`)))
	require.Equal(t, http.StatusAccepted, first.Code)

	second := httptest.NewRecorder()
	h.TriggerRun(second, httptest.NewRequest(http.MethodPost, "/api/v1/runs",
		strings.NewReader(`{"kind":"stats","season":2025}`)))
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestTriggerRunValidationFailure(t *testing.T) {
	h := newTestHandler(t, noopRunner(jobs.RunKindStats))

	rec := httptest.NewRecorder()
	h.TriggerRun(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs",
		strings.NewReader(`{"kind":"stats","season":1500}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerRunMalformedBody(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.TriggerRun(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs",
		strings.NewReader(`{not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTeams(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.GetTeams(rec, httptest.NewRequest(http.MethodGet, "/api/v1/teams", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Teams []nfl.Team `json:"teams"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Teams, 32)
}

func TestGetWeekScheduleRequiresParams(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.GetWeekSchedule(rec, httptest.NewRequest(http.MethodGet, "/api/v1/schedule?week=1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.GetWeekSchedule(rec, httptest.NewRequest(http.MethodGet, "/api/v1/schedule?season=2025", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.GetWeekSchedule(rec, httptest.NewRequest(http.MethodGet, "/api/v1/schedule?season=2025&week=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPathInt(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/players/42", nil),
		map[string]string{"playerID": "42"})

	got, err := pathInt(req, "playerID")
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	bad := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/players/x", nil),
		map[string]string{"playerID": "x"})
	_, err = pathInt(bad, "playerID")
	assert.Error(t, err)
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/schedule?season=2025", nil)

	got, err := queryInt(req, "season", 0)
	require.NoError(t, err)
	assert.Equal(t, 2025, got)

	got, err = queryInt(req, "week", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, got, "missing parameter falls back")

	bad := httptest.NewRequest(http.MethodGet, "/schedule?season=twenty", nil)
	_, err = queryInt(bad, "season", 0)
	assert.Error(t, err)
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, http.StatusNotFound, "Player not found", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Player not found", body["error"])
	assert.Equal(t, float64(http.StatusNotFound), body["status"])
}
