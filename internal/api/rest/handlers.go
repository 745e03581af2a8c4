package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/cache"
	"github.com/fortuna/gridiron/internal/jobs"
	"github.com/fortuna/gridiron/internal/nfl"
	"github.com/fortuna/gridiron/internal/service"
	"github.com/fortuna/gridiron/internal/store"
	"github.com/fortuna/gridiron/internal/store/repository"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	db       *store.Database
	cache    *cache.RedisCache
	teams    *nfl.Directory
	schedule *service.ScheduleService
	players  *service.PlayerService
	stats    *service.StatsService
	runs     *repository.RunRepository
	jobs     *jobs.Service
}

// NewHandler creates a new handler. The cache may be nil when Redis is
// unavailable; the schedule service then skips its read-through layer.
func NewHandler(db *store.Database, redisCache *cache.RedisCache, teams *nfl.Directory, jobService *jobs.Service, logger *logrus.Logger) *Handler {
	playerRepo := repository.NewPlayerRepository(db)

	return &Handler{
		db:       db,
		cache:    redisCache,
		teams:    teams,
		schedule: service.NewScheduleService(repository.NewScheduleRepository(db), teams, redisCache, logger),
		players:  service.NewPlayerService(playerRepo, teams),
		stats:    service.NewStatsService(repository.NewStatsRepository(db), playerRepo),
		runs:     repository.NewRunRepository(db),
		jobs:     jobService,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"status":   "healthy",
		"service":  "gridiron",
		"version":  "1.0.0",
		"database": "up",
		"cache":    "up",
	}

	code := http.StatusOK
	if err := h.db.HealthCheck(); err != nil {
		status["status"] = "degraded"
		status["database"] = "down"
		code = http.StatusServiceUnavailable
	}

	if h.cache == nil {
		status["cache"] = "disabled"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.cache.HealthCheck(ctx); err != nil {
			status["status"] = "degraded"
			status["cache"] = "down"
		}
	}

	respondJSON(w, code, status)
}

// GetWeekSchedule returns the slate for a given season and week
func (h *Handler) GetWeekSchedule(w http.ResponseWriter, r *http.Request) {
	season, err := queryInt(r, "season", 0)
	if err != nil || season == 0 {
		respondError(w, http.StatusBadRequest, "Missing or invalid query parameter 'season'", err)
		return
	}

	week, err := queryInt(r, "week", 0)
	if err != nil || week == 0 {
		respondError(w, http.StatusBadRequest, "Missing or invalid query parameter 'week'", err)
		return
	}

	seasonType, err := queryInt(r, "season_type", 2)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid query parameter 'season_type'", err)
		return
	}

	games, err := h.schedule.WeekSchedule(r.Context(), season, seasonType, week)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch schedule", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"season":      season,
		"season_type": seasonType,
		"week":        week,
		"games":       games,
		"count":       len(games),
	})
}

// GetCurrentWeekSchedule returns the slate for the week in progress
func (h *Handler) GetCurrentWeekSchedule(w http.ResponseWriter, r *http.Request) {
	season, seasonType, week, err := h.schedule.CurrentWeek(r.Context())
	if err != nil {
		respondError(w, http.StatusNotFound, "No current week on record", err)
		return
	}

	games, err := h.schedule.WeekSchedule(r.Context(), season, seasonType, week)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch schedule", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"season":      season,
		"season_type": seasonType,
		"week":        week,
		"games":       games,
		"count":       len(games),
	})
}

// GetPlayer returns a player by ID
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathInt(r, "playerID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid player ID", err)
		return
	}

	profile, err := h.players.Profile(r.Context(), playerID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Player not found", err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// GetUnmatchedPlayers returns players with no ESPN id linked yet
func (h *Handler) GetUnmatchedPlayers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.players.Unmatched(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch unmatched players", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"players": profiles,
		"count":   len(profiles),
	})
}

// GetPlayerGameLog returns a player's per-game stat lines for a season
func (h *Handler) GetPlayerGameLog(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathInt(r, "playerID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid player ID", err)
		return
	}

	season, err := queryInt(r, "season", 0)
	if err != nil || season == 0 {
		respondError(w, http.StatusBadRequest, "Missing or invalid query parameter 'season'", err)
		return
	}

	lines, err := h.stats.PlayerGameLog(r.Context(), playerID, season)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch game log", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"player_id": playerID,
		"season":    season,
		"games":     lines,
		"count":     len(lines),
	})
}

// GetPlayerTotals returns a player's season totals
func (h *Handler) GetPlayerTotals(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathInt(r, "playerID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid player ID", err)
		return
	}

	season, err := queryInt(r, "season", 0)
	if err != nil || season == 0 {
		respondError(w, http.StatusBadRequest, "Missing or invalid query parameter 'season'", err)
		return
	}

	totals, err := h.stats.Totals(r.Context(), playerID, season)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to calculate season totals", err)
		return
	}

	respondJSON(w, http.StatusOK, totals)
}

// GetTeams returns the static NFL team directory
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"teams": h.teams.Teams()})
}

// GetTeamRoster returns the players currently assigned to a team
func (h *Handler) GetTeamRoster(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathInt(r, "teamID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid team ID", err)
		return
	}

	if _, ok := h.teams.ByID(teamID); !ok {
		respondError(w, http.StatusNotFound, "Team not found", nil)
		return
	}

	roster, err := h.players.Roster(r.Context(), teamID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch team roster", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"team_id": teamID,
		"players": roster,
		"count":   len(roster),
	})
}

// ListRuns returns recent ingest runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil || limit <= 0 || limit > 100 {
		respondError(w, http.StatusBadRequest, "Invalid query parameter 'limit'", err)
		return
	}

	runs, err := h.runs.ListRecent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch runs", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun returns a single ingest run by ID
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID, err := pathInt(r, "runID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid run ID", err)
		return
	}

	run, err := h.runs.GetByID(r.Context(), runID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Run not found", err)
		return
	}

	respondJSON(w, http.StatusOK, run)
}

func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
