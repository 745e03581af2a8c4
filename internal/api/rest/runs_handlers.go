package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/fortuna/gridiron/internal/jobs"
)

// TriggerRun handles POST /api/v1/runs. The run executes in the background;
// the response carries the persisted run row so callers can poll it.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	var req jobs.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	run, err := h.jobs.Dispatch(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrAlreadyRunning):
			respondError(w, http.StatusConflict, "A run of this kind is already in progress", err)
		case isValidationError(err):
			respondError(w, http.StatusBadRequest, "Invalid run request", err)
		default:
			respondError(w, http.StatusInternalServerError, "Failed to start run", err)
		}
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{"run": run})
}

func isValidationError(err error) bool {
	var verr validator.ValidationErrors
	return errors.As(err, &verr)
}
