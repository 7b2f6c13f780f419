// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/rankvote/middleware"
	"github.com/danielhkuo/rankvote/models"
	"github.com/danielhkuo/rankvote/recorder"
)

// RunStore reads recorded runs. *recorder.SQLRecorder implements it.
type RunStore interface {
	Runs(ctx context.Context) ([]models.RunInfo, error)
	Steps(ctx context.Context, runID int) ([]models.StepRecord, error)
	Step(ctx context.Context, runID, step int) (models.StepRecord, error)
}

type RunsHandler struct {
	store RunStore
}

func NewRunsHandler(store RunStore) *RunsHandler {
	return &RunsHandler{store: store}
}

// List handles GET /runs
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.Runs(r.Context())
	if err != nil {
		slog.Error("failed to query runs", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.RunsResponse{Runs: runs})
}

// ListSteps handles GET /runs/{id}/steps
func (h *RunsHandler) ListSteps(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathInt(w, r, "id")
	if !ok {
		return
	}

	steps, err := h.store.Steps(r.Context(), runID)
	if errors.Is(err, recorder.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		slog.Error("failed to query steps", "run_id", runID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if steps == nil {
		steps = []models.StepRecord{}
	}

	middleware.JSONResponse(w, http.StatusOK, models.RunStepsResponse{RunID: runID, Steps: steps})
}

// GetStep handles GET /runs/{id}/steps/{step}
func (h *RunsHandler) GetStep(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	step, ok := pathInt(w, r, "step")
	if !ok {
		return
	}

	rec, err := h.store.Step(r.Context(), runID, step)
	if errors.Is(err, recorder.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Step not found")
		return
	}
	if err != nil {
		slog.Error("failed to query step", "run_id", runID, "step", step, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, rec)
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, name+" must be an integer")
		return 0, false
	}
	return v, true
}
