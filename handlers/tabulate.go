// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/rankvote/metrics"
	"github.com/danielhkuo/rankvote/middleware"
	"github.com/danielhkuo/rankvote/models"
	"github.com/danielhkuo/rankvote/rules"
)

// MaxTabulateBallots bounds the ballots of a single POST /tabulate.
const MaxTabulateBallots = 100_000

type TabulateHandler struct {
	candidates models.CandidateSet
	metrics    *metrics.Metrics
}

func NewTabulateHandler(candidates models.CandidateSet, m *metrics.Metrics) *TabulateHandler {
	return &TabulateHandler{candidates: candidates, metrics: m}
}

// Candidates handles GET /candidates
func (h *TabulateHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.CandidatesResponse{
		Candidates: h.candidates.Labels(),
	})
}

// Tabulate handles POST /tabulate
// Runs all four rules over the posted ballots in one shot.
func (h *TabulateHandler) Tabulate(w http.ResponseWriter, r *http.Request) {
	var req models.TabulateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyErrorResponse(w, err)
		return
	}

	if len(req.Ballots) > MaxTabulateBallots {
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("at most %d ballots per request", MaxTabulateBallots))
		return
	}

	ballots, err := parseBallots(req.Ballots, h.candidates.Size())
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	tallies := rules.All(ballots, h.candidates.Size())
	winners := models.NewWinners(h.candidates, tallies)
	h.metrics.ObserveTabulate(len(ballots))

	slog.Info("ballots tabulated", "ballots", len(ballots))

	middleware.JSONResponse(w, http.StatusOK, models.TabulateResponse{
		BallotCount: len(ballots),
		Winners:     winners,
		Tallies:     tallies,
	})
}

// parseBallots validates every ranking against a k-candidate election.
func parseBallots(rankings [][]models.CandidateID, k int) ([]models.Ballot, error) {
	ballots := make([]models.Ballot, len(rankings))
	for i, ranking := range rankings {
		b, err := parseBallot(ranking, k)
		if err != nil {
			return nil, fmt.Errorf("ballot %d: %w", i, err)
		}
		ballots[i] = b
	}
	return ballots, nil
}

func parseBallot(ranking []models.CandidateID, k int) (models.Ballot, error) {
	if len(ranking) != k {
		return models.Ballot{}, fmt.Errorf("%w: must rank all %d candidates", models.ErrInvalidBallot, k)
	}
	return models.NewBallot(ranking)
}
