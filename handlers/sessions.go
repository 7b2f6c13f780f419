// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/danielhkuo/rankvote/auth"
	"github.com/danielhkuo/rankvote/cliparse"
	"github.com/danielhkuo/rankvote/metrics"
	"github.com/danielhkuo/rankvote/middleware"
	"github.com/danielhkuo/rankvote/models"
	"github.com/danielhkuo/rankvote/tabulator"
)

// MaxSessions bounds the progressive sessions held in memory.
const MaxSessions = 1024

// MaxSessionBallots bounds the ballots of one session. Every append answers
// with the whole ballot set, so responses grow with it.
const MaxSessionBallots = 10_000

// session serializes appends to one tabulator.
type session struct {
	mu  sync.Mutex
	tab *tabulator.Tabulator
}

// SessionHandler serves progressive tabulation sessions: ballots are appended
// one at a time and every append returns the step record of the grown set.
type SessionHandler struct {
	cfg        cliparse.Config
	candidates models.CandidateSet
	metrics    *metrics.Metrics
	maxBallots int

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewSessionHandler(cfg cliparse.Config, candidates models.CandidateSet, m *metrics.Metrics) *SessionHandler {
	return &SessionHandler{
		cfg:        cfg,
		candidates: candidates,
		metrics:    m,
		maxBallots: MaxSessionBallots,
		sessions:   make(map[string]*session),
	}
}

// Create handles POST /sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sessionID := auth.NewSessionID()

	h.mu.Lock()
	if len(h.sessions) >= MaxSessions {
		h.mu.Unlock()
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Too many open sessions")
		return
	}
	h.sessions[sessionID] = &session{tab: tabulator.New(0, h.candidates)}
	h.mu.Unlock()
	h.metrics.SessionOpened()

	slog.Info("session created", "session_id", sessionID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateSessionResponse{
		SessionID:  sessionID,
		SessionKey: auth.GenerateSessionKey(sessionID, h.cfg.SessionSalt),
		Candidates: h.candidates.Labels(),
	})
}

// lookup resolves the {id} path value. It writes the error response and
// returns nil when the session does not exist.
func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (string, *session) {
	sessionID, err := auth.ParseSessionID(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return "", nil
	}

	h.mu.RLock()
	s, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return "", nil
	}
	return sessionID, s
}

func (h *SessionHandler) authorize(w http.ResponseWriter, r *http.Request, sessionID string) bool {
	key := r.Header.Get("X-Session-Key")
	if err := auth.ValidateSessionKey(sessionID, key, h.cfg.SessionSalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid session key")
		return false
	}
	return true
}

// AppendBallot handles POST /sessions/{id}/ballots
// Requires X-Session-Key. Responds with the new step record and its tallies.
func (h *SessionHandler) AppendBallot(w http.ResponseWriter, r *http.Request) {
	sessionID, s := h.lookup(w, r)
	if s == nil {
		return
	}
	if !h.authorize(w, r, sessionID) {
		return
	}

	var req models.AppendBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyErrorResponse(w, err)
		return
	}
	ballot, err := parseBallot(req.Ranking, h.candidates.Size())
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	s.mu.Lock()
	if s.tab.Step() >= h.maxBallots {
		s.mu.Unlock()
		middleware.ErrorResponse(w, http.StatusConflict,
			fmt.Sprintf("session holds the maximum of %d ballots", h.maxBallots))
		return
	}
	rec, err := s.tab.Append(ballot)
	s.mu.Unlock()
	if errors.Is(err, tabulator.ErrBallotSize) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to append ballot", "session_id", sessionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to append ballot")
		return
	}
	h.metrics.ObserveStep(rec, time.Since(start))

	middleware.JSONResponse(w, http.StatusCreated, stepResponse(sessionID, rec))
}

// Get handles GET /sessions/{id}
// Returns the latest step record; step 0 before any ballot was appended.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, s := h.lookup(w, r)
	if s == nil {
		return
	}

	s.mu.Lock()
	rec := s.tab.Last()
	s.mu.Unlock()

	middleware.JSONResponse(w, http.StatusOK, stepResponse(sessionID, rec))
}

// Delete handles DELETE /sessions/{id}
// Requires X-Session-Key.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID, s := h.lookup(w, r)
	if s == nil {
		return
	}
	if !h.authorize(w, r, sessionID) {
		return
	}

	h.mu.Lock()
	_, ok := h.sessions[sessionID]
	delete(h.sessions, sessionID)
	h.mu.Unlock()
	if ok {
		h.metrics.SessionClosed()
		slog.Info("session deleted", "session_id", sessionID)
	}

	w.WriteHeader(http.StatusNoContent)
}

func stepResponse(sessionID string, rec models.StepRecord) models.StepResponse {
	return models.StepResponse{
		SessionID:  sessionID,
		StepRecord: rec,
		Results:    rec.Tallies,
	}
}
