package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/abhisek/mathsprint/internal/problemgen"
	"github.com/abhisek/mathsprint/internal/session"
)

type sessionHandler struct {
	registry *session.Registry
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	Grade int `json:"grade"`
}

// SubmitAnswerRequest is the body of POST /api/sessions/{id}/answer.
type SubmitAnswerRequest struct {
	Answer *int `json:"answer"`
}

// SubmitAnswerResponse is returned by POST /api/sessions/{id}/answer.
type SubmitAnswerResponse struct {
	Correct bool             `json:"correct"`
	Session session.Snapshot `json:"session"`
}

// Create handles POST /api/sessions
func (h *sessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.registry.Start(r.Context(), req.Grade)
	if err != nil {
		if errors.Is(err, problemgen.ErrInvalidGrade) {
			writeError(w, http.StatusBadRequest, "Invalid grade level")
			return
		}
		h.log.Error("failed to start session", zap.Int("grade", req.Grade), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

// Get handles GET /api/sessions/{id}
func (h *sessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// Answer handles POST /api/sessions/{id}/answer
func (h *sessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req SubmitAnswerRequest
	if err := decode(w, r, &req); err != nil || req.Answer == nil {
		writeError(w, http.StatusBadRequest, "answer is required")
		return
	}

	correct, snap := s.SubmitAnswer(*req.Answer)
	writeJSON(w, http.StatusOK, SubmitAnswerResponse{Correct: correct, Session: snap})
}

// transition adapts a lifecycle method to a handler.
func (h *sessionHandler) transition(fn func(*session.Session) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := h.lookup(w, r)
		if !ok {
			return
		}
		if err := fn(s); err != nil {
			if errors.Is(err, session.ErrInvalidTransition) {
				writeError(w, http.StatusConflict, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot())
	}
}

// Hint handles POST /api/sessions/{id}/hint
func (h *sessionHandler) Hint(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	hint, err := s.Hint(r.Context())
	switch {
	case errors.Is(err, session.ErrNoQuestion):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrHintsUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, HintResponse{Hint: hint})
	}
}

func (h *sessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.registry.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}
