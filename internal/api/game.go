package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mathsprint/internal/dashboard"
	"github.com/abhisek/mathsprint/internal/hints"
	"github.com/abhisek/mathsprint/internal/problemgen"
	"github.com/abhisek/mathsprint/internal/store"
)

type gameHandler struct {
	questions problemgen.Source
	dashboard *dashboard.Service
	hints     *hints.Service
	log       *zap.Logger
	now       func() time.Time
}

// QuestionRequest is the body of POST /api/game/question.
type QuestionRequest struct {
	Grade int `json:"grade"`
	Level int `json:"level"`
}

// AnswerResponse is returned by POST /api/game/answer.
type AnswerResponse struct {
	Success bool `json:"success"`
	Correct bool `json:"correct"`
}

// HintResponse is returned by the hint endpoints.
type HintResponse struct {
	Hint string `json:"hint"`
}

// Question handles POST /api/game/question
func (h *gameHandler) Question(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !problemgen.ValidGrade(req.Grade) {
		writeError(w, http.StatusBadRequest, "Invalid grade level")
		return
	}
	level := max(req.Level, 1)

	q, err := h.questions.Next(r.Context(), req.Grade, level)
	if err != nil {
		h.log.Error("failed to generate question",
			zap.Int("grade", req.Grade), zap.Int("level", level), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate question")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Answer handles POST /api/game/answer
func (h *gameHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var rec store.AnswerRecord
	if err := decode(w, r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec.Timestamp = h.now().UTC()

	if err := h.dashboard.Record(r.Context(), rec); err != nil {
		if errors.Is(err, store.ErrInvalidRecord) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("failed to save answer", zap.String("session_id", rec.SessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save answer")
		return
	}
	writeJSON(w, http.StatusOK, AnswerResponse{Success: true, Correct: rec.IsCorrect})
}

// Hint handles POST /api/game/hint
func (h *gameHandler) Hint(w http.ResponseWriter, r *http.Request) {
	var req hints.Request
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}
	writeJSON(w, http.StatusOK, HintResponse{Hint: h.hints.HintFor(r.Context(), req)})
}

// Leaderboard handles GET /api/leaderboard
func (h *gameHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.Leaderboard(r.Context()))
}

// Students handles GET /api/teacher/students
func (h *gameHandler) Students(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.StudentStats(r.Context()))
}
