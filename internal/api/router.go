// Package api exposes the game, dashboard and live session endpoints over
// HTTP and WebSocket.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/abhisek/mathsprint/internal/dashboard"
	"github.com/abhisek/mathsprint/internal/hints"
	"github.com/abhisek/mathsprint/internal/problemgen"
	"github.com/abhisek/mathsprint/internal/session"
)

// Container holds the dependencies of the router.
type Container struct {
	Questions problemgen.Source
	Dashboard *dashboard.Service
	Hints     *hints.Service
	Sessions  *session.Registry
	Log       *zap.Logger

	// CORSOrigins lists allowed origins. Empty allows any origin.
	CORSOrigins []string

	Now func() time.Time
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	if c.Log == nil {
		c.Log = zap.NewNop()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	log := c.Log.Named("api")

	r := mux.NewRouter()
	r.Use(corsMiddleware(c.CORSOrigins))
	r.Use(loggingMiddleware(log))

	game := &gameHandler{questions: c.Questions, dashboard: c.Dashboard, hints: c.Hints, log: log, now: c.Now}
	sessions := &sessionHandler{registry: c.Sessions, upgrader: newUpgrader(c.CORSOrigins), log: log}

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/game/question", game.Question).Methods("POST", "OPTIONS")
	api.HandleFunc("/game/answer", game.Answer).Methods("POST", "OPTIONS")
	api.HandleFunc("/game/hint", game.Hint).Methods("POST", "OPTIONS")

	api.HandleFunc("/leaderboard", game.Leaderboard).Methods("GET", "OPTIONS")
	api.HandleFunc("/teacher/students", game.Students).Methods("GET", "OPTIONS")

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": c.Now().UTC(),
		})
	}).Methods("GET")

	if c.Sessions != nil {
		api.HandleFunc("/sessions", sessions.Create).Methods("POST", "OPTIONS")
		api.HandleFunc("/sessions/{id}", sessions.Get).Methods("GET", "OPTIONS")
		api.HandleFunc("/sessions/{id}/answer", sessions.Answer).Methods("POST", "OPTIONS")
		api.HandleFunc("/sessions/{id}/pause", sessions.transition((*session.Session).Pause)).Methods("POST", "OPTIONS")
		api.HandleFunc("/sessions/{id}/resume", sessions.transition((*session.Session).Resume)).Methods("POST", "OPTIONS")
		api.HandleFunc("/sessions/{id}/end", sessions.transition((*session.Session).End)).Methods("POST", "OPTIONS")
		api.HandleFunc("/sessions/{id}/hint", sessions.Hint).Methods("POST", "OPTIONS")
		api.HandleFunc("/sessions/{id}/events", sessions.Events).Methods("GET")
	}

	return r
}
