// Package httpapi is the engine's HTTP surface: job intake, user and
// resume management, recommendations and the SSE event stream.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"jobmatch-engine/internal/auth"
	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/jobs"
	"jobmatch-engine/internal/rank"
	"jobmatch-engine/internal/users"
)

type Server struct {
	Jobs   *jobs.Service
	Users  *users.Service
	Rank   *rank.Recommender
	Tokens *auth.Tokens
	Hub    *events.Hub
	Log    *slog.Logger
}

// Handler builds the full route table wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /events", s.handleEvents)

	mux.HandleFunc("POST /users/register", s.handleRegister)
	mux.HandleFunc("POST /users/login", s.handleLogin)
	mux.HandleFunc("GET /users/profile", requireAuth(s.Tokens, s.handleProfile))
	mux.HandleFunc("PUT /users/profile", requireAuth(s.Tokens, s.handleUpdateProfile))
	mux.HandleFunc("POST /users/resume", requireAuth(s.Tokens, s.handleUploadResume))

	mux.HandleFunc("POST /jobs", requireAuth(s.Tokens, s.handleCreateJob))
	mux.HandleFunc("POST /jobs/bulk", requireAuth(s.Tokens, s.handleCreateJobsBulk))
	mux.HandleFunc("GET /jobs", requireAuth(s.Tokens, s.handleListJobs))
	mux.HandleFunc("GET /jobs/recommendations", requireAuth(s.Tokens, s.handleRecommendations))
	mux.HandleFunc("GET /jobs/search", requireAuth(s.Tokens, s.handleSearchByEmbedding))
	mux.HandleFunc("GET /jobs/{id}", requireAuth(s.Tokens, s.handleGetJob))
	mux.HandleFunc("DELETE /jobs/{id}", requireAuth(s.Tokens, s.handleDeleteJob))

	var h http.Handler = mux
	h = withAccessLog(s.Log, h)
	h = withRecover(s.Log, h)
	h = withCORS(h)
	h = withRequestID(h)
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}
