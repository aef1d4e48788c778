package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleLive upgrades GET /projects/{projectID}/live to a websocket
// subscription on the project's leaderboard.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if _, err := s.deps.Project(r.Context(), projectID); err != nil {
		writeError(w, Wrap("api.live", err))
		return
	}
	s.live.ServeWS(w, r, projectID)
}
