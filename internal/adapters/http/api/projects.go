package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/kickscore/internal/domain/model"
	"github.com/okian/kickscore/internal/domain/types"
)

// handleGetProject handles GET /projects/{projectID}.
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_project"
	p, err := s.deps.Project(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type performancesResponse struct {
	ProjectID    string                   `json:"project_id"`
	Performances []model.PerformanceEntry `json:"performances"`
}

// handleGetPerformances handles GET /projects/{projectID}/performances.
// Entries are ordered by player id.
func (s *Server) handleGetPerformances(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_performances"
	projectID := chi.URLParam(r, "projectID")
	perfs, err := s.deps.Performances(r.Context(), projectID)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	out := make([]model.PerformanceEntry, 0, len(perfs))
	for _, p := range perfs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	writeJSON(w, http.StatusOK, performancesResponse{ProjectID: projectID, Performances: out})
}

// handleGetPlayerPerformance handles
// GET /projects/{projectID}/players/{playerID}/performance.
func (s *Server) handleGetPlayerPerformance(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player_performance"
	perf, err := s.deps.PlayerPerformance(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "playerID"))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, perf)
}

type leaderboardResponse struct {
	ProjectID string        `json:"project_id"`
	View      types.View    `json:"view"`
	Entries   []types.Entry `json:"entries"`
}

// handleGetLeaderboard handles GET /projects/{projectID}/leaderboard?view=&limit=.
// limit defaults to the configured maximum.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	q := r.URL.Query()

	limit := s.maxLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > s.maxLimit {
			writeError(w, WrapKind(op, ErrBadRequest, errLimit(s.maxLimit)))
			return
		}
		limit = n
	}

	view := types.View(q.Get("view"))
	if view == "" {
		view = types.ViewAverage
	}
	projectID := chi.URLParam(r, "projectID")
	entries, err := s.deps.Leaderboard(r.Context(), projectID, view, limit)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	if entries == nil {
		entries = []types.Entry{}
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{ProjectID: projectID, View: view, Entries: entries})
}
