package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/kickscore/internal/app"
	"github.com/okian/kickscore/internal/domain/model"
)

const maxBodyBytes = 1 << 20

type measurementResponse struct {
	Measurement model.Measurement `json:"measurement"`
	Accepted    bool              `json:"accepted"`
}

// handlePostMeasurement handles POST /projects/{projectID}/measurements.
// A new measurement answers 201; a replayed id answers 200 with
// accepted=false.
func (s *Server) handlePostMeasurement(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_measurement"
	var m model.Measurement
	if err := decodeBody(w, r, &m); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	stored, accepted, err := s.deps.RecordMeasurement(r.Context(), chi.URLParam(r, "projectID"), m)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	status := http.StatusOK
	if accepted {
		status = http.StatusCreated
	}
	writeJSON(w, status, measurementResponse{Measurement: stored, Accepted: accepted})
}

type previewRequest struct {
	StationID string   `json:"station_id"`
	PlayerID  string   `json:"player_id,omitempty"`
	BirthYear *int     `json:"birth_year,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	Value     *float64 `json:"value"`
}

// handlePostScorePreview handles POST /projects/{projectID}/score-preview.
func (s *Server) handlePostScorePreview(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score_preview"
	var req previewRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.StationID == "" || req.Value == nil {
		writeError(w, WrapKind(op, ErrBadRequest, fmt.Errorf("station_id and value are required")))
		return
	}
	preview, err := s.deps.PreviewScore(r.Context(), chi.URLParam(r, "projectID"), service.PreviewRequest{
		StationID: req.StationID,
		PlayerID:  req.PlayerID,
		BirthYear: req.BirthYear,
		Gender:    model.ParseGender(req.Gender),
		Value:     *req.Value,
	})
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
