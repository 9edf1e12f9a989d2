// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pitwall/pitwall/internal/domain/blend"
	"github.com/pitwall/pitwall/internal/domain/model"
)

// PredictHandler handles forecast requests.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	entries := make([]model.QualifyingEntry, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = model.QualifyingEntry{
			DriverID:       e.DriverID,
			Team:           e.Team,
			QualifyingTime: e.QualifyingTime,
		}
	}
	cond := model.RaceConditions{
		TrackTemp:        req.Conditions.TrackTemp,
		RainProbability:  req.Conditions.RainProbability,
		QualifyingWeight: req.Conditions.QualifyingWeight,
	}

	results, excluded, err := h.deps.Predict(r.Context(), entries, cond)
	switch {
	case errors.Is(err, blend.ErrInsufficientInput):
		writeError(w, http.StatusBadRequest, "insufficient_input", Wrap(op, err))
		return
	case errors.Is(err, blend.ErrInference):
		writeError(w, http.StatusBadGateway, "inference_failed", Wrap(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	if excluded == nil {
		excluded = []string{}
	}
	writeJSON(w, http.StatusOK, predictResponse{Results: results, Excluded: excluded})
}
