// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/pitwall/pitwall/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Predict runs the forecast pipeline for one request.
	Predict(ctx context.Context, entries []model.QualifyingEntry, cond model.RaceConditions) ([]model.PredictionResult, []string, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	predictHandler *PredictHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		predictHandler: NewPredictHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
}

// qualifyingEntry mirrors one driver's qualifying input.
type qualifyingEntry struct {
	DriverID       string  `json:"driver_id"`
	Team           string  `json:"team"`
	QualifyingTime float64 `json:"qualifying_time"`
}

// conditionsBody mirrors the race-day parameters of a request.
type conditionsBody struct {
	TrackTemp        float64 `json:"track_temp"`
	RainProbability  float64 `json:"rain_probability"`
	QualifyingWeight float64 `json:"qualifying_weight"`
}

// predictRequest mirrors the body of POST /predict.
type predictRequest struct {
	Entries    []qualifyingEntry `json:"entries"`
	Conditions conditionsBody    `json:"conditions"`
}

func (p predictRequest) validate() error {
	if len(p.Entries) == 0 {
		return errors.New("missing entries")
	}
	for _, e := range p.Entries {
		if strings.TrimSpace(e.DriverID) == "" {
			return errors.New("missing driver_id")
		}
		if e.QualifyingTime < 0 || math.IsNaN(e.QualifyingTime) || math.IsInf(e.QualifyingTime, 0) {
			return errors.New("invalid qualifying_time for " + e.DriverID)
		}
	}
	return nil
}

type predictResponse struct {
	Results  []model.PredictionResult `json:"results"`
	Excluded []string                 `json:"excluded"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
