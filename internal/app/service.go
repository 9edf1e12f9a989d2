// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pitwall/pitwall/internal/domain/blend"
	"github.com/pitwall/pitwall/internal/domain/features"
	"github.com/pitwall/pitwall/internal/domain/model"
	"github.com/pitwall/pitwall/internal/domain/rank"
	"github.com/pitwall/pitwall/pkg/logger"
	"github.com/pitwall/pitwall/pkg/metrics"
)

// Service implements the API dependencies for the race-pace forecast system.
// It wires the model artifact, the feature repository and the blender into
// one prediction pipeline. The service is immutable after construction and
// safe for concurrent requests.
type Service struct {
	artifact blend.Artifact
	features features.Repository
	blender  *blend.Blender

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service over a loaded artifact and feature repository.
func New(artifact blend.Artifact, repo features.Repository, opts ...Option) *Service {
	s := &Service{
		artifact: artifact,
		features: repo,
		blender:  blend.New(artifact),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	return s
}

// Predict produces the ranked race-pace forecast for one request. The
// returned slice is ordered fastest first with contiguous 1-based positions;
// excluded lists the drivers dropped for an absent qualifying time, in input
// order. On error the ranked slice is nil.
func (s *Service) Predict(ctx context.Context, entries []model.QualifyingEntry, cond model.RaceConditions) ([]model.PredictionResult, []string, error) {
	requestID := uuid.NewString()
	start := time.Now()

	s.logger.Debug(ctx, "prediction requested",
		logger.String("requestID", requestID),
		logger.Int("drivers", len(entries)),
		logger.Float64("trackTemp", cond.TrackTemp),
		logger.Float64("rainProbability", cond.RainProbability),
		logger.Float64("qualifyingWeight", cond.QualifyingWeight),
	)

	out, err := s.blender.Blend(ctx, entries, s.features, cond)
	if err != nil {
		s.logger.Warn(ctx, "prediction failed",
			logger.String("requestID", requestID),
			logger.Error(err),
		)
		return nil, out.Excluded, err
	}

	ranked := rank.Leaderboard(out.Predicted, entries)

	metrics.RecordPrediction()
	metrics.RecordDriversRanked(len(ranked))
	metrics.RecordDriversExcluded(len(out.Excluded))

	s.logger.Info(ctx, "prediction complete",
		logger.String("requestID", requestID),
		logger.Int("ranked", len(ranked)),
		logger.Int("excluded", len(out.Excluded)),
		logger.Int("durationMS", int(time.Since(start).Milliseconds())),
	)

	return ranked, out.Excluded, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"knownDrivers":   s.features.Known(),
		"featureColumns": s.artifact.FeatureColumns(),
	}
}
