// Package blend combines qualifying input, historical features, the model's
// base prediction, and race-day conditions into per-driver predicted lap
// times. Blending is a pure function of its inputs for a fixed artifact and
// profile snapshot; nothing is retained between invocations.
package blend

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pitwall/pitwall/internal/domain/model"
	"github.com/pitwall/pitwall/pkg/metrics"
)

// Weather adjustment constants. Both factors are >= 1 and grow with their
// inputs, so worse conditions can only slow the forecast down.
const (
	baselineTrackTemp   = 25.0  // °C at which the temperature factor is neutral
	maxRainPenalty      = 0.05  // factor increase at 100% rain probability
	tempPenaltyPerDeg   = 0.005 // factor increase per °C away from baseline
	maxRainProbability  = 100.0
	maxQualifyingWeight = 1.0
)

// Feature column names the artifact may declare. Columns the blender does not
// recognize are filled with NaN and resolved by the artifact's imputation
// step.
const (
	ColTotalSector = "total_sector"
	ColConsistency = "consistency"
	ColLapCount    = "lap_count"
	ColPriorRaces  = "prior_races"
)

// Artifact is the opaque regression bundle. The blender presents feature
// vectors in the artifact's declared column order after imputation; the
// artifact's internal form is outside this package's concern.
type Artifact interface {
	// FeatureColumns returns the column order Predict expects.
	FeatureColumns() []string

	// Impute fills unresolved (NaN) values in a feature vector.
	Impute(vector []float64) []float64

	// Predict returns one base lap time, in seconds, per matrix row.
	Predict(ctx context.Context, matrix [][]float64) ([]float64, error)
}

// ProfileLookup resolves a historical profile for a driver. Implementations
// must already apply their own fallback so every lookup succeeds.
type ProfileLookup interface {
	Lookup(driverID string) model.DriverProfile
}

// Output carries the per-driver predicted lap times plus the drivers that
// were excluded for an absent qualifying time, in input order.
type Output struct {
	Predicted map[string]float64
	Excluded  []string
}

// Blender blends base predictions with qualifying pace and conditions.
type Blender struct {
	artifact Artifact
}

// New creates a Blender around an immutable model artifact.
func New(artifact Artifact) *Blender {
	return &Blender{artifact: artifact}
}

// Blend partitions entries into valid and excluded, obtains base predictions
// for the valid set, and applies the qualifying and weather adjustments.
// RainProbability and QualifyingWeight are clamped into their documented
// domains here; TrackTemp is taken as supplied.
func (b *Blender) Blend(ctx context.Context, entries []model.QualifyingEntry, profiles ProfileLookup, cond model.RaceConditions) (Output, error) {
	cond = clampConditions(cond)

	valid := make([]model.QualifyingEntry, 0, len(entries))
	var excluded []string
	for _, e := range entries {
		if e.QualifyingTime > 0 {
			valid = append(valid, e)
		} else {
			excluded = append(excluded, e.DriverID)
		}
	}
	if len(valid) == 0 {
		metrics.RecordInsufficientInput()
		return Output{Excluded: excluded}, ErrInsufficientInput
	}

	base, err := b.basePredictions(ctx, valid, profiles)
	if err != nil {
		return Output{}, err
	}

	var qSum, baseSum float64
	for i, e := range valid {
		qSum += e.QualifyingTime
		baseSum += base[i]
	}
	qMean := qSum / float64(len(valid))
	baseMean := baseSum / float64(len(valid))

	rainFactor := 1 + (cond.RainProbability/maxRainProbability)*maxRainPenalty
	tempFactor := 1 + math.Abs(cond.TrackTemp-baselineTrackTemp)*tempPenaltyPerDeg
	w := cond.QualifyingWeight

	predicted := make(map[string]float64, len(valid))
	for i, e := range valid {
		qNorm := e.QualifyingTime / qMean
		v := (1-w)*base[i] + w*qNorm*baseMean
		predicted[e.DriverID] = v * rainFactor * tempFactor
	}

	return Output{Predicted: predicted, Excluded: excluded}, nil
}

// basePredictions assembles the feature matrix in artifact column order and
// invokes the model once for the whole valid set. Any inference failure is
// fatal for the request; no partial output is produced.
func (b *Blender) basePredictions(ctx context.Context, valid []model.QualifyingEntry, profiles ProfileLookup) ([]float64, error) {
	cols := b.artifact.FeatureColumns()
	matrix := make([][]float64, len(valid))
	for i, e := range valid {
		p := profiles.Lookup(e.DriverID)
		vec := make([]float64, len(cols))
		for j, col := range cols {
			vec[j] = featureValue(p, col)
		}
		matrix[i] = b.artifact.Impute(vec)
	}

	start := time.Now()
	base, err := b.artifact.Predict(ctx, matrix)
	metrics.RecordInferenceLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordInferenceError()
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	if len(base) != len(valid) {
		metrics.RecordInferenceError()
		return nil, fmt.Errorf("%w: got %d predictions for %d drivers", ErrInference, len(base), len(valid))
	}
	return base, nil
}

// featureValue maps a profile field to a named feature column. Unrecognized
// columns yield NaN for the imputation step to resolve.
func featureValue(p model.DriverProfile, col string) float64 {
	switch col {
	case ColTotalSector:
		return p.TotalSector
	case ColConsistency:
		return p.Consistency
	case ColLapCount:
		return p.LapCount
	case ColPriorRaces:
		return p.PriorRaces
	default:
		return math.NaN()
	}
}

// clampConditions pulls rain probability and qualifying weight into their
// documented domains. Track temperature is expected in 15-45°C but values
// outside still compute under the same formula.
func clampConditions(cond model.RaceConditions) model.RaceConditions {
	cond.RainProbability = math.Max(0, math.Min(maxRainProbability, cond.RainProbability))
	cond.QualifyingWeight = math.Max(0, math.Min(maxQualifyingWeight, cond.QualifyingWeight))
	return cond
}
