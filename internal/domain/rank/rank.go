// Package rank orders predicted lap times into a positioned leaderboard.
package rank

import (
	"sort"

	"github.com/pitwall/pitwall/internal/domain/model"
)

// Leaderboard sorts drivers ascending by predicted lap time and assigns
// 1-based contiguous positions. Drivers with exactly equal predictions keep
// their relative order from entries, the order qualifying input was supplied
// in, so the result is deterministic. Entries without a prediction (excluded
// drivers) are skipped. Empty input yields an empty leaderboard; surfacing
// insufficient input is the blender's job.
func Leaderboard(predicted map[string]float64, entries []model.QualifyingEntry) []model.PredictionResult {
	results := make([]model.PredictionResult, 0, len(predicted))
	for _, e := range entries {
		lap, ok := predicted[e.DriverID]
		if !ok {
			continue
		}
		results = append(results, model.PredictionResult{
			DriverID:       e.DriverID,
			Team:           e.Team,
			QualifyingTime: e.QualifyingTime,
			PredictedLap:   lap,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].PredictedLap < results[j].PredictedLap
	})

	for i := range results {
		results[i].Position = i + 1
	}

	return results
}
