package service_test

import (
	"context"
	"errors"
	"testing"

	service "github.com/pitwall/pitwall/internal/app"
	"github.com/pitwall/pitwall/internal/domain/blend"
	"github.com/pitwall/pitwall/internal/domain/features"
	"github.com/pitwall/pitwall/internal/domain/model"
	"github.com/pitwall/pitwall/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// stubArtifact returns a fixed base prediction per driver row, or a canned
// failure.
type stubArtifact struct {
	base []float64
	err  error
}

func (a *stubArtifact) FeatureColumns() []string {
	return []string{blend.ColTotalSector, blend.ColConsistency, blend.ColLapCount, blend.ColPriorRaces}
}

func (a *stubArtifact) Impute(vector []float64) []float64 { return vector }

func (a *stubArtifact) Predict(_ context.Context, matrix [][]float64) ([]float64, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.base[:len(matrix)], nil
}

func TestServicePredict(t *testing.T) {
	Convey("Given a service over a stub artifact and two known drivers", t, func() {
		artifact := &stubArtifact{base: []float64{74.0, 74.0}}
		repo := features.NewInMemoryRepository([]model.DriverProfile{
			{DriverID: "A", TotalSector: 73, Consistency: 0.4, LapCount: 180, PriorRaces: 5},
			{DriverID: "B", TotalSector: 74, Consistency: 0.6, LapCount: 150, PriorRaces: 3},
		})
		svc := service.New(artifact, repo)

		entries := []model.QualifyingEntry{
			{DriverID: "A", Team: "Alpha", QualifyingTime: 70.0},
			{DriverID: "B", Team: "Beta", QualifyingTime: 71.0},
			{DriverID: "C", Team: "Gamma", QualifyingTime: 0.0},
		}
		cond := model.RaceConditions{TrackTemp: 25, RainProbability: 0, QualifyingWeight: 1.0}

		Convey("When predicting", func() {
			ranked, excluded, err := svc.Predict(context.Background(), entries, cond)

			Convey("Then the forecast ranks by qualifying pace and excludes the sitter", func() {
				So(err, ShouldBeNil)
				So(excluded, ShouldResemble, []string{"C"})
				So(ranked, ShouldHaveLength, 2)
				So(ranked[0].DriverID, ShouldEqual, "A")
				So(ranked[0].Position, ShouldEqual, 1)
				So(ranked[0].Team, ShouldEqual, "Alpha")
				So(ranked[0].QualifyingTime, ShouldAlmostEqual, 70.0, 1e-9)
				So(ranked[1].DriverID, ShouldEqual, "B")
				So(ranked[1].Position, ShouldEqual, 2)
				So(ranked[0].PredictedLap, ShouldBeLessThan, ranked[1].PredictedLap)
			})
		})

		Convey("When every entry lacks a qualifying time", func() {
			ranked, excluded, err := svc.Predict(context.Background(), []model.QualifyingEntry{
				{DriverID: "A", QualifyingTime: 0},
				{DriverID: "B", QualifyingTime: 0},
			}, cond)

			Convey("Then the request fails but still reports the exclusions", func() {
				So(errors.Is(err, blend.ErrInsufficientInput), ShouldBeTrue)
				So(ranked, ShouldBeNil)
				So(excluded, ShouldResemble, []string{"A", "B"})
			})
		})

		Convey("When the model fails", func() {
			artifact.err = errors.New("weights corrupted")
			ranked, _, err := svc.Predict(context.Background(), entries, cond)

			Convey("Then the failure carries the inference kind", func() {
				So(errors.Is(err, blend.ErrInference), ShouldBeTrue)
				So(ranked, ShouldBeNil)
			})
		})
	})
}

func TestServiceGetStats(t *testing.T) {
	Convey("Given a service with two known drivers", t, func() {
		artifact := &stubArtifact{base: []float64{74.0}}
		repo := features.NewInMemoryRepository([]model.DriverProfile{
			{DriverID: "A"}, {DriverID: "B"},
		})
		svc := service.New(artifact, repo)

		Convey("When reading stats", func() {
			stats := svc.GetStats()

			Convey("Then the snapshot reflects the loaded components", func() {
				So(stats["knownDrivers"], ShouldEqual, 2)
				So(stats["featureColumns"], ShouldResemble, artifact.FeatureColumns())
			})
		})
	})
}
