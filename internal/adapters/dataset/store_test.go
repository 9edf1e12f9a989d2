package dataset_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pitwall/pitwall/internal/adapters/dataset"
	"github.com/pitwall/pitwall/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func openTempStore(t *testing.T) *dataset.Store {
	t.Helper()

	dir, err := os.MkdirTemp("", "pitwall-dataset-*")
	if err != nil {
		t.Fatalf("temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	s, err := dataset.Open(filepath.Join(dir, "laps.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func sec(v float64) *float64 { return &v }

func TestStoreSaveLoad(t *testing.T) {
	Convey("Given an empty dataset store", t, func() {
		s := openTempStore(t)
		ctx := context.Background()

		records := []model.LapRecord{
			{DriverID: "VER", Team: "Red Bull Racing", Session: "FP1", LapNumber: 1,
				LapTime: 74.5, Sector1: sec(18.1), Sector2: sec(33.9), Sector3: sec(22.5)},
			{DriverID: "VER", Team: "Red Bull Racing", Session: "FP1", LapNumber: 2,
				LapTime: 74.1, Sector1: sec(18.0), Sector2: sec(33.8), Sector3: sec(22.3)},
			{DriverID: "LEC", Team: "Ferrari", Session: "FP1", LapNumber: 1,
				LapTime: 74.9},
		}

		Convey("When saving and reloading records", func() {
			So(s.SaveLaps(ctx, records), ShouldBeNil)
			loaded, err := s.LoadLaps(ctx)

			Convey("Then every record survives the round trip", func() {
				So(err, ShouldBeNil)
				So(loaded, ShouldHaveLength, 3)

				// LEC sorts first and carries no sector columns
				So(loaded[0].DriverID, ShouldEqual, "LEC")
				So(loaded[0].Sector1, ShouldBeNil)
				So(loaded[1].DriverID, ShouldEqual, "VER")
				So(*loaded[1].Sector1, ShouldAlmostEqual, 18.1, 1e-9)
			})
		})

		Convey("When the same session is ingested twice", func() {
			So(s.SaveLaps(ctx, records), ShouldBeNil)
			So(s.SaveLaps(ctx, records), ShouldBeNil)

			Convey("Then the dataset holds each lap once", func() {
				n, err := s.CountLaps(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 3)
			})
		})

		Convey("When a re-ingest revises a lap", func() {
			So(s.SaveLaps(ctx, records), ShouldBeNil)

			revised := records[0]
			revised.LapTime = 73.9
			So(s.SaveLaps(ctx, []model.LapRecord{revised}), ShouldBeNil)

			Convey("Then the revised time replaces the old row", func() {
				loaded, err := s.LoadLaps(ctx)
				So(err, ShouldBeNil)
				So(loaded, ShouldHaveLength, 3)
				So(loaded[1].LapTime, ShouldAlmostEqual, 73.9, 1e-9)
			})
		})
	})
}

func TestStoreBuildProfiles(t *testing.T) {
	Convey("Given a dataset with history for two drivers", t, func() {
		s := openTempStore(t)
		ctx := context.Background()

		records := []model.LapRecord{
			{DriverID: "HAM", Session: "FP1", LapNumber: 1, LapTime: 75.0,
				Sector1: sec(18.5), Sector2: sec(34.0), Sector3: sec(22.5)},
			{DriverID: "HAM", Session: "FP1", LapNumber: 2, LapTime: 74.0,
				Sector1: sec(18.3), Sector2: sec(33.6), Sector3: sec(22.1)},
			{DriverID: "HAM", Session: "R", LapNumber: 1, LapTime: 76.0,
				Sector1: sec(18.7), Sector2: sec(34.4), Sector3: sec(22.9)},
			{DriverID: "OCO", Session: "FP1", LapNumber: 1, LapTime: 76.5},
		}
		So(s.SaveLaps(ctx, records), ShouldBeNil)

		Convey("When building profiles", func() {
			profiles, err := s.BuildProfiles(ctx)

			Convey("Then aggregates match the stored laps", func() {
				So(err, ShouldBeNil)
				So(profiles, ShouldHaveLength, 2)

				ham := profiles[0]
				So(ham.DriverID, ShouldEqual, "HAM")
				So(ham.LapCount, ShouldEqual, 3)
				So(ham.TotalSector, ShouldAlmostEqual, (75.0+74.0+76.0)/3, 1e-9)
				So(ham.Consistency, ShouldAlmostEqual, 1.0, 1e-9)
				So(ham.PriorRaces, ShouldEqual, 1)

				oco := profiles[1]
				So(oco.DriverID, ShouldEqual, "OCO")
				So(oco.LapCount, ShouldEqual, 1)
				So(oco.Consistency, ShouldEqual, 0)
				So(oco.PriorRaces, ShouldEqual, 0)

				Convey("And the sector-less driver falls back to mean lap time", func() {
					So(oco.TotalSector, ShouldAlmostEqual, 76.5, 1e-9)
					So(math.IsNaN(oco.TotalSector), ShouldBeFalse)
				})
			})
		})
	})

	Convey("Given an empty dataset", t, func() {
		s := openTempStore(t)

		Convey("When building profiles", func() {
			profiles, err := s.BuildProfiles(context.Background())

			Convey("Then no profiles are produced", func() {
				So(err, ShouldBeNil)
				So(profiles, ShouldBeEmpty)
			})
		})
	})
}
