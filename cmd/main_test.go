package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pitwall/pitwall/internal/adapters/artifact"
	"github.com/pitwall/pitwall/internal/adapters/dataset"
	"github.com/pitwall/pitwall/internal/adapters/http/api"
	app "github.com/pitwall/pitwall/internal/app"
	"github.com/pitwall/pitwall/internal/config"
	"github.com/pitwall/pitwall/internal/domain/features"
	"github.com/pitwall/pitwall/internal/domain/model"
	"github.com/pitwall/pitwall/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

const testArtifactYAML = `
feature_columns: [total_sector, consistency, lap_count, prior_races]
imputation:
  total_sector: 95.0
  consistency: 0.5
  lap_count: 100
  prior_races: 0
weights:
  total_sector: 0.6
  consistency: 2.0
  lap_count: -0.002
  prior_races: -0.04
intercept: 12.0
`

func writeTestArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.yaml")
	if err := os.WriteFile(path, []byte(testArtifactYAML), 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("PITWALL_ADDR", ":8080")
			_ = os.Setenv("PITWALL_INGEST_PARALLELISM", "2")
			defer func() {
				_ = os.Unsetenv("PITWALL_ADDR")
				_ = os.Unsetenv("PITWALL_INGEST_PARALLELISM")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.IngestParallelism, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When testing full application setup", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			bundle, err := artifact.Load(writeTestArtifact(t))
			convey.So(err, convey.ShouldBeNil)

			store, err := dataset.Open(filepath.Join(t.TempDir(), "laps.db"))
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = store.Close() }()

			err = store.SaveLaps(ctx, []model.LapRecord{
				{DriverID: "VER", Session: "FP1", LapNumber: 1, LapTime: 74.5},
				{DriverID: "VER", Session: "FP1", LapNumber: 2, LapTime: 74.1},
			})
			convey.So(err, convey.ShouldBeNil)

			profiles, err := store.BuildProfiles(ctx)
			convey.So(err, convey.ShouldBeNil)

			repo := features.NewInMemoryRepository(profiles)
			svc := app.New(bundle, repo)
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then all components should work together", func() {
				server := api.NewServer(svc, svc)
				convey.So(server, convey.ShouldNotBeNil)

				mux := http.NewServeMux()
				server.Register(ctx, mux)

				ranked, excluded, err := svc.Predict(ctx, []model.QualifyingEntry{
					{DriverID: "VER", Team: "Red Bull Racing", QualifyingTime: 70.2},
				}, model.RaceConditions{TrackTemp: 25, QualifyingWeight: 0.5})
				convey.So(err, convey.ShouldBeNil)
				convey.So(excluded, convey.ShouldBeEmpty)
				convey.So(ranked, convey.ShouldHaveLength, 1)
				convey.So(ranked[0].Position, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("PITWALL_ADDR", "")
			defer func() { _ = os.Unsetenv("PITWALL_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}
