package collector_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pitwall/pitwall/internal/domain/collector"
	"github.com/pitwall/pitwall/internal/domain/model"
	"github.com/pitwall/pitwall/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// mapSource serves canned tables per session label and fails configured ones.
type mapSource struct {
	tables map[string]model.RawLapTable
	broken map[string]error
}

func (s *mapSource) Fetch(_ context.Context, label string) (model.RawLapTable, error) {
	if err, ok := s.broken[label]; ok {
		return nil, err
	}
	return s.tables[label], nil
}

func dur(seconds float64) *time.Duration {
	d := time.Duration(seconds * float64(time.Second))
	return &d
}

func TestCollectorIngest(t *testing.T) {
	Convey("Given a collector", t, func() {
		c := collector.New()

		Convey("When ingesting a session whose feed lacks the sector-3 column", func() {
			table := model.RawLapTable{
				{DriverID: "VER", DriverName: "Max Verstappen", Team: "Red Bull Racing",
					LapNumber: 1, Stint: 1, Compound: "SOFT",
					LapTime: dur(74.5), Sector1: dur(18.1), Sector2: dur(33.9)},
				{DriverID: "VER", DriverName: "Max Verstappen", Team: "Red Bull Racing",
					LapNumber: 2, Stint: 1, Compound: "SOFT",
					Sector1: dur(18.3), Sector2: dur(34.2)}, // out lap, no lap time
			}

			records := c.Ingest("FP1", table)

			Convey("Then only rows with a lap time survive", func() {
				So(records, ShouldHaveLength, 1)
				So(records[0].LapTime, ShouldAlmostEqual, 74.5, 1e-9)
			})

			Convey("And the absent sector column stays absent on the record", func() {
				So(records[0].Sector1, ShouldNotBeNil)
				So(*records[0].Sector1, ShouldAlmostEqual, 18.1, 1e-9)
				So(records[0].Sector3, ShouldBeNil)
			})

			Convey("And records carry the session label and driver identity", func() {
				So(records[0].Session, ShouldEqual, "FP1")
				So(records[0].DriverID, ShouldEqual, "VER")
				So(records[0].Team, ShouldEqual, "Red Bull Racing")
			})
		})

		Convey("When ingesting a session that reports all sectors", func() {
			table := model.RawLapTable{
				{DriverID: "LEC", Team: "Ferrari", LapNumber: 5, Stint: 2, Compound: "MEDIUM",
					LapTime: dur(73.9), Sector1: dur(18.0), Sector2: dur(33.5), Sector3: dur(22.4)},
			}

			records := c.Ingest("Q", table)

			Convey("Then all sector times are populated in seconds", func() {
				So(records, ShouldHaveLength, 1)
				So(records[0].Sector3, ShouldNotBeNil)
				So(*records[0].Sector3, ShouldAlmostEqual, 22.4, 1e-9)
			})
		})

		Convey("When ingesting an empty table", func() {
			records := c.Ingest("FP2", nil)

			Convey("Then it returns an empty record slice", func() {
				So(records, ShouldBeEmpty)
			})
		})
	})
}

func TestCollectorIngestAll(t *testing.T) {
	Convey("Given a source with several sessions", t, func() {
		src := &mapSource{
			tables: map[string]model.RawLapTable{
				"FP1": {{DriverID: "NOR", Team: "McLaren", LapNumber: 1, LapTime: dur(75.0)}},
				"FP2": {{DriverID: "PIA", Team: "McLaren", LapNumber: 1, LapTime: dur(74.8)}},
				"Q":   {{DriverID: "NOR", Team: "McLaren", LapNumber: 1, LapTime: dur(71.2)}},
			},
			broken: map[string]error{},
		}

		Convey("When ingesting all sessions in caller order", func() {
			c := collector.New(collector.WithParallelism(3))
			res, err := c.IngestAll(context.Background(), src, []string{"FP1", "FP2", "Q"})

			Convey("Then records are concatenated in session order", func() {
				So(err, ShouldBeNil)
				So(res.Records, ShouldHaveLength, 3)
				So(res.Records[0].Session, ShouldEqual, "FP1")
				So(res.Records[1].Session, ShouldEqual, "FP2")
				So(res.Records[2].Session, ShouldEqual, "Q")
				So(res.Warnings, ShouldBeEmpty)
			})
		})

		Convey("When one session cannot be fetched under the default policy", func() {
			src.broken["FP2"] = errors.New("telemetry endpoint down")
			c := collector.New()
			res, err := c.IngestAll(context.Background(), src, []string{"FP1", "FP2", "Q"})

			Convey("Then the run continues and reports the skipped session", func() {
				So(err, ShouldBeNil)
				So(res.Records, ShouldHaveLength, 2)
				So(res.Records[0].Session, ShouldEqual, "FP1")
				So(res.Records[1].Session, ShouldEqual, "Q")
				So(res.Warnings, ShouldHaveLength, 1)
				So(res.Warnings[0].Session, ShouldEqual, "FP2")
			})
		})

		Convey("When one session cannot be fetched under AbortOnFailure", func() {
			src.broken["Q"] = errors.New("telemetry endpoint down")
			c := collector.New(collector.WithFailurePolicy(collector.AbortOnFailure))
			res, err := c.IngestAll(context.Background(), src, []string{"FP1", "Q"})

			Convey("Then the whole run fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "fetch session Q")
				So(res.Records, ShouldBeEmpty)
			})
		})
	})
}
