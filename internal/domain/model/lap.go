// Package model contains domain records passed between layers.
package model

import "time"

// RawLap is one row of raw per-session telemetry as delivered by a
// SessionDataSource. Duration fields are pointers because a session feed may
// lack any of them entirely; a nil duration means "not reported".
type RawLap struct {
	DriverID   string         // short competitor identifier, e.g. "VER"
	DriverName string         // display name
	Team       string         // constructor/team name
	LapNumber  int            // lap number within the session
	Stint      int            // contiguous run on one tire set
	Compound   string         // tire compound, e.g. "SOFT"
	LapTime    *time.Duration // full lap duration
	Sector1    *time.Duration // sector 1 duration
	Sector2    *time.Duration // sector 2 duration
	Sector3    *time.Duration // sector 3 duration
}

// RawLapTable is the per-session table handed to the collector.
type RawLapTable []RawLap

// LapRecord is a normalized lap retained in the historical dataset.
// Records are immutable once created; a record without a lap time is never
// persisted.
type LapRecord struct {
	DriverID   string
	DriverName string
	Team       string
	Session    string // session label, e.g. "FP1", "Q", "R"
	LapNumber  int
	Stint      int
	Compound   string
	LapTime    float64  // seconds
	Sector1    *float64 // seconds; nil when the session feed lacked the column
	Sector2    *float64
	Sector3    *float64
}

// DriverProfile aggregates a driver's historical statistics. Every numeric
// field is always resolvable: unknown drivers receive population means and a
// zero prior-participation count from the feature repository.
type DriverProfile struct {
	DriverID    string
	TotalSector float64 // aggregate sector-time statistic, seconds
	Consistency float64 // lap-time spread metric, seconds
	LapCount    float64 // historical lap count (fractional after mean fallback)
	PriorRaces  float64 // prior participations at the venue
}

// QualifyingEntry is a per-request qualifying input for one driver.
// A QualifyingTime of 0 is the sentinel for "no valid lap"; such entries are
// excluded from ranking but kept for reporting.
type QualifyingEntry struct {
	DriverID       string
	Team           string
	QualifyingTime float64 // seconds; 0 means absent
}

// RaceConditions carries the race-day parameters for one request.
type RaceConditions struct {
	TrackTemp        float64 // °C, expected 15-45 but not enforced
	RainProbability  float64 // percent, clamped to [0,100] by the blender
	QualifyingWeight float64 // clamped to [0,1] by the blender
}

// PredictionResult is one row of the ranked forecast.
type PredictionResult struct {
	Position       int     `json:"position"` // 1-based, contiguous
	DriverID       string  `json:"driver_id"`
	Team           string  `json:"team"`
	QualifyingTime float64 `json:"qualifying_time"`
	PredictedLap   float64 `json:"predicted_lap"`
}
