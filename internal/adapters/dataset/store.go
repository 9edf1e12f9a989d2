// Package dataset provides durable storage for the normalized historical lap
// dataset and the aggregation that turns it into driver profiles.
package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pitwall/pitwall/internal/domain/model"
	"github.com/pitwall/pitwall/pkg/metrics"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS laps (
	driver_id   TEXT    NOT NULL,
	driver_name TEXT    NOT NULL DEFAULT '',
	team        TEXT    NOT NULL DEFAULT '',
	session     TEXT    NOT NULL,
	lap_number  INTEGER NOT NULL,
	stint       INTEGER NOT NULL DEFAULT 0,
	compound    TEXT    NOT NULL DEFAULT '',
	lap_time    REAL    NOT NULL,
	sector1     REAL,
	sector2     REAL,
	sector3     REAL,
	UNIQUE (session, driver_id, lap_number)
);

CREATE INDEX IF NOT EXISTS idx_laps_driver ON laps (driver_id);
`

// Store persists normalized lap records in SQLite. WAL mode keeps reads open
// while an ingest run writes.
type Store struct {
	db *sql.DB
}

// Open creates or opens the dataset database at path. Safe to call against an
// existing database; the schema is applied idempotently.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenDataset, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrOpenDataset, err)
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: apply schema: %v", ErrOpenDataset, err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrOpenDataset, pragma, err)
		}
	}
	return nil
}

// SaveLaps stores records in one transaction. Re-ingesting a session replaces
// its rows instead of duplicating them, keyed on (session, driver, lap).
func (s *Store) SaveLaps(ctx context.Context, records []model.LapRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save laps: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO laps
			(driver_id, driver_name, team, session, lap_number, stint, compound,
			 lap_time, sector1, sector2, sector3)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save laps: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.DriverID, r.DriverName, r.Team, r.Session, r.LapNumber, r.Stint,
			r.Compound, r.LapTime, nullable(r.Sector1), nullable(r.Sector2),
			nullable(r.Sector3))
		if err != nil {
			return fmt.Errorf("save lap %s/%s/%d: %w", r.Session, r.DriverID, r.LapNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save laps: %w", err)
	}

	if n, err := s.CountLaps(ctx); err == nil {
		metrics.UpdateDatasetLapsStored(n)
	}

	return nil
}

// LoadLaps returns every stored record, ordered by session, driver and lap.
func (s *Store) LoadLaps(ctx context.Context) ([]model.LapRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT driver_id, driver_name, team, session, lap_number, stint,
		       compound, lap_time, sector1, sector2, sector3
		FROM laps
		ORDER BY session, driver_id, lap_number`)
	if err != nil {
		return nil, fmt.Errorf("load laps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.LapRecord
	for rows.Next() {
		var (
			r          model.LapRecord
			s1, s2, s3 sql.NullFloat64
		)
		err := rows.Scan(&r.DriverID, &r.DriverName, &r.Team, &r.Session,
			&r.LapNumber, &r.Stint, &r.Compound, &r.LapTime, &s1, &s2, &s3)
		if err != nil {
			return nil, fmt.Errorf("load laps: %w", err)
		}
		r.Sector1 = optional(s1)
		r.Sector2 = optional(s2)
		r.Sector3 = optional(s3)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load laps: %w", err)
	}

	return records, nil
}

// CountLaps returns the number of stored lap records.
func (s *Store) CountLaps(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM laps`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count laps: %w", err)
	}
	return n, nil
}

// BuildProfiles aggregates the stored dataset into per-driver profiles,
// ordered by driver id.
//
// Consistency is the sample standard deviation of the driver's lap times,
// zero when fewer than two laps exist. The sector aggregate averages
// fully-timed laps; a driver with no fully-timed lap falls back to the mean
// lap time so the profile stays finite. Prior participations count the
// distinct race sessions the driver appears in.
func (s *Store) BuildProfiles(ctx context.Context) ([]model.DriverProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT driver_id,
		       COUNT(*),
		       AVG(lap_time),
		       AVG(lap_time * lap_time),
		       AVG(sector1 + sector2 + sector3),
		       (SELECT COUNT(DISTINCT r.session) FROM laps r
		        WHERE r.driver_id = laps.driver_id AND r.session = 'R')
		FROM laps
		GROUP BY driver_id
		ORDER BY driver_id`)
	if err != nil {
		return nil, fmt.Errorf("build profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var profiles []model.DriverProfile
	for rows.Next() {
		var (
			driverID            string
			lapCount            int
			meanLap, meanSqLap  float64
			totalSector         sql.NullFloat64
			priorRaces          int
		)
		err := rows.Scan(&driverID, &lapCount, &meanLap, &meanSqLap,
			&totalSector, &priorRaces)
		if err != nil {
			return nil, fmt.Errorf("build profiles: %w", err)
		}

		p := model.DriverProfile{
			DriverID:    driverID,
			TotalSector: meanLap,
			Consistency: sampleStdDev(lapCount, meanLap, meanSqLap),
			LapCount:    float64(lapCount),
			PriorRaces:  float64(priorRaces),
		}
		if totalSector.Valid {
			p.TotalSector = totalSector.Float64
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("build profiles: %w", err)
	}

	return profiles, nil
}

// sampleStdDev recovers the sample standard deviation from the count, mean
// and mean of squares of a series.
func sampleStdDev(n int, mean, meanSq float64) float64 {
	if n < 2 {
		return 0
	}
	variance := float64(n) / float64(n-1) * (meanSq - mean*mean)
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func optional(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
