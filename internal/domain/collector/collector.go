// Package collector normalizes raw per-session lap telemetry into the
// uniform lap-record table consumed by the offline aggregation step.
package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pitwall/pitwall/internal/domain/model"
	"github.com/pitwall/pitwall/pkg/logger"
	"github.com/pitwall/pitwall/pkg/metrics"
)

// Default collector configuration constants.
const (
	defaultParallelism = 4
)

// SessionSource abstracts the external telemetry fetch. Caching and retries
// belong to implementations, not to the collector.
type SessionSource interface {
	// Fetch returns the raw lap table for one session label.
	Fetch(ctx context.Context, label string) (model.RawLapTable, error)
}

// SessionWarning reports a session that was skipped during ingestion.
type SessionWarning struct {
	Session string
	Err     error
}

// Result is the outcome of a full ingestion run. Records are concatenated in
// the caller-supplied session order regardless of fetch parallelism.
type Result struct {
	Records  []model.LapRecord
	Warnings []SessionWarning
}

// Collector converts raw per-session telemetry into normalized lap records.
type Collector struct {
	parallelism int
	policy      FailurePolicy
	logger      logger.Logger
}

// New creates a collector with configuration options.
func New(opts ...Option) *Collector {
	c := &Collector{
		parallelism: defaultParallelism,
		policy:      SkipAndWarn,
		logger:      logger.Get().Named("collector"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Ingest normalizes one session's raw lap table. Duration fields present on a
// row are converted to float seconds; fields the session feed never reported
// stay nil on the record. Rows without a lap time are dropped entirely.
func (c *Collector) Ingest(session string, table model.RawLapTable) []model.LapRecord {
	records := make([]model.LapRecord, 0, len(table))
	for _, row := range table {
		if row.LapTime == nil {
			metrics.RecordLapDropped()
			continue
		}
		records = append(records, model.LapRecord{
			DriverID:   row.DriverID,
			DriverName: row.DriverName,
			Team:       row.Team,
			Session:    session,
			LapNumber:  row.LapNumber,
			Stint:      row.Stint,
			Compound:   row.Compound,
			LapTime:    row.LapTime.Seconds(),
			Sector1:    seconds(row.Sector1),
			Sector2:    seconds(row.Sector2),
			Sector3:    seconds(row.Sector3),
		})
		metrics.RecordLapIngested()
	}
	return records
}

// IngestAll fetches every session from src and concatenates the normalized
// records in the order labels were supplied. Sessions are fetched with
// bounded parallelism; fetch order never changes output order. Under the
// default SkipAndWarn policy a failed session is skipped and reported in
// Result.Warnings; under AbortOnFailure the first failure aborts the run.
func (c *Collector) IngestAll(ctx context.Context, src SessionSource, labels []string) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.RecordIngestDuration(float64(time.Since(start).Milliseconds()))
	}()

	type fetchOut struct {
		table model.RawLapTable
		err   error
	}

	outs := make([]fetchOut, len(labels))
	sem := make(chan struct{}, c.parallelism)
	var wg sync.WaitGroup
	for i, label := range labels {
		wg.Add(1)
		go func(i int, label string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			table, err := src.Fetch(ctx, label)
			outs[i] = fetchOut{table: table, err: err}
		}(i, label)
	}
	wg.Wait()

	var res Result
	for i, label := range labels {
		if outs[i].err != nil {
			metrics.RecordSessionSkipped()
			if c.policy == AbortOnFailure {
				return Result{}, fmt.Errorf("fetch session %s: %w", label, outs[i].err)
			}
			c.logger.Warn(ctx, "session unavailable, skipping",
				logger.String("session", label),
				logger.Error(outs[i].err),
			)
			res.Warnings = append(res.Warnings, SessionWarning{Session: label, Err: outs[i].err})
			continue
		}
		metrics.RecordSessionFetched()
		res.Records = append(res.Records, c.Ingest(label, outs[i].table)...)
	}

	return res, nil
}

// seconds converts an optional duration to optional float seconds.
func seconds(d *time.Duration) *float64 {
	if d == nil {
		return nil
	}
	s := d.Seconds()
	return &s
}
