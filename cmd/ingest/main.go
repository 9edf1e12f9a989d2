// Command ingest fetches session telemetry, normalizes it, and folds it into
// the historical lap dataset used by the prediction service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pitwall/pitwall/internal/adapters/dataset"
	"github.com/pitwall/pitwall/internal/adapters/telemetry"
	"github.com/pitwall/pitwall/internal/config"
	"github.com/pitwall/pitwall/internal/domain/collector"
	"github.com/pitwall/pitwall/pkg/logger"
)

// Default configuration constants.
const (
	defaultSessions = "FP1,FP2,FP3,Q,R"
	defaultTimeout  = 30 * time.Second
	runTimeout      = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8000", "Base URL of the timing feed")
		datasetPath = flag.String("dataset", "laps.db", "Path to the SQLite lap dataset")
		sessions    = flag.String("sessions", defaultSessions, "Comma-separated session labels to fetch")
		parallelism = flag.Int("parallelism", 4, "Concurrent session fetches")
		policy      = flag.String("policy", config.PolicySkip, "Failure policy: skip or abort")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logLevel    = flag.String("log-level", "info", "Log verbosity: debug, info, warn, error")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString(*logLevel)
	log := logger.Get().Named("ingest")

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	labels := splitSessions(*sessions)
	if len(labels) == 0 {
		os.Stderr.WriteString("no sessions to fetch\n")
		os.Exit(1)
	}

	failurePolicy := collector.SkipAndWarn
	if *policy == config.PolicyAbort {
		failurePolicy = collector.AbortOnFailure
	} else if *policy != config.PolicySkip {
		os.Stderr.WriteString("unknown policy: " + *policy + "\n")
		os.Exit(1)
	}

	source := telemetry.NewHTTPSource(*baseURL, telemetry.WithTimeout(*timeout))
	c := collector.New(
		collector.WithParallelism(*parallelism),
		collector.WithFailurePolicy(failurePolicy),
		collector.WithLogger(log),
	)

	log.Info(ctx, "ingest run starting",
		logger.String("url", *baseURL),
		logger.Any("sessions", labels),
	)

	result, err := c.IngestAll(ctx, source, labels)
	if err != nil {
		log.Error(ctx, "ingest run aborted", logger.Error(err))
		os.Exit(1)
	}

	store, err := dataset.Open(*datasetPath)
	if err != nil {
		log.Error(ctx, "failed to open dataset", logger.String("path", *datasetPath), logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveLaps(ctx, result.Records); err != nil {
		log.Error(ctx, "failed to save laps", logger.Error(err))
		os.Exit(1)
	}

	profiles, err := store.BuildProfiles(ctx)
	if err != nil {
		log.Error(ctx, "failed to build driver profiles", logger.Error(err))
		os.Exit(1)
	}

	total, err := store.CountLaps(ctx)
	if err != nil {
		log.Error(ctx, "failed to count laps", logger.Error(err))
		os.Exit(1)
	}

	fmt.Printf("ingested %d laps from %d sessions (%d skipped)\n",
		len(result.Records), len(labels)-len(result.Warnings), len(result.Warnings))
	for _, w := range result.Warnings {
		fmt.Printf("  skipped %s: %v\n", w.Session, w.Err)
	}
	fmt.Printf("dataset now holds %d laps across %d drivers\n", total, len(profiles))
}

func splitSessions(s string) []string {
	var labels []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			labels = append(labels, part)
		}
	}
	return labels
}
