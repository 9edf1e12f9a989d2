// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, optional YAML file, and environment variables.
// - External errors must be wrapped via this package's error helpers.
package config

// Failure policies for the ingest pipeline.
const (
	PolicySkip  = "skip"
	PolicyAbort = "abort"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ArtifactPath locates the regression model bundle (YAML).
	ArtifactPath string `koanf:"artifact_path"`

	// DatasetPath locates the SQLite historical lap dataset.
	DatasetPath string `koanf:"dataset_path"`

	// TelemetryBaseURL roots the external timing feed used by ingest.
	TelemetryBaseURL string `koanf:"telemetry_base_url"`

	// Sessions lists the session labels an ingest run fetches, in order.
	Sessions []string `koanf:"sessions"`

	// IngestParallelism bounds concurrent session fetches.
	IngestParallelism int `koanf:"ingest_parallelism"`

	// IngestFailurePolicy is "skip" (log and continue) or "abort".
	IngestFailurePolicy string `koanf:"ingest_failure_policy"`

	// PriorRaces overrides per-driver prior venue participation counts,
	// for history the dataset cannot see.
	PriorRaces map[string]float64 `koanf:"prior_races"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		ArtifactPath:        "artifact.yaml",
		DatasetPath:         "laps.db",
		TelemetryBaseURL:    "http://localhost:8000",
		Sessions:            []string{"FP1", "FP2", "FP3", "Q", "R"},
		IngestParallelism:   4,
		IngestFailurePolicy: PolicySkip,
		PriorRaces:          map[string]float64{},
	}
}
