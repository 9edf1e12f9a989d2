package collector

import "github.com/pitwall/pitwall/pkg/logger"

// FailurePolicy controls how IngestAll reacts to a session fetch failure.
type FailurePolicy int

const (
	// SkipAndWarn skips the failed session, logs a warning, and keeps going.
	SkipAndWarn FailurePolicy = iota
	// AbortOnFailure fails the whole run on the first session fetch error.
	AbortOnFailure
)

// Option applies a configuration option to the Collector.
type Option func(*Collector)

// WithParallelism bounds the number of concurrent session fetches.
func WithParallelism(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

// WithFailurePolicy sets the session fetch failure policy.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(c *Collector) {
		c.policy = p
	}
}

// WithLogger sets a custom logger for the collector.
func WithLogger(l logger.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}
