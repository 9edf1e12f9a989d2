package telemetry

import "errors"

// Sentinel kinds for telemetry errors.
var (
	ErrSessionUnavailable = errors.New("session telemetry unavailable")
)
