package features

// Option applies a configuration option to the InMemoryRepository.
type Option func(*InMemoryRepository)

// WithPriorRaceOverrides sets per-driver prior-participation counts that take
// precedence over aggregated (or fallback) values. Useful when the venue
// experience table is maintained by hand rather than derived from telemetry.
func WithPriorRaceOverrides(overrides map[string]float64) Option {
	return func(r *InMemoryRepository) {
		for id, prior := range overrides {
			if prior >= 0 {
				r.priorRaces[id] = prior
			}
		}
	}
}
