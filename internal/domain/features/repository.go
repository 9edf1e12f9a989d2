// Package features provides read-only per-driver historical statistics with
// a population-mean fallback for drivers that have no recorded history.
package features

import (
	"github.com/pitwall/pitwall/internal/domain/model"
	"github.com/pitwall/pitwall/pkg/metrics"
)

// Repository resolves a historical profile for any driver id. Lookup never
// fails: a rookie without history is a normal condition, answered with
// population means and a zero prior-participation count.
type Repository interface {
	Lookup(driverID string) model.DriverProfile

	// Known returns the number of drivers backed by real history.
	Known() int
}

// InMemoryRepository implements Repository over a precomputed profile table.
// It is immutable after construction and safe to share across requests.
type InMemoryRepository struct {
	profiles map[string]model.DriverProfile

	// Population means, precomputed once so fallback is deterministic.
	meanTotalSector float64
	meanConsistency float64
	meanLapCount    float64

	// Per-driver prior-participation overrides, applied on top of both known
	// and fallback profiles when present.
	priorRaces map[string]float64
}

// NewInMemoryRepository builds a repository from a precomputed profile table.
func NewInMemoryRepository(profiles []model.DriverProfile, opts ...Option) *InMemoryRepository {
	r := &InMemoryRepository{
		profiles:   make(map[string]model.DriverProfile, len(profiles)),
		priorRaces: make(map[string]float64),
	}

	var totalSector, consistency, lapCount float64
	for _, p := range profiles {
		r.profiles[p.DriverID] = p
		totalSector += p.TotalSector
		consistency += p.Consistency
		lapCount += p.LapCount
	}
	if n := float64(len(profiles)); n > 0 {
		r.meanTotalSector = totalSector / n
		r.meanConsistency = consistency / n
		r.meanLapCount = lapCount / n
	}

	for _, opt := range opts {
		opt(r)
	}

	metrics.UpdateKnownDriverCount(len(r.profiles))

	return r
}

// Lookup returns the driver's profile, substituting population means and a
// zero prior-participation count when the driver is unseen.
func (r *InMemoryRepository) Lookup(driverID string) model.DriverProfile {
	p, ok := r.profiles[driverID]
	if !ok {
		metrics.RecordProfileFallback()
		p = model.DriverProfile{
			DriverID:    driverID,
			TotalSector: r.meanTotalSector,
			Consistency: r.meanConsistency,
			LapCount:    r.meanLapCount,
			PriorRaces:  0,
		}
	}
	if prior, ok := r.priorRaces[driverID]; ok {
		p.PriorRaces = prior
	}
	return p
}

// Known returns the number of drivers with real history.
func (r *InMemoryRepository) Known() int {
	return len(r.profiles)
}
