package telemetry

import (
	"context"
	"fmt"

	"github.com/pitwall/pitwall/internal/domain/model"
)

// StaticSource serves pre-loaded lap tables. Used for fixtures and local
// runs without a live timing feed.
type StaticSource struct {
	sessions map[string]model.RawLapTable
}

// NewStaticSource creates a source over canned session tables.
func NewStaticSource(sessions map[string]model.RawLapTable) *StaticSource {
	copied := make(map[string]model.RawLapTable, len(sessions))
	for label, table := range sessions {
		copied[label] = table
	}
	return &StaticSource{sessions: copied}
}

// Fetch returns the canned table for label or ErrSessionUnavailable.
func (s *StaticSource) Fetch(_ context.Context, label string) (model.RawLapTable, error) {
	table, ok := s.sessions[label]
	if !ok {
		return nil, fmt.Errorf("%w: %s: no such session", ErrSessionUnavailable, label)
	}
	return table, nil
}
