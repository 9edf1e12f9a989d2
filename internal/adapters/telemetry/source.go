// Package telemetry fetches raw per-session lap tables from an external
// timing feed. Retries and caching are deliberately left to callers; a
// source does one fetch per call and reports failure honestly.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pitwall/pitwall/internal/domain/model"
)

// Default HTTP source configuration constants.
const (
	defaultFetchTimeout = 30 * time.Second
)

// HTTPSource fetches session lap tables from a JSON timing endpoint at
// GET {base}/sessions/{label}/laps.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// Option applies a configuration option to the HTTPSource.
type Option func(*HTTPSource)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *HTTPSource) {
		if client != nil {
			s.client = client
		}
	}
}

// WithTimeout sets the per-fetch timeout on the default client.
func WithTimeout(d time.Duration) Option {
	return func(s *HTTPSource) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// NewHTTPSource creates a source rooted at baseURL.
func NewHTTPSource(baseURL string, opts ...Option) *HTTPSource {
	s := &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultFetchTimeout},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// lapRow mirrors one wire row. Durations travel as milliseconds; a missing
// field means the session feed does not report that column.
type lapRow struct {
	Driver     string   `json:"driver"`
	DriverName string   `json:"driver_name"`
	Team       string   `json:"team"`
	LapNumber  int      `json:"lap_number"`
	Stint      int      `json:"stint"`
	Compound   string   `json:"compound"`
	LapTimeMS  *float64 `json:"lap_time_ms"`
	Sector1MS  *float64 `json:"sector1_ms"`
	Sector2MS  *float64 `json:"sector2_ms"`
	Sector3MS  *float64 `json:"sector3_ms"`
}

// Fetch retrieves the raw lap table for one session label.
func (s *HTTPSource) Fetch(ctx context.Context, label string) (model.RawLapTable, error) {
	endpoint := fmt.Sprintf("%s/sessions/%s/laps", s.baseURL, url.PathEscape(label))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSessionUnavailable, label, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSessionUnavailable, label, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: unexpected status %d", ErrSessionUnavailable, label, resp.StatusCode)
	}

	var rows []lapRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSessionUnavailable, label, err)
	}

	table := make(model.RawLapTable, 0, len(rows))
	for _, r := range rows {
		table = append(table, model.RawLap{
			DriverID:   r.Driver,
			DriverName: r.DriverName,
			Team:       r.Team,
			LapNumber:  r.LapNumber,
			Stint:      r.Stint,
			Compound:   r.Compound,
			LapTime:    msToDuration(r.LapTimeMS),
			Sector1:    msToDuration(r.Sector1MS),
			Sector2:    msToDuration(r.Sector2MS),
			Sector3:    msToDuration(r.Sector3MS),
		})
	}
	return table, nil
}

// msToDuration converts optional wire milliseconds to an optional duration.
func msToDuration(ms *float64) *time.Duration {
	if ms == nil {
		return nil
	}
	d := time.Duration(*ms * float64(time.Millisecond))
	return &d
}
