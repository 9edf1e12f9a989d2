// Package artifact loads and serves the pre-trained regression bundle. The
// bundle is an opaque collaborator to the rest of the core: it declares its
// feature-column order, fills missing values, and turns feature vectors into
// base lap-time predictions. Training the bundle is out of scope; this
// package only evaluates it.
package artifact

import (
	"context"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Bundle is an immutable linear regression artifact. Constructed once at
// startup and shared read-only across all requests.
type Bundle struct {
	columns    []string
	imputation []float64 // per-column fill value for unresolved features
	weights    []float64 // per-column linear weight
	intercept  float64
}

// fileSpec mirrors the on-disk YAML layout of a bundle.
type fileSpec struct {
	FeatureColumns []string           `yaml:"feature_columns"`
	Imputation     map[string]float64 `yaml:"imputation"`
	Weights        map[string]float64 `yaml:"weights"`
	Intercept      float64            `yaml:"intercept"`
}

// Load reads a bundle from a YAML file.
func Load(path string) (*Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact file: %w", err)
	}

	var spec fileSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("parse artifact file: %w", err)
	}

	return New(spec.FeatureColumns, spec.Imputation, spec.Weights, spec.Intercept)
}

// New builds a bundle from its parts. Every declared column must carry a
// weight; a column without an imputation value falls back to zero.
func New(columns []string, imputation, weights map[string]float64, intercept float64) (*Bundle, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no feature columns declared", ErrInvalidArtifact)
	}

	b := &Bundle{
		columns:    make([]string, len(columns)),
		imputation: make([]float64, len(columns)),
		weights:    make([]float64, len(columns)),
		intercept:  intercept,
	}
	copy(b.columns, columns)

	for i, col := range columns {
		w, ok := weights[col]
		if !ok {
			return nil, fmt.Errorf("%w: column %q has no weight", ErrInvalidArtifact, col)
		}
		b.weights[i] = w
		b.imputation[i] = imputation[col]
	}

	return b, nil
}

// FeatureColumns returns the column order Predict expects.
func (b *Bundle) FeatureColumns() []string {
	cols := make([]string, len(b.columns))
	copy(cols, b.columns)
	return cols
}

// Impute replaces unresolved (NaN) entries with the bundle's per-column fill
// values. The vector is modified in place and returned.
func (b *Bundle) Impute(vector []float64) []float64 {
	for i := range vector {
		if i < len(b.imputation) && math.IsNaN(vector[i]) {
			vector[i] = b.imputation[i]
		}
	}
	return vector
}

// Predict evaluates the linear model for each matrix row, honoring ctx.
// Every row must match the declared column count; any non-finite result
// fails the whole call so no partial prediction set escapes.
func (b *Bundle) Predict(ctx context.Context, matrix [][]float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	out := make([]float64, len(matrix))
	for i, row := range matrix {
		if len(row) != len(b.columns) {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d",
				ErrBadFeatureVector, i, len(row), len(b.columns))
		}
		v := b.intercept
		for j, x := range row {
			v += b.weights[j] * x
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: row %d produced a non-finite prediction", ErrBadFeatureVector, i)
		}
		out[i] = v
	}
	return out, nil
}
