package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if PITWALL_CONFIG is set
//  3. env (prefix PITWALL_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("PITWALL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: PITWALL_ADDR, PITWALL_ARTIFACT_PATH, ...
	// Map env keys like PITWALL_ARTIFACT_PATH -> artifact_path (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PITWALL_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "pitwall_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ArtifactPath == "":
		return fmt.Errorf("%w: artifact_path must not be empty", ErrInvalidConfig)
	case c.IngestParallelism < 1:
		return fmt.Errorf("%w: ingest_parallelism must be positive", ErrInvalidConfig)
	}
	if c.IngestFailurePolicy != PolicySkip && c.IngestFailurePolicy != PolicyAbort {
		return fmt.Errorf("%w: unknown ingest_failure_policy %q", ErrInvalidConfig, c.IngestFailurePolicy)
	}
	return nil
}
