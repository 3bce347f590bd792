package config

import (
	"fmt"

	"github.com/rezkam/awe/internal/env"
)

// TestConfig holds the external resources integration tests may use. Empty
// fields mean the matching tests are skipped.
type TestConfig struct {
	PostgresDSN string `env:"AWE_TEST_DB_DSN"`
	GCSBucket   string `env:"TEST_GCS_BUCKET"`
}

// LoadTestConfig loads test configuration from environment.
func LoadTestConfig() (*TestConfig, error) {
	cfg := &TestConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load test config: %w", err)
	}

	return cfg, nil
}
