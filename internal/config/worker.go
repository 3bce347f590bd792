package config

import (
	"fmt"

	"github.com/rezkam/awe/internal/env"
)

// WorkerConfig holds all configuration for the worker binary.
type WorkerConfig struct {
	Database      DatabaseConfig
	Dispatcher    DispatcherConfig
	Mail          MailConfig
	Observability ObservabilityConfig
}

// LoadWorkerConfig loads and validates worker configuration from environment.
func LoadWorkerConfig() (*WorkerConfig, error) {
	cfg := &WorkerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load worker config: %w", err)
	}

	return cfg, nil
}
