// Package config loads the binaries' settings from AWE_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/rezkam/awe/internal/env"
)

// ServerConfig holds all configuration for the server binary.
type ServerConfig struct {
	Database      DatabaseConfig
	HTTP          HTTPConfig
	Scheduler     SchedulerConfig
	Dispatcher    DispatcherConfig
	Mail          MailConfig
	Calendar      CalendarConfig
	Archive       ArchiveConfig
	Observability ObservabilityConfig

	ShutdownTimeout time.Duration `env:"AWE_SHUTDOWN_TIMEOUT" default:"10s"`

	// HolidaysFile and CatalogFile are YAML documents loaded at startup when set.
	HolidaysFile string `env:"AWE_HOLIDAYS_FILE"`
	CatalogFile  string `env:"AWE_CATALOG_FILE"`
}

// HTTPConfig holds HTTP server configuration. Zero values use the server defaults.
type HTTPConfig struct {
	Host              string        `env:"AWE_HTTP_HOST"`
	Port              string        `env:"AWE_HTTP_PORT" default:"8080"`
	ReadTimeout       time.Duration `env:"AWE_HTTP_READ_TIMEOUT"`
	WriteTimeout      time.Duration `env:"AWE_HTTP_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `env:"AWE_HTTP_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `env:"AWE_HTTP_READ_HEADER_TIMEOUT"`
	MaxHeaderBytes    int           `env:"AWE_HTTP_MAX_HEADER_BYTES"`
	MaxBodyBytes      int64         `env:"AWE_HTTP_MAX_BODY_BYTES"`
}

// LoadServerConfig loads and validates server configuration from environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return cfg, nil
}
