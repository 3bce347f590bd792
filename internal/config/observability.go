package config

import (
	"fmt"
	"log/slog"
)

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	OTelEnabled bool   `env:"AWE_OTEL_ENABLED"`
	ServiceName string `env:"OTEL_SERVICE_NAME"`
	LogLevel    string `env:"AWE_LOG_LEVEL" default:"info"`
}

// Validate validates the observability configuration.
func (c *ObservabilityConfig) Validate() error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("AWE_LOG_LEVEL: %w", err)
	}
	return nil
}

// Level returns the parsed log level, info when unparsable.
func (c *ObservabilityConfig) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
