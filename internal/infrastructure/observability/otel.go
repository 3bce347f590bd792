// Package observability wires OpenTelemetry traces, metrics and logs over OTLP/HTTP.
//
// Exporters are configured by the standard OTEL_* variables:
//   - OTEL_EXPORTER_OTLP_ENDPOINT: collector URL
//   - OTEL_EXPORTER_OTLP_HEADERS: auth headers, e.g. Authorization=Basic <token>
//   - OTEL_RESOURCE_ATTRIBUTES: extra resource attributes
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// DefaultServiceName is used when Config.ServiceName and OTEL_SERVICE_NAME are unset.
const DefaultServiceName = "awe"

const defaultExportTimeout = 10 * time.Second

type Config struct {
	Enabled     bool
	ServiceName string
	LogLevel    slog.Level

	// MetricInterval is how often metrics are pushed. Defaults to 15s.
	MetricInterval time.Duration
}

// Providers holds the SDK providers and the process logger.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
	Logs   *sdklog.LoggerProvider
	Logger *slog.Logger
}

// Setup installs global tracer and meter providers and builds the logger.
// When disabled the providers are no-op SDK instances and the logger writes
// JSON to stdout.
func Setup(ctx context.Context, cfg Config, stdout io.Writer) (*Providers, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	if cfg.MetricInterval <= 0 {
		cfg.MetricInterval = 15 * time.Second
	}

	if !cfg.Enabled {
		p := &Providers{
			Tracer: sdktrace.NewTracerProvider(),
			Meter:  sdkmetric.NewMeterProvider(),
			Logs:   sdklog.NewLoggerProvider(),
			Logger: slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{Level: cfg.LogLevel})),
		}
		otel.SetTracerProvider(p.Tracer)
		otel.SetMeterProvider(p.Meter)
		return p, nil
	}

	res, err := newResource(ctx, cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	p := &Providers{}
	if p.Tracer, err = newTracerProvider(res); err != nil {
		return nil, err
	}
	if p.Meter, err = newMeterProvider(res, cfg.MetricInterval); err != nil {
		_ = p.Tracer.Shutdown(ctx)
		return nil, err
	}
	if p.Logs, err = newLoggerProvider(res); err != nil {
		_ = p.Tracer.Shutdown(ctx)
		_ = p.Meter.Shutdown(ctx)
		return nil, err
	}
	p.Logger = otelslog.NewLogger(cfg.ServiceName, otelslog.WithLoggerProvider(p.Logs))

	otel.SetTracerProvider(p.Tracer)
	otel.SetMeterProvider(p.Meter)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return p, nil
}

// Shutdown flushes and stops every provider. Logs go last so shutdown
// messages from the other providers are still exported.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if err := p.Tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer provider: %w", err))
	}
	if err := p.Meter.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("meter provider: %w", err))
	}
	if err := p.Logs.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("logger provider: %w", err))
	}
	return errors.Join(errs...)
}

// newResource merges the SDK defaults, the service name and OTEL_RESOURCE_ATTRIBUTES.
// Environment attributes win over the configured name. The service resource
// carries no schema URL so it merges with any SDK default.
func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	svc, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create service resource: %w", err)
	}

	res, err := resource.Merge(resource.Default(), svc)
	if err != nil {
		// Partial resources and schema conflicts still produce a usable resource.
		if errors.Is(err, resource.ErrPartialResource) || errors.Is(err, resource.ErrSchemaURLConflict) {
			return res, nil
		}
		return nil, fmt.Errorf("failed to merge resources: %w", err)
	}
	return res, nil
}

// Exporters are created with context.Background so a cancelled startup
// context cannot wedge their shutdown.
func newTracerProvider(res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exp, err := otlptracehttp.New(context.Background(), otlptracehttp.WithTimeout(defaultExportTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)),
	), nil
}

func newMeterProvider(res *resource.Resource, interval time.Duration) (*sdkmetric.MeterProvider, error) {
	exp, err := otlpmetrichttp.New(context.Background(), otlpmetrichttp.WithTimeout(defaultExportTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))),
	), nil
}

func newLoggerProvider(res *resource.Resource) (*sdklog.LoggerProvider, error) {
	exp, err := otlploghttp.New(context.Background(), otlploghttp.WithTimeout(defaultExportTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}
	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp, sdklog.WithExportTimeout(5*time.Second))),
	), nil
}
