package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rezkam/awe/internal/application/analytics"
	"github.com/rezkam/awe/internal/application/assignment"
	"github.com/rezkam/awe/internal/application/catalog"
	"github.com/rezkam/awe/internal/application/holidays"
	"github.com/rezkam/awe/internal/application/messaging"
	"github.com/rezkam/awe/internal/application/worker"
	"github.com/rezkam/awe/internal/config"
	httpserver "github.com/rezkam/awe/internal/infrastructure/http"
	"github.com/rezkam/awe/internal/infrastructure/http/handler"
	"github.com/rezkam/awe/internal/infrastructure/observability"
	"github.com/rezkam/awe/internal/infrastructure/persistence"
)

func main() {
	if err := run(); err != nil {
		// slog may not be configured yet if config loading failed.
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}

	// Root context for normal operation, cancelled on SIGTERM/SIGINT.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Exporters are configured by OTEL_* variables.
	obs, err := observability.Setup(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
		LogLevel:    cfg.Observability.Level(),
	}, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to init observability: %w", err)
	}
	defer func() {
		// Bounded so an unreachable collector cannot hang exit.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to shutdown observability: %v\n", err)
		}
	}()
	slog.SetDefault(obs.Logger)

	slog.InfoContext(ctx, "starting awe server", "driver", cfg.Database.Driver)

	store, err := persistence.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	slog.InfoContext(ctx, "storage initialized", "dsn", maskPassword(cfg.Database.DSN))

	holidaySvc := holidays.NewService(store)
	catalogSvc := catalog.NewService(store)
	if err := loadReferenceData(ctx, cfg, holidaySvc, catalogSvc); err != nil {
		_ = store.Close()
		return err
	}

	mailer, err := provideSender(cfg.Mail, obs.Logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to configure mail: %w", err)
	}

	assignmentOpts := []assignment.Option{
		assignment.WithNotifier(mailer),
		assignment.WithSendTime(cfg.Scheduler.ClockTime()),
	}
	cal, err := provideCalendar(ctx, cfg.Calendar)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to configure calendar: %w", err)
	}
	if cal != nil {
		assignmentOpts = append(assignmentOpts, assignment.WithCalendar(cal))
	}

	archive, archiveCloser, err := provideArchive(ctx, cfg.Archive)
	if err != nil {
		_ = store.Close()
		return err
	}

	var analyticsOpts []analytics.Option
	if archive != nil {
		analyticsOpts = append(analyticsOpts, analytics.WithArchive(archive))
	}

	services := handler.Services{
		Assignments: assignment.NewService(store, assignmentOpts...),
		Analytics:   analytics.NewService(store, analyticsOpts...),
		Messaging:   messaging.NewService(store),
		Holidays:    holidaySvc,
		Catalog:     catalogSvc,
	}

	var dispatcher stopper
	if cfg.Dispatcher.InProcess {
		d := worker.New(store, mailer,
			worker.WithPollInterval(cfg.Dispatcher.PollInterval),
			worker.WithOperationTimeout(cfg.Dispatcher.OperationTimeout),
			worker.WithBatchSize(cfg.Dispatcher.BatchSize),
			worker.WithMeterProvider(obs.Meter),
		)
		d.Start(ctx)
		services.Dispatcher = d
		dispatcher = d
		slog.InfoContext(ctx, "reminder dispatcher running in-process")
	}

	cleanup := newCleanup(ctx, dispatcher, archiveCloser, store)
	defer cleanup()

	server := httpserver.NewAPIServer(handler.NewRouter(services), store, httpserver.ServerConfig{
		Host:              cfg.HTTP.Host,
		Port:              cfg.HTTP.Port,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MaxBodyBytes:      cfg.HTTP.MaxBodyBytes,
	})

	errResult := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errResult <- fmt.Errorf("failed to serve HTTP: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutting down")

		// The root context is already cancelled; drain with a fresh one.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.WarnContext(shutdownCtx, "HTTP server shutdown timed out", "error", err)
		}
		return nil
	case err := <-errResult:
		return err
	}
}

// loadReferenceData imports the holiday calendar and the catalog files when
// configured. Both imports upsert, so restarts are safe.
func loadReferenceData(ctx context.Context, cfg *config.ServerConfig, h *holidays.Service, c *catalog.Service) error {
	if cfg.HolidaysFile != "" {
		n, err := h.ImportFile(ctx, cfg.HolidaysFile)
		if err != nil {
			return fmt.Errorf("failed to import holidays: %w", err)
		}
		slog.InfoContext(ctx, "holidays imported", "file", cfg.HolidaysFile, "count", n)
	}
	if cfg.CatalogFile != "" {
		res, err := c.SeedFile(ctx, cfg.CatalogFile)
		if err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		slog.InfoContext(ctx, "catalog seeded",
			"file", cfg.CatalogFile,
			"activities", res.Activities,
			"actors", res.Actors,
			"customers", res.Customers,
		)
	}
	return nil
}
