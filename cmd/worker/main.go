package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rezkam/awe/internal/application/worker"
	"github.com/rezkam/awe/internal/config"
	"github.com/rezkam/awe/internal/infrastructure/mail"
	"github.com/rezkam/awe/internal/infrastructure/observability"
	"github.com/rezkam/awe/internal/infrastructure/persistence"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	serviceName := cfg.Observability.ServiceName
	if serviceName == "" {
		serviceName = observability.DefaultServiceName + "-worker"
	}
	obs, err := observability.Setup(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: serviceName,
		LogLevel:    cfg.Observability.Level(),
	}, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to init observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to shutdown observability: %v\n", err)
		}
	}()
	slog.SetDefault(obs.Logger)

	store, err := persistence.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	var sink worker.Sink = mail.NewLogSender(obs.Logger)
	if cfg.Mail.Enabled() {
		sink, err = mail.NewSMTPSender(mail.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			Timeout:  cfg.Mail.Timeout,
		})
		if err != nil {
			return fmt.Errorf("failed to configure mail: %w", err)
		}
	}

	d := worker.New(store, sink,
		worker.WithPollInterval(cfg.Dispatcher.PollInterval),
		worker.WithOperationTimeout(cfg.Dispatcher.OperationTimeout),
		worker.WithBatchSize(cfg.Dispatcher.BatchSize),
		worker.WithMeterProvider(obs.Meter),
	)

	slog.InfoContext(ctx, "starting awe worker", "driver", cfg.Database.Driver, "smtp", cfg.Mail.Enabled())
	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("dispatcher stopped: %w", err)
	}
	slog.Info("worker shut down gracefully")
	return nil
}
