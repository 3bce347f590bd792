package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/rezkam/awe/internal/application/analytics"
	"github.com/rezkam/awe/internal/config"
	"github.com/rezkam/awe/internal/infrastructure/gcal"
	"github.com/rezkam/awe/internal/infrastructure/mail"
	"github.com/rezkam/awe/internal/storage/fs"
	"github.com/rezkam/awe/internal/storage/gcs"
)

// sender delivers mail. It satisfies assignment.Notifier and worker.Sink.
type sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// provideSender returns an SMTP sender, or a sender that only logs when no
// relay is configured.
func provideSender(cfg config.MailConfig, logger *slog.Logger) (sender, error) {
	if !cfg.Enabled() {
		return mail.NewLogSender(logger), nil
	}
	return mail.NewSMTPSender(mail.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		Timeout:  cfg.Timeout,
	})
}

// provideArchive returns the snapshot archive and, for backends holding
// a client, its closer. Both are nil when snapshots are disabled.
func provideArchive(ctx context.Context, cfg config.ArchiveConfig) (analytics.Archive, io.Closer, error) {
	switch cfg.Backend {
	case config.ArchiveFS:
		store, err := fs.NewStore(cfg.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open archive directory: %w", err)
		}
		return store, nil, nil
	case config.ArchiveGCS:
		store, err := gcs.NewStore(ctx, cfg.Bucket, cfg.Prefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open archive bucket: %w", err)
		}
		return store, store, nil
	default:
		return nil, nil, nil
	}
}

// provideCalendar returns nil when calendar booking is not configured.
func provideCalendar(ctx context.Context, cfg config.CalendarConfig) (*gcal.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	return gcal.NewClient(ctx, gcal.Config{
		CredentialsFile: cfg.CredentialsFile,
		TokenFile:       cfg.TokenFile,
		CalendarID:      cfg.CalendarID,
	})
}

// maskPassword masks the password in a connection string for logging.
// SQLite paths come back unchanged.
func maskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil {
		return "[REDACTED]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxxx")
		}
	}
	return u.String()
}
