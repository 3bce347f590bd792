package main

import (
	"context"
	"io"
	"log/slog"
)

// stopper is the part of the dispatcher the shutdown sequence needs.
type stopper interface {
	Stop() bool
}

// newCleanup builds the shutdown hook: stop the in-process dispatcher so no
// delivery starts mid-teardown, then release the archive and the store.
// Nil arguments are skipped.
func newCleanup(ctx context.Context, dispatcher stopper, archive, store io.Closer) func() {
	return func() {
		if dispatcher != nil && dispatcher.Stop() {
			slog.InfoContext(ctx, "dispatcher stopped")
		}

		if archive != nil {
			if err := archive.Close(); err != nil {
				slog.ErrorContext(ctx, "failed to close archive", slog.String("error", err.Error()))
			}
		}

		if store != nil {
			if err := store.Close(); err != nil {
				slog.ErrorContext(ctx, "failed to close store", slog.String("error", err.Error()))
			}
		}
	}
}
