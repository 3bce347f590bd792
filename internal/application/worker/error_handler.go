package worker

import (
	"context"
	"log/slog"

	"github.com/rezkam/awe/internal/domain"
)

// ErrorHandler receives delivery failures for telemetry and alerting.
// It never changes the outcome: failed entries are marked Failed and not retried.
type ErrorHandler interface {
	// HandleError is called when the sink returns an error.
	HandleError(ctx context.Context, entry *domain.ReminderEntry, err error)

	// HandlePanic is called when the sink panics. Includes panic value and stack trace.
	HandlePanic(ctx context.Context, entry *domain.ReminderEntry, panicVal any, stackTrace string)
}

// DefaultErrorHandler logs errors and panics with structured logging.
type DefaultErrorHandler struct{}

func (h *DefaultErrorHandler) HandleError(ctx context.Context, entry *domain.ReminderEntry, err error) {
	slog.ErrorContext(ctx, "reminder delivery failed",
		slog.String("reminder_id", entry.ID),
		slog.String("kind", string(entry.Kind)),
		slog.String("recipient", entry.Recipient),
		slog.String("error", err.Error()),
	)
}

func (h *DefaultErrorHandler) HandlePanic(ctx context.Context, entry *domain.ReminderEntry, panicVal any, stackTrace string) {
	slog.ErrorContext(ctx, "reminder delivery panicked",
		slog.String("reminder_id", entry.ID),
		slog.String("kind", string(entry.Kind)),
		slog.Any("panic_value", panicVal),
		slog.String("stack_trace", stackTrace),
	)
}
