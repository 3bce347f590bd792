package worker

import (
	"context"
	"time"

	"github.com/rezkam/awe/internal/domain"
)

// Repository defines storage operations for the reminder dispatcher.
type Repository interface {
	// FindPendingReminders returns Pending entries with a send date on or before
	// through, oldest first, at most limit of them. The time of day is not checked;
	// callers filter with ReminderEntry.DueAt.
	FindPendingReminders(ctx context.Context, through time.Time, limit int) ([]*domain.ReminderEntry, error)

	// MarkReminder moves a Pending entry to status and records the attempt.
	// lastError is nil for Sent.
	// Returns domain.ErrReminderNotFound if the entry doesn't exist and
	// domain.ErrReminderFinalized if it already left Pending.
	MarkReminder(ctx context.Context, id string, status domain.ReminderStatus, lastError *string, at time.Time) error
}

// Sink delivers one notification. A returned error marks the entry Failed.
type Sink interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
