package assignment

import (
	"context"
	"time"

	"github.com/rezkam/awe/internal/domain"
)

// Repository defines storage operations for assigning activities and tracking tasks.
type Repository interface {
	// === Catalog Lookups ===

	// FindActivity returns domain.ErrActivityNotFound if the activity doesn't exist.
	FindActivity(ctx context.Context, id string) (*domain.Activity, error)

	// FindActorByName returns domain.ErrActorNotFound if no actor has that name.
	FindActorByName(ctx context.Context, name string) (*domain.Actor, error)

	// FindCustomer returns domain.ErrCustomerNotFound if the customer doesn't exist.
	FindCustomer(ctx context.Context, id string) (*domain.Customer, error)

	// ListHolidays returns the whole holiday table.
	ListHolidays(ctx context.Context) ([]domain.Holiday, error)

	// === Assignment and Task Operations ===

	// AssignmentExists reports whether the activity is already assigned to the customer.
	AssignmentExists(ctx context.Context, customerID, activityID string) (bool, error)

	// CreateAssignment returns domain.ErrAlreadyAssigned on a duplicate customer and activity.
	CreateAssignment(ctx context.Context, a *domain.Assignment) error

	CreateTask(ctx context.Context, task *domain.Task) error

	// FindTask returns domain.ErrTaskNotFound if the task doesn't exist.
	FindTask(ctx context.Context, id string) (*domain.Task, error)

	// ListTasks returns tasks matching filter ordered by due date, then ID.
	ListTasks(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error)

	// SaveTask writes the mutable fields of task: status, actual date, time taken,
	// remarks, reviewer status, link, calendar event ID and updated time.
	// Returns domain.ErrTaskNotFound if the task doesn't exist.
	SaveTask(ctx context.Context, task *domain.Task) error

	// === Subtasks and Diary ===

	CreateSubTasks(ctx context.Context, subtasks []*domain.SubTask) error
	ListSubTasks(ctx context.Context, taskID string) ([]*domain.SubTask, error)

	// UpdateSubTaskStatus returns domain.ErrSubTaskNotFound if the subtask doesn't exist.
	UpdateSubTaskStatus(ctx context.Context, id string, status domain.SubTaskStatus, at time.Time) (*domain.SubTask, error)

	CreateDiaryEntry(ctx context.Context, entry *domain.DiaryEntry) error

	// TotalHours sums the diary hours logged against a task.
	TotalHours(ctx context.Context, taskID string) (float64, error)

	// === Reminders ===

	// CreateReminders inserts entries, silently skipping any that duplicate an existing
	// (task, kind, send date, recipient). Returns the number inserted.
	CreateReminders(ctx context.Context, entries []*domain.ReminderEntry) (int, error)

	// Atomic runs fn in one transaction. All writes made through tx commit together
	// or not at all.
	Atomic(ctx context.Context, fn func(tx Repository) error) error
}

// Notifier delivers a message immediately.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// CalendarEvent is an entry placed on the assignee's calendar.
type CalendarEvent struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendee    string
}

// Calendar books task events on an external calendar.
type Calendar interface {
	// CreateEvent returns the external event ID.
	CreateEvent(ctx context.Context, event CalendarEvent) (string, error)
}
