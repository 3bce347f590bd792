package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Activity is a template for a recurring compliance or audit duty.
// Assigning it to a customer produces a Task.
type Activity struct {
	ID          string
	Name        string
	Frequency   Frequency
	Duration    float64 // standard effort in days
	Criticality Criticality
	Type        ActivityType

	// SubActivities are checklist item names copied onto each task as subtasks.
	SubActivities []string
}

// Actor is a user (auditor or admin) that can be assigned or review tasks.
type Actor struct {
	ID    string
	Name  string
	Email string
}

// Customer is the party an activity is performed for.
type Customer struct {
	ID    string
	Name  string
	Email string
}

// Assignment records that an activity is assigned to a customer.
// At most one exists per customer and activity.
type Assignment struct {
	CustomerID string
	ActivityID string
	ActorID    string
	Remarks    *string
	CreatedAt  time.Time
}

// Task is one concrete instance of an activity assigned to an actor for a customer.
type Task struct {
	ID           string
	Name         string
	ActivityID   string
	CustomerID   string
	CustomerName string
	ActorID      string
	AssignedTo   string
	Initiator    string

	// Reviewer is the actor name that reviews the task, if any.
	Reviewer       *string
	ReviewerStatus *string

	Status      TaskStatus
	Criticality Criticality
	Type        ActivityType
	Frequency   Frequency
	Duration    float64 // estimated effort in days

	// DueDate and ActualDate are calendar dates (see DateOf).
	DueDate    time.Time
	ActualDate *time.Time // set only when Status moves to Completed

	TimeTaken       *float64 // hours, from diary entries
	Remarks         *string
	Link            *string
	CalendarEventID *string

	AssignedAt time.Time
	UpdatedAt  time.Time
}

// IsCompleted reports whether the raw status is Completed.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// TransitionTo applies a raw status change and keeps ActualDate consistent with it.
// Moving into Completed stamps today's date, never earlier than the assignment day.
// Moving out of Completed clears it. Returns true when the status changed.
func (t *Task) TransitionTo(status TaskStatus, today time.Time) bool {
	if t.Status == status {
		return false
	}
	wasCompleted := t.IsCompleted()
	t.Status = status

	switch {
	case status == TaskStatusCompleted:
		actual := DateOf(today)
		if !t.AssignedAt.IsZero() {
			if assigned := DateOf(t.AssignedAt); actual.Before(assigned) {
				actual = assigned
			}
		}
		t.ActualDate = &actual
	case wasCompleted:
		t.ActualDate = nil
	}
	return true
}

// NewTaskID builds the task identifier from the activity, customer and due date,
// joined by "-": activity ID, customer ID, then the due date as ddmmyyyy.
// Catalog IDs may not contain "-", so distinct triples never share an ID.
func NewTaskID(activityID, customerID string, due time.Time) string {
	return activityID + "-" + customerID + "-" + due.Format("02012006")
}

// SubTask is a checklist item under a task.
type SubTask struct {
	ID        string
	TaskID    string
	Name      string
	Status    SubTaskStatus
	UpdatedAt time.Time
}

// Holiday is a calendar date excluded from working days.
type Holiday struct {
	Date time.Time
	Name string
}

// ReminderEntry is a queued notification.
// Created Pending by the scheduler; moved to Sent or Failed exactly once by the dispatcher.
type ReminderEntry struct {
	ID     string
	TaskID *string // nil for free-form scheduled messages
	Kind   ReminderKind

	Recipient string
	Subject   string
	Body      string

	SendDate time.Time // calendar date
	SendTime ClockTime

	Status      ReminderStatus
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

// DueAt reports whether the entry should go out at now.
// An entry from an earlier day is due regardless of its time of day.
func (r *ReminderEntry) DueAt(now time.Time) bool {
	today := DateOf(now)
	sendDate := DateOf(r.SendDate)
	if sendDate.Before(today) {
		return true
	}
	return sendDate.Equal(today) && !r.SendTime.After(ClockOf(now))
}

// DedupeKey identifies the notification an entry stands for. Two entries with
// the same key are the same notification and storage keeps only the first.
// Task entries are keyed by task, kind, send date and recipient; free-form
// messages by a digest of their text instead of the task.
func (r *ReminderEntry) DedupeKey() string {
	var owner string
	if r.TaskID != nil {
		owner = *r.TaskID
	} else {
		sum := sha256.Sum256([]byte(r.Subject + "\x00" + r.Body))
		owner = "msg:" + hex.EncodeToString(sum[:8])
	}
	return strings.Join([]string{
		owner,
		string(r.Kind),
		DateOf(r.SendDate).Format(DateLayout),
		strings.ToLower(r.Recipient),
	}, "|")
}

// DiaryEntry is a block of time an actor logged against a task.
type DiaryEntry struct {
	ID        string
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Note      *string
}

// Hours returns the logged duration in hours.
func (d *DiaryEntry) Hours() float64 {
	return d.EndedAt.Sub(d.StartedAt).Hours()
}
