// Package reminder plans queued notifications for tasks.
package reminder

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/awe/internal/domain"
	"github.com/rezkam/awe/internal/ptr"
)

// MaxDaysBefore caps how far ahead of the due date a reminder goes out.
const MaxDaysBefore = 7

// DaysBefore returns the reminder lead time of a task with the given duration
// in days: the whole number of days, at most MaxDaysBefore, and 1 for tasks of a
// day or less.
func DaysBefore(duration float64) int {
	if duration > 1 {
		return min(int(math.Floor(duration)), MaxDaysBefore)
	}
	return 1
}

// ReminderDate returns due minus DaysBefore(duration), moved forward to today when
// that day has already passed.
func ReminderDate(due time.Time, duration float64, today time.Time) time.Time {
	date := domain.DateOf(due).AddDate(0, 0, -DaysBefore(duration))
	return notBefore(date, today)
}

func notBefore(date, today time.Time) time.Time {
	if day := domain.DateOf(today); date.Before(day) {
		return day
	}
	return date
}

// Policy describes one notification to schedule for a task.
type Policy struct {
	// Now is the scheduling instant. Its calendar day is "today".
	Now time.Time

	Recipient string
	Kind      domain.ReminderKind // defaults to domain.ReminderKindReminder

	// SendTime defaults to domain.DefaultSendTime.
	SendTime *domain.ClockTime

	// Subject and Body override the generated text when non-empty.
	Subject string
	Body    string
}

// Schedule builds one Pending entry for task according to policy.
//
// The send date depends on the kind: Reminder goes out DaysBefore(duration) ahead
// of the due date, Due on the due date, Review and Message right away. No send
// date is ever before today. Schedule does not check for existing entries; callers
// must not invoke it twice for the same notification.
func Schedule(task *domain.Task, policy Policy) (*domain.ReminderEntry, error) {
	recipient := strings.TrimSpace(policy.Recipient)
	if recipient == "" {
		return nil, domain.ErrRecipientRequired
	}

	kind := policy.Kind
	if kind == "" {
		kind = domain.ReminderKindReminder
	}

	var sendDate time.Time
	switch kind {
	case domain.ReminderKindReminder:
		sendDate = ReminderDate(task.DueDate, task.Duration, policy.Now)
	case domain.ReminderKindDue:
		sendDate = notBefore(domain.DateOf(task.DueDate), policy.Now)
	case domain.ReminderKindReview, domain.ReminderKindMessage:
		sendDate = domain.DateOf(policy.Now)
	default:
		return nil, fmt.Errorf("unknown reminder kind %q", kind)
	}

	subject := policy.Subject
	if subject == "" {
		subject = Subject(kind, task)
	}

	body := policy.Body
	if body == "" {
		var err error
		body, err = defaultBody(kind, task, recipient)
		if err != nil {
			return nil, err
		}
	}

	entry, err := newEntry(kind, recipient, subject, body, sendDate, policy.SendTime, policy.Now)
	if err != nil {
		return nil, err
	}
	if task.ID != "" {
		entry.TaskID = ptr.To(task.ID)
	}
	return entry, nil
}

// ScheduleMessage builds a Pending free-form message entry for one recipient on
// date. A date that has already passed is moved forward to today.
func ScheduleMessage(date time.Time, recipient, body string, now time.Time, sendTime *domain.ClockTime) (*domain.ReminderEntry, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, domain.ErrRecipientRequired
	}
	if strings.TrimSpace(body) == "" {
		return nil, domain.ErrMessageRequired
	}
	sendDate := notBefore(domain.DateOf(date), now)
	return newEntry(domain.ReminderKindMessage, recipient, SubjectScheduledMessage, body, sendDate, sendTime, now)
}

func newEntry(kind domain.ReminderKind, recipient, subject, body string, sendDate time.Time, sendTime *domain.ClockTime, now time.Time) (*domain.ReminderEntry, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate reminder ID: %w", err)
	}
	return &domain.ReminderEntry{
		ID:        id.String(),
		Kind:      kind,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		SendDate:  sendDate,
		SendTime:  ptr.Deref(sendTime, domain.DefaultSendTime),
		Status:    domain.ReminderStatusPending,
		CreatedAt: now,
	}, nil
}

func defaultBody(kind domain.ReminderKind, task *domain.Task, recipient string) (string, error) {
	data := bodyData{Task: task, Recipient: recipient, Due: task.DueDate.Format(domain.DateLayout)}
	switch kind {
	case domain.ReminderKindReminder:
		return render("reminder", data)
	case domain.ReminderKindDue:
		return render("due", data)
	case domain.ReminderKindReview:
		return render("review", data)
	default:
		return DefaultBody(task), nil
	}
}

// PlanAssignment returns the notifications queued when a task is assigned:
// a reminder and a due-day notice to the assignee, and a review notice to the
// reviewer. Actors without an email address get nothing. Each is an independent
// entry.
func PlanAssignment(task *domain.Task, assignee domain.Actor, reviewer *domain.Actor, now time.Time, sendTime *domain.ClockTime) ([]*domain.ReminderEntry, error) {
	var policies []Policy
	if strings.TrimSpace(assignee.Email) != "" {
		policies = append(policies,
			Policy{Now: now, Recipient: assignee.Email, Kind: domain.ReminderKindReminder, SendTime: sendTime},
			Policy{Now: now, Recipient: assignee.Email, Kind: domain.ReminderKindDue, SendTime: sendTime},
		)
	}
	if reviewer != nil && strings.TrimSpace(reviewer.Email) != "" {
		policies = append(policies, Policy{
			Now:       now,
			Recipient: reviewer.Email,
			Kind:      domain.ReminderKindReview,
			SendTime:  sendTime,
		})
	}

	entries := make([]*domain.ReminderEntry, 0, len(policies))
	for _, p := range policies {
		entry, err := Schedule(task, p)
		if err != nil {
			return nil, fmt.Errorf("failed to schedule %s notification: %w", p.Kind, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
