package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rezkam/awe/internal/domain"
)

// Row types mirror the SELECT lists below column for column so they can be
// scanned with pgx.RowToAddrOfStructByName.

type activityRow struct {
	ID            string   `db:"id"`
	Name          string   `db:"name"`
	Frequency     int      `db:"frequency"`
	Duration      float64  `db:"duration"`
	Criticality   string   `db:"criticality"`
	ActivityType  string   `db:"activity_type"`
	SubActivities []string `db:"sub_activities"`
}

func (r *activityRow) toDomain() *domain.Activity {
	return &domain.Activity{
		ID:            r.ID,
		Name:          r.Name,
		Frequency:     domain.Frequency(r.Frequency),
		Duration:      r.Duration,
		Criticality:   domain.Criticality(r.Criticality),
		Type:          domain.ActivityType(r.ActivityType),
		SubActivities: r.SubActivities,
	}
}

type actorRow struct {
	ID    string `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

func (r *actorRow) toDomain() *domain.Actor {
	return &domain.Actor{ID: r.ID, Name: r.Name, Email: r.Email}
}

type customerRow struct {
	ID    string `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

func (r *customerRow) toDomain() *domain.Customer {
	return &domain.Customer{ID: r.ID, Name: r.Name, Email: r.Email}
}

type holidayRow struct {
	HolidayDate time.Time `db:"holiday_date"`
	Name        string    `db:"name"`
}

type taskRow struct {
	ID              string     `db:"id"`
	Name            string     `db:"name"`
	ActivityID      string     `db:"activity_id"`
	CustomerID      string     `db:"customer_id"`
	CustomerName    string     `db:"customer_name"`
	ActorID         string     `db:"actor_id"`
	AssignedTo      string     `db:"assigned_to"`
	Initiator       string     `db:"initiator"`
	Reviewer        *string    `db:"reviewer"`
	ReviewerStatus  *string    `db:"reviewer_status"`
	Status          string     `db:"status"`
	Criticality     string     `db:"criticality"`
	ActivityType    string     `db:"activity_type"`
	Frequency       int        `db:"frequency"`
	Duration        float64    `db:"duration"`
	DueDate         time.Time  `db:"due_date"`
	ActualDate      *time.Time `db:"actual_date"`
	TimeTaken       *float64   `db:"time_taken"`
	Remarks         *string    `db:"remarks"`
	Link            *string    `db:"link"`
	CalendarEventID *string    `db:"calendar_event_id"`
	AssignedAt      time.Time  `db:"assigned_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (r *taskRow) toDomain() *domain.Task {
	t := &domain.Task{
		ID:              r.ID,
		Name:            r.Name,
		ActivityID:      r.ActivityID,
		CustomerID:      r.CustomerID,
		CustomerName:    r.CustomerName,
		ActorID:         r.ActorID,
		AssignedTo:      r.AssignedTo,
		Initiator:       r.Initiator,
		Reviewer:        r.Reviewer,
		ReviewerStatus:  r.ReviewerStatus,
		Status:          domain.TaskStatus(r.Status),
		Criticality:     domain.Criticality(r.Criticality),
		Type:            domain.ActivityType(r.ActivityType),
		Frequency:       domain.Frequency(r.Frequency),
		Duration:        r.Duration,
		DueDate:         domain.DateOf(r.DueDate),
		TimeTaken:       r.TimeTaken,
		Remarks:         r.Remarks,
		Link:            r.Link,
		CalendarEventID: r.CalendarEventID,
		AssignedAt:      r.AssignedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
	if r.ActualDate != nil {
		actual := domain.DateOf(*r.ActualDate)
		t.ActualDate = &actual
	}
	return t
}

type subTaskRow struct {
	ID        string    `db:"id"`
	TaskID    string    `db:"task_id"`
	Name      string    `db:"name"`
	Status    string    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *subTaskRow) toDomain() *domain.SubTask {
	return &domain.SubTask{
		ID:        r.ID,
		TaskID:    r.TaskID,
		Name:      r.Name,
		Status:    domain.SubTaskStatus(r.Status),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type reminderRow struct {
	ID          string      `db:"id"`
	TaskID      *string     `db:"task_id"`
	Kind        string      `db:"kind"`
	Recipient   string      `db:"recipient"`
	Subject     string      `db:"subject"`
	Body        string      `db:"body"`
	SendDate    time.Time   `db:"send_date"`
	SendTime    pgtype.Time `db:"send_time"`
	Status      string      `db:"status"`
	LastError   *string     `db:"last_error"`
	ProcessedAt *time.Time  `db:"processed_at"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (r *reminderRow) toDomain() *domain.ReminderEntry {
	e := &domain.ReminderEntry{
		ID:        r.ID,
		TaskID:    r.TaskID,
		Kind:      domain.ReminderKind(r.Kind),
		Recipient: r.Recipient,
		Subject:   r.Subject,
		Body:      r.Body,
		SendDate:  domain.DateOf(r.SendDate),
		SendTime:  clockFromPgTime(r.SendTime),
		Status:    domain.ReminderStatus(r.Status),
		LastError: r.LastError,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.ProcessedAt != nil {
		at := r.ProcessedAt.UTC()
		e.ProcessedAt = &at
	}
	return e
}

const microsPerMinute = int64(time.Minute / time.Microsecond)

// clockToPgTime converts a time of day to a TIME column value.
func clockToPgTime(c domain.ClockTime) pgtype.Time {
	return pgtype.Time{Microseconds: int64(c.Minutes()) * microsPerMinute, Valid: true}
}

// clockFromPgTime converts a TIME column value to a time of day. NULL maps to
// the default send time; seconds are dropped.
func clockFromPgTime(t pgtype.Time) domain.ClockTime {
	if !t.Valid {
		return domain.DefaultSendTime
	}
	minutes := int(t.Microseconds / microsPerMinute)
	return domain.ClockTime{Hour: minutes / 60, Minute: minutes % 60}
}

// dateParam converts an optional calendar date to a DATE parameter.
func dateParam(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := domain.DateOf(*t)
	return &d
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
