package handler

import (
	"time"

	"github.com/rezkam/awe/internal/domain"
)

// JSON views of domain objects. Calendar dates are YYYY-MM-DD; instants are RFC 3339.

type TaskDTO struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	ActivityID     string   `json:"activity_id"`
	CustomerID     string   `json:"customer_id"`
	CustomerName   string   `json:"customer_name"`
	AssignedTo     string   `json:"assigned_to"`
	Initiator      string   `json:"initiator"`
	Reviewer       *string  `json:"reviewer,omitempty"`
	ReviewerStatus *string  `json:"reviewer_status,omitempty"`
	Status         string   `json:"status"`
	DerivedStatus  string   `json:"derived_status,omitempty"`
	Criticality    string   `json:"criticality"`
	ActivityType   string   `json:"activity_type"`
	Frequency      int      `json:"frequency"`
	FrequencyLabel string   `json:"frequency_label"`
	Duration       float64  `json:"duration"`
	DueDate        string   `json:"due_date"`
	ActualDate     *string  `json:"actual_date,omitempty"`
	TimeTaken      *float64 `json:"time_taken,omitempty"`
	Remarks        *string  `json:"remarks,omitempty"`
	Link           *string  `json:"link,omitempty"`
	CalendarEvent  *string  `json:"calendar_event_id,omitempty"`

	AssignedAt time.Time `json:"assigned_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type SubTaskDTO struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ReminderDTO struct {
	ID          string     `json:"id"`
	TaskID      *string    `json:"task_id,omitempty"`
	Kind        string     `json:"kind"`
	Recipient   string     `json:"recipient"`
	Subject     string     `json:"subject"`
	Body        string     `json:"body,omitempty"`
	SendDate    string     `json:"send_date"`
	SendTime    string     `json:"send_time"`
	Status      string     `json:"status"`
	LastError   *string    `json:"last_error,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

type DiaryEntryDTO struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	StartedAt time.Time `json:"start"`
	EndedAt   time.Time `json:"end"`
	Hours     float64   `json:"hours"`
	Note      *string   `json:"note,omitempty"`
}

type HolidayDTO struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

type ActivityDTO struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Frequency     int      `json:"frequency"`
	Duration      float64  `json:"duration"`
	Criticality   string   `json:"criticality"`
	ActivityType  string   `json:"activity_type"`
	SubActivities []string `json:"sub_activities"`
}

type PartyDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func dateString(t time.Time) string {
	return domain.DateOf(t).Format(domain.DateLayout)
}

func datePtrString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := dateString(*t)
	return &s
}

// MapTaskToDTO converts a task and its derived status. An empty derived
// status is omitted.
func MapTaskToDTO(t *domain.Task, derived domain.DerivedStatus) TaskDTO {
	return TaskDTO{
		ID:             t.ID,
		Name:           t.Name,
		ActivityID:     t.ActivityID,
		CustomerID:     t.CustomerID,
		CustomerName:   t.CustomerName,
		AssignedTo:     t.AssignedTo,
		Initiator:      t.Initiator,
		Reviewer:       t.Reviewer,
		ReviewerStatus: t.ReviewerStatus,
		Status:         string(t.Status),
		DerivedStatus:  string(derived),
		Criticality:    string(t.Criticality),
		ActivityType:   t.Type.Label(),
		Frequency:      int(t.Frequency),
		FrequencyLabel: t.Frequency.String(),
		Duration:       t.Duration,
		DueDate:        dateString(t.DueDate),
		ActualDate:     datePtrString(t.ActualDate),
		TimeTaken:      t.TimeTaken,
		Remarks:        t.Remarks,
		Link:           t.Link,
		CalendarEvent:  t.CalendarEventID,
		AssignedAt:     t.AssignedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func mapViews(views []*domain.TaskView) []TaskDTO {
	out := make([]TaskDTO, 0, len(views))
	for _, v := range views {
		out = append(out, MapTaskToDTO(v.Task, v.Derived))
	}
	return out
}

func mapSubTasks(subtasks []*domain.SubTask) []SubTaskDTO {
	out := make([]SubTaskDTO, 0, len(subtasks))
	for _, st := range subtasks {
		out = append(out, SubTaskDTO{
			ID:        st.ID,
			TaskID:    st.TaskID,
			Name:      st.Name,
			Status:    string(st.Status),
			UpdatedAt: st.UpdatedAt,
		})
	}
	return out
}

func mapReminders(entries []*domain.ReminderEntry) []ReminderDTO {
	out := make([]ReminderDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, ReminderDTO{
			ID:          e.ID,
			TaskID:      e.TaskID,
			Kind:        string(e.Kind),
			Recipient:   e.Recipient,
			Subject:     e.Subject,
			Body:        e.Body,
			SendDate:    dateString(e.SendDate),
			SendTime:    e.SendTime.String(),
			Status:      string(e.Status),
			LastError:   e.LastError,
			ProcessedAt: e.ProcessedAt,
		})
	}
	return out
}

func mapHolidays(hs []domain.Holiday) []HolidayDTO {
	out := make([]HolidayDTO, 0, len(hs))
	for _, h := range hs {
		out = append(out, HolidayDTO{Date: dateString(h.Date), Name: h.Name})
	}
	return out
}

func mapActivity(a *domain.Activity) ActivityDTO {
	subs := a.SubActivities
	if subs == nil {
		subs = []string{}
	}
	return ActivityDTO{
		ID:            a.ID,
		Name:          a.Name,
		Frequency:     int(a.Frequency),
		Duration:      a.Duration,
		Criticality:   string(a.Criticality),
		ActivityType:  a.Type.Label(),
		SubActivities: subs,
	}
}
