// Package assignment assigns activities to customers and tracks the resulting tasks.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/awe/internal/calendar"
	"github.com/rezkam/awe/internal/classify"
	"github.com/rezkam/awe/internal/domain"
	"github.com/rezkam/awe/internal/ptr"
	"github.com/rezkam/awe/internal/recurring"
	"github.com/rezkam/awe/internal/reminder"
)

// Calendar events run for an hour from this time on the due date.
var eventStart = domain.ClockTime{Hour: 9}

const eventLength = time.Hour

// Service provides business logic for assignments and tasks.
type Service struct {
	repo     Repository
	notifier Notifier
	calendar Calendar
	now      func() time.Time
	sendTime domain.ClockTime
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithNotifier enables immediate assignment and status mails.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithCalendar enables calendar events for new tasks.
func WithCalendar(c Calendar) Option {
	return func(s *Service) {
		s.calendar = c
	}
}

// WithSendTime sets the time of day queued reminders go out.
func WithSendTime(t domain.ClockTime) Option {
	return func(s *Service) {
		s.sendTime = t
	}
}

// NewService creates an assignment service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		now:      time.Now,
		sendTime: domain.DefaultSendTime,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AssignRequest assigns an activity to a customer.
type AssignRequest struct {
	ActivityID string
	CustomerID string
	AssignedTo string // actor name
	Reviewer   string // optional actor name
	Initiator  string

	// Frequency overrides the activity's cadence code. Empty or "0" keeps the activity's.
	Frequency string

	// Status defaults to Yet to Start.
	Status  string
	Remarks *string
	Link    *string
}

// AssignResult is everything created by one assignment.
type AssignResult struct {
	Task      *domain.Task
	Derived   domain.DerivedStatus
	SubTasks  []*domain.SubTask
	Reminders []*domain.ReminderEntry

	// Notified is true when the new-task mail went out.
	Notified bool
}

// Assign creates the assignment, its task, subtasks and queued reminders in one
// transaction. Calendar booking and the new-task mail happen after commit and never
// fail the assignment.
func (s *Service) Assign(ctx context.Context, req AssignRequest) (*AssignResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	now := s.now()

	activity, err := s.repo.FindActivity(ctx, req.ActivityID)
	if err != nil {
		return nil, err
	}
	assignee, err := s.repo.FindActorByName(ctx, req.AssignedTo)
	if err != nil {
		return nil, err
	}
	var reviewer *domain.Actor
	if name := strings.TrimSpace(req.Reviewer); name != "" {
		reviewer, err = s.repo.FindActorByName(ctx, name)
		if errors.Is(err, domain.ErrActorNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrReviewerNotFound, name)
		}
		if err != nil {
			return nil, err
		}
	}
	customer, err := s.repo.FindCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.AssignmentExists(ctx, customer.ID, activity.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing assignment: %w", err)
	}
	if exists {
		return nil, domain.ErrAlreadyAssigned
	}

	freq, err := resolveFrequency(req.Frequency, activity.Frequency)
	if err != nil {
		return nil, err
	}

	status := domain.TaskStatusYetToStart
	if req.Status != "" {
		if status, err = domain.NewTaskStatus(req.Status); err != nil {
			return nil, err
		}
	}

	holidays, err := s.repo.ListHolidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}
	due := recurring.NextDueDate(int(freq), now)
	due = calendar.AdjustOrKeep(ctx, due, string(activity.Criticality), calendar.HolidaySetOf(holidays))

	task := &domain.Task{
		ID:           domain.NewTaskID(activity.ID, customer.ID, due),
		Name:         activity.Name,
		ActivityID:   activity.ID,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		ActorID:      assignee.ID,
		AssignedTo:   assignee.Name,
		Initiator:    req.Initiator,
		Status:       domain.TaskStatusYetToStart,
		Criticality:  activity.Criticality,
		Type:         activity.Type,
		Frequency:    freq,
		Duration:     activity.Duration,
		DueDate:      due,
		Remarks:      req.Remarks,
		Link:         req.Link,
		AssignedAt:   now,
		UpdatedAt:    now,
	}
	if reviewer != nil {
		task.Reviewer = ptr.To(reviewer.Name)
	}
	task.TransitionTo(status, now)

	subtasks, err := newSubTasks(task.ID, activity.SubActivities, now)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(assignee.Email) == "" {
		slog.WarnContext(ctx, "assignee has no email, skipping reminders",
			"task_id", task.ID,
			"assigned_to", assignee.Name)
	}
	sendTime := s.sendTime
	reminders, err := reminder.PlanAssignment(task, *assignee, reviewer, now, &sendTime)
	if err != nil {
		slog.WarnContext(ctx, "failed to plan reminders", "task_id", task.ID, "error", err)
		reminders = nil
	}

	err = s.repo.Atomic(ctx, func(tx Repository) error {
		if err := tx.CreateAssignment(ctx, &domain.Assignment{
			CustomerID: customer.ID,
			ActivityID: activity.ID,
			ActorID:    assignee.ID,
			Remarks:    req.Remarks,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		if err := tx.CreateTask(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		if len(subtasks) > 0 {
			if err := tx.CreateSubTasks(ctx, subtasks); err != nil {
				return fmt.Errorf("failed to create subtasks: %w", err)
			}
		}
		if len(reminders) == 0 {
			return nil
		}
		if _, err := tx.CreateReminders(ctx, reminders); err != nil {
			return fmt.Errorf("failed to create reminders: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "activity assigned",
		"task_id", task.ID,
		"activity_id", activity.ID,
		"customer_id", customer.ID,
		"assigned_to", assignee.Name,
		"due_date", due.Format(domain.DateLayout),
		"reminders", len(reminders))

	s.bookCalendar(ctx, task, assignee.Email)

	return &AssignResult{
		Task:      task,
		Derived:   classify.Task(task, now),
		SubTasks:  subtasks,
		Reminders: reminders,
		Notified:  s.notifyAssigned(ctx, task, assignee.Email),
	}, nil
}

func (r AssignRequest) validate() error {
	switch {
	case strings.TrimSpace(r.ActivityID) == "":
		return fmt.Errorf("%w: activity_id", domain.ErrRequiredField)
	case strings.TrimSpace(r.CustomerID) == "":
		return fmt.Errorf("%w: customer_id", domain.ErrRequiredField)
	case strings.TrimSpace(r.AssignedTo) == "":
		return fmt.Errorf("%w: assigned_to", domain.ErrRequiredField)
	}
	return nil
}

// resolveFrequency prefers the requested code and falls back to the activity's
// when the request leaves it empty or zero.
func resolveFrequency(requested string, fallback domain.Frequency) (domain.Frequency, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == "0" {
		if !fallback.Valid() {
			return 0, fmt.Errorf("%w: %d", domain.ErrInvalidFrequency, int(fallback))
		}
		return fallback, nil
	}
	return domain.ParseFrequency(requested)
}

func newSubTasks(taskID string, names []string, now time.Time) ([]*domain.SubTask, error) {
	subtasks := make([]*domain.SubTask, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate subtask ID: %w", err)
		}
		subtasks = append(subtasks, &domain.SubTask{
			ID:        id.String(),
			TaskID:    taskID,
			Name:      name,
			Status:    domain.SubTaskStatusPending,
			UpdatedAt: now,
		})
	}
	return subtasks, nil
}

func (s *Service) bookCalendar(ctx context.Context, task *domain.Task, attendee string) {
	if s.calendar == nil {
		return
	}
	start := eventStart.On(task.DueDate)
	eventID, err := s.calendar.CreateEvent(ctx, CalendarEvent{
		Summary:     fmt.Sprintf("%s - %s", task.Name, task.CustomerName),
		Description: reminder.DefaultBody(task),
		Start:       start,
		End:         start.Add(eventLength),
		Attendee:    attendee,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to create calendar event", "task_id", task.ID, "error", err)
		return
	}

	task.CalendarEventID = ptr.To(eventID)
	if err := s.repo.SaveTask(ctx, task); err != nil {
		slog.WarnContext(ctx, "failed to store calendar event ID",
			"task_id", task.ID,
			"event_id", eventID,
			"error", err)
	}
}

func (s *Service) notifyAssigned(ctx context.Context, task *domain.Task, recipient string) bool {
	if s.notifier == nil || recipient == "" {
		return false
	}
	msg, err := reminder.AssignedMessage(task, recipient)
	if err != nil {
		slog.WarnContext(ctx, "failed to render assignment mail", "task_id", task.ID, "error", err)
		return false
	}
	if err := s.notifier.Send(ctx, msg.Recipient, msg.Subject, msg.Body); err != nil {
		slog.WarnContext(ctx, "failed to send assignment mail", "task_id", task.ID, "error", err)
		return false
	}
	return true
}

// GetTask returns a task with its derived status.
func (s *Service) GetTask(ctx context.Context, id string) (*domain.TaskView, error) {
	if id == "" {
		return nil, domain.ErrTaskNotFound
	}
	task, err := s.repo.FindTask(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, task), nil
}

// ListTasksRequest selects tasks for display.
type ListTasksRequest struct {
	Filter  domain.TaskFilter
	Period  classify.Period
	Derived []domain.DerivedStatus // keep only these buckets when non-empty
}

// ListTasks returns matching tasks with their derived status.
func (s *Service) ListTasks(ctx context.Context, req ListTasksRequest) ([]*domain.TaskView, error) {
	now := s.now()
	filter := req.Filter
	req.Period.Apply(&filter, now)

	tasks, err := s.repo.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	views := make([]*domain.TaskView, 0, len(tasks))
	for task, derived := range classify.ClassifyAll(slices.Values(tasks), now) {
		if len(req.Derived) > 0 && !slices.Contains(req.Derived, derived) {
			continue
		}
		views = append(views, &domain.TaskView{Task: task, Derived: derived})
	}
	return views, nil
}

func (s *Service) view(ctx context.Context, task *domain.Task) *domain.TaskView {
	if err := classify.CheckIntegrity(task.Status, task.ActualDate); err != nil {
		slog.WarnContext(ctx, "task classified as unknown", "task_id", task.ID, "error", err)
	}
	return &domain.TaskView{Task: task, Derived: classify.Task(task, s.now())}
}

// UpdateTask applies a partial update. A status change keeps the actual date in
// step with the status, records the logged hours on completion and notifies the
// assignee.
func (s *Service) UpdateTask(ctx context.Context, params domain.UpdateTaskParams) (*domain.TaskView, error) {
	if params.TaskID == "" {
		return nil, domain.ErrTaskNotFound
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	task, err := s.repo.FindTask(ctx, params.TaskID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	previous := task.Status

	var changed bool
	if params.Has("status") {
		changed = task.TransitionTo(*params.Status, now)
	}
	if params.Has("remarks") {
		task.Remarks = params.Remarks
	}
	if params.Has("reviewer_status") {
		task.ReviewerStatus = params.ReviewerStatus
	}
	if params.Has("link") {
		task.Link = params.Link
	}

	if changed && task.IsCompleted() {
		hours, err := s.repo.TotalHours(ctx, task.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to sum logged hours: %w", err)
		}
		if hours > 0 {
			task.TimeTaken = ptr.To(hours)
		}
	}
	task.UpdatedAt = now

	if err := s.repo.SaveTask(ctx, task); err != nil {
		return nil, err
	}

	if changed {
		slog.InfoContext(ctx, "task status changed",
			"task_id", task.ID,
			"from", previous,
			"to", task.Status)
		s.notifyStatus(ctx, task, previous)
	}
	return s.view(ctx, task), nil
}

func (s *Service) notifyStatus(ctx context.Context, task *domain.Task, previous domain.TaskStatus) {
	if s.notifier == nil {
		return
	}
	actor, err := s.repo.FindActorByName(ctx, task.AssignedTo)
	if err != nil || actor.Email == "" {
		slog.WarnContext(ctx, "no recipient for status mail", "task_id", task.ID, "error", err)
		return
	}
	msg, err := reminder.StatusChangedMessage(task, previous, actor.Email)
	if err != nil {
		slog.WarnContext(ctx, "failed to render status mail", "task_id", task.ID, "error", err)
		return
	}
	if err := s.notifier.Send(ctx, msg.Recipient, msg.Subject, msg.Body); err != nil {
		slog.WarnContext(ctx, "failed to send status mail", "task_id", task.ID, "error", err)
	}
}

// ListSubTasks returns the checklist of a task.
func (s *Service) ListSubTasks(ctx context.Context, taskID string) ([]*domain.SubTask, error) {
	if _, err := s.repo.FindTask(ctx, taskID); err != nil {
		return nil, err
	}
	return s.repo.ListSubTasks(ctx, taskID)
}

// UpdateSubTask sets the status of a checklist item.
func (s *Service) UpdateSubTask(ctx context.Context, id, status string) (*domain.SubTask, error) {
	if id == "" {
		return nil, domain.ErrSubTaskNotFound
	}
	st, err := domain.NewSubTaskStatus(status)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateSubTaskStatus(ctx, id, st, s.now())
}

// LogTimeRequest records time spent on a task.
type LogTimeRequest struct {
	TaskID string
	Start  time.Time
	End    time.Time
	Note   *string
}

// LogTime adds a diary entry. Logging against a completed task refreshes its time taken.
func (s *Service) LogTime(ctx context.Context, req LogTimeRequest) (*domain.DiaryEntry, error) {
	if !req.End.After(req.Start) {
		return nil, domain.ErrInvalidTimeRange
	}
	task, err := s.repo.FindTask(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate diary ID: %w", err)
	}
	entry := &domain.DiaryEntry{
		ID:        id.String(),
		TaskID:    task.ID,
		StartedAt: req.Start,
		EndedAt:   req.End,
		Note:      req.Note,
	}
	if err := s.repo.CreateDiaryEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to log time: %w", err)
	}

	if task.IsCompleted() {
		hours, err := s.repo.TotalHours(ctx, task.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to sum logged hours: %w", err)
		}
		task.TimeTaken = ptr.To(hours)
		task.UpdatedAt = s.now()
		if err := s.repo.SaveTask(ctx, task); err != nil {
			return nil, err
		}
	}
	return entry, nil
}
