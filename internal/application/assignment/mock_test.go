package assignment

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rezkam/awe/internal/domain"
)

// memRepo is an in-memory Repository. Atomic stages writes on a copy and only
// publishes them when the callback succeeds.
type memRepo struct {
	mu sync.Mutex

	activities  map[string]*domain.Activity
	actors      map[string]*domain.Actor
	customers   map[string]*domain.Customer
	holidays    []domain.Holiday
	assignments map[string]*domain.Assignment
	tasks       map[string]*domain.Task
	subtasks    map[string]*domain.SubTask
	diary       []*domain.DiaryEntry
	reminders   []*domain.ReminderEntry

	failCreateReminders error
	saveTaskCalls       int
}

func newMemRepo() *memRepo {
	return &memRepo{
		activities:  map[string]*domain.Activity{},
		actors:      map[string]*domain.Actor{},
		customers:   map[string]*domain.Customer{},
		assignments: map[string]*domain.Assignment{},
		tasks:       map[string]*domain.Task{},
		subtasks:    map[string]*domain.SubTask{},
	}
}

func (m *memRepo) FindActivity(_ context.Context, id string) (*domain.Activity, error) {
	a, ok := m.activities[id]
	if !ok {
		return nil, domain.ErrActivityNotFound
	}
	return a, nil
}

func (m *memRepo) FindActorByName(_ context.Context, name string) (*domain.Actor, error) {
	a, ok := m.actors[name]
	if !ok {
		return nil, domain.ErrActorNotFound
	}
	return a, nil
}

func (m *memRepo) FindCustomer(_ context.Context, id string) (*domain.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return c, nil
}

func (m *memRepo) ListHolidays(context.Context) ([]domain.Holiday, error) {
	return m.holidays, nil
}

func (m *memRepo) AssignmentExists(_ context.Context, customerID, activityID string) (bool, error) {
	_, ok := m.assignments[customerID+"/"+activityID]
	return ok, nil
}

func (m *memRepo) CreateAssignment(_ context.Context, a *domain.Assignment) error {
	key := a.CustomerID + "/" + a.ActivityID
	if _, ok := m.assignments[key]; ok {
		return domain.ErrAlreadyAssigned
	}
	m.assignments[key] = a
	return nil
}

func (m *memRepo) CreateTask(_ context.Context, task *domain.Task) error {
	cp := *task
	m.tasks[task.ID] = &cp
	return nil
}

func (m *memRepo) FindTask(_ context.Context, id string) (*domain.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memRepo) ListTasks(_ context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range m.tasks {
		if filter.DueFrom != nil && t.DueDate.Before(*filter.DueFrom) {
			continue
		}
		if filter.DueTo != nil && t.DueDate.After(*filter.DueTo) {
			continue
		}
		if filter.AssignedTo != nil && !strings.EqualFold(t.AssignedTo, *filter.AssignedTo) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, t.Status) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *domain.Task) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *memRepo) SaveTask(_ context.Context, task *domain.Task) error {
	m.saveTaskCalls++
	if _, ok := m.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	cp := *task
	m.tasks[task.ID] = &cp
	return nil
}

func (m *memRepo) CreateSubTasks(_ context.Context, subtasks []*domain.SubTask) error {
	for _, st := range subtasks {
		cp := *st
		m.subtasks[st.ID] = &cp
	}
	return nil
}

func (m *memRepo) ListSubTasks(_ context.Context, taskID string) ([]*domain.SubTask, error) {
	var out []*domain.SubTask
	for _, st := range m.subtasks {
		if st.TaskID == taskID {
			out = append(out, st)
		}
	}
	slices.SortFunc(out, func(a, b *domain.SubTask) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *memRepo) UpdateSubTaskStatus(_ context.Context, id string, status domain.SubTaskStatus, at time.Time) (*domain.SubTask, error) {
	st, ok := m.subtasks[id]
	if !ok {
		return nil, domain.ErrSubTaskNotFound
	}
	st.Status = status
	st.UpdatedAt = at
	return st, nil
}

func (m *memRepo) CreateDiaryEntry(_ context.Context, entry *domain.DiaryEntry) error {
	m.diary = append(m.diary, entry)
	return nil
}

func (m *memRepo) TotalHours(_ context.Context, taskID string) (float64, error) {
	var total float64
	for _, e := range m.diary {
		if e.TaskID == taskID {
			total += e.Hours()
		}
	}
	return total, nil
}

func (m *memRepo) CreateReminders(_ context.Context, entries []*domain.ReminderEntry) (int, error) {
	if m.failCreateReminders != nil {
		return 0, m.failCreateReminders
	}
	inserted := 0
	for _, e := range entries {
		if !slices.ContainsFunc(m.reminders, func(r *domain.ReminderEntry) bool { return r.DedupeKey() == e.DedupeKey() }) {
			m.reminders = append(m.reminders, e)
			inserted++
		}
	}
	return inserted, nil
}

func (m *memRepo) Atomic(ctx context.Context, fn func(tx Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := &memRepo{
		activities:          m.activities,
		actors:              m.actors,
		customers:           m.customers,
		holidays:            m.holidays,
		assignments:         maps.Clone(m.assignments),
		tasks:               maps.Clone(m.tasks),
		subtasks:            maps.Clone(m.subtasks),
		diary:               slices.Clone(m.diary),
		reminders:           slices.Clone(m.reminders),
		failCreateReminders: m.failCreateReminders,
	}
	if err := fn(staged); err != nil {
		return err
	}

	m.assignments = staged.assignments
	m.tasks = staged.tasks
	m.subtasks = staged.subtasks
	m.diary = staged.diary
	m.reminders = staged.reminders
	return nil
}

type sentMail struct {
	recipient, subject, body string
}

type mockNotifier struct {
	sent []sentMail
	err  error
}

func (n *mockNotifier) Send(_ context.Context, recipient, subject, body string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{recipient, subject, body})
	return nil
}

type mockCalendar struct {
	events []CalendarEvent
	id     string
	err    error
}

func (c *mockCalendar) CreateEvent(_ context.Context, event CalendarEvent) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.events = append(c.events, event)
	return c.id, nil
}
