// Package storetest is a compliance suite run against every repository
// implementation, so the SQLite and PostgreSQL stores behave the same.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/awe/internal/application/assignment"
	"github.com/rezkam/awe/internal/application/catalog"
	"github.com/rezkam/awe/internal/application/holidays"
	"github.com/rezkam/awe/internal/application/messaging"
	"github.com/rezkam/awe/internal/application/worker"
	"github.com/rezkam/awe/internal/domain"
	"github.com/rezkam/awe/internal/ptr"
)

// Store is the full repository surface a storage backend provides.
type Store interface {
	assignment.Repository
	catalog.Repository
	holidays.Repository
	messaging.Repository
	worker.Repository
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var assignedAt = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

// seedCatalog stores activity A1, actor Asha and customer C1.
func seedCatalog(t *testing.T, ctx context.Context, s Store) *domain.Actor {
	t.Helper()
	require.NoError(t, s.UpsertActivity(ctx, &domain.Activity{
		ID: "A1", Name: "GST Filing", Frequency: domain.FrequencyMonthly, Duration: 3,
		Criticality: domain.CriticalityHigh, Type: domain.ActivityTypeRegulatory,
		SubActivities: []string{"Collect invoices", "File return"},
	}))
	require.NoError(t, s.UpsertCustomer(ctx, &domain.Customer{ID: "C1", Name: "Acme Traders", Email: "acme@example.com"}))
	actor, err := s.UpsertActor(ctx, &domain.Actor{ID: uuid.NewString(), Name: "Asha", Email: "asha@example.com"})
	require.NoError(t, err)
	return actor
}

func newTask(id string, actor *domain.Actor, due time.Time) *domain.Task {
	return &domain.Task{
		ID: id, Name: "GST Filing", ActivityID: "A1", CustomerID: "C1", CustomerName: "Acme Traders",
		ActorID: actor.ID, AssignedTo: actor.Name, Initiator: "admin",
		Status: domain.TaskStatusYetToStart, Criticality: domain.CriticalityHigh,
		Type: domain.ActivityTypeRegulatory, Frequency: domain.FrequencyMonthly, Duration: 3,
		DueDate: due, AssignedAt: assignedAt, UpdatedAt: assignedAt,
	}
}

func newReminder(taskID *string, kind domain.ReminderKind, recipient string, send time.Time, at domain.ClockTime) *domain.ReminderEntry {
	return &domain.ReminderEntry{
		ID: uuid.NewString(), TaskID: taskID, Kind: kind, Recipient: recipient,
		Subject: "Subject", Body: "Body", SendDate: send, SendTime: at,
		Status: domain.ReminderStatusPending, CreatedAt: assignedAt,
	}
}

// RunStoreComplianceTest runs the shared behaviour checks. setup must return an
// empty, migrated store; it is called once per subtest.
func RunStoreComplianceTest(t *testing.T, setup func(t *testing.T) Store) {
	t.Run("Catalog", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()
		actor := seedCatalog(t, ctx, s)

		a, err := s.FindActivity(ctx, "A1")
		require.NoError(t, err)
		assert.Equal(t, domain.FrequencyMonthly, a.Frequency)
		assert.Equal(t, 3.0, a.Duration)
		assert.Equal(t, []string{"Collect invoices", "File return"}, a.SubActivities)

		again, err := s.UpsertActor(ctx, &domain.Actor{ID: uuid.NewString(), Name: "Asha", Email: "asha@new.example"})
		require.NoError(t, err)
		assert.Equal(t, actor.ID, again.ID)

		found, err := s.FindActorByName(ctx, "Asha")
		require.NoError(t, err)
		assert.Equal(t, "asha@new.example", found.Email)

		_, err = s.FindActorByName(ctx, "Nobody")
		assert.ErrorIs(t, err, domain.ErrActorNotFound)
		_, err = s.FindActivity(ctx, "A9")
		assert.ErrorIs(t, err, domain.ErrActivityNotFound)
		_, err = s.FindCustomer(ctx, "C9")
		assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

		require.NoError(t, s.UpsertActivity(ctx, &domain.Activity{ID: "A2", Name: "Stock Audit", Type: domain.ActivityTypeInternal, Criticality: domain.CriticalityLow}))
		activities, err := s.ListActivities(ctx)
		require.NoError(t, err)
		require.Len(t, activities, 2)
		assert.Equal(t, "A1", activities[0].ID)
		assert.Empty(t, activities[1].SubActivities)

		actors, err := s.ListActors(ctx)
		require.NoError(t, err)
		assert.Len(t, actors, 1)
		customers, err := s.ListCustomers(ctx)
		require.NoError(t, err)
		assert.Len(t, customers, 1)
	})

	t.Run("Holidays", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()

		n, err := s.UpsertHolidays(ctx, []domain.Holiday{
			{Date: day(2024, 8, 15), Name: "Independence Day"},
			{Date: day(2024, 1, 26), Name: "Republic"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		_, err = s.UpsertHolidays(ctx, []domain.Holiday{{Date: day(2024, 1, 26), Name: "Republic Day"}})
		require.NoError(t, err)

		list, err := s.ListHolidays(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, domain.Holiday{Date: day(2024, 1, 26), Name: "Republic Day"}, list[0])

		require.NoError(t, s.DeleteHoliday(ctx, day(2024, 8, 15)))
		assert.ErrorIs(t, s.DeleteHoliday(ctx, day(2024, 8, 15)), domain.ErrHolidayNotFound)
	})

	t.Run("AssignmentAndTask", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()
		actor := seedCatalog(t, ctx, s)

		exists, err := s.AssignmentExists(ctx, "C1", "A1")
		require.NoError(t, err)
		assert.False(t, exists)

		a := &domain.Assignment{CustomerID: "C1", ActivityID: "A1", ActorID: actor.ID, CreatedAt: assignedAt}
		require.NoError(t, s.CreateAssignment(ctx, a))
		assert.ErrorIs(t, s.CreateAssignment(ctx, a), domain.ErrAlreadyAssigned)

		exists, err = s.AssignmentExists(ctx, "C1", "A1")
		require.NoError(t, err)
		assert.True(t, exists)

		task := newTask("A1C131012024", actor, day(2024, 1, 31))
		task.Reviewer = ptr.To("Ravi")
		require.NoError(t, s.CreateTask(ctx, task))

		got, err := s.FindTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, day(2024, 1, 31), got.DueDate)
		assert.Equal(t, "Ravi", *got.Reviewer)
		assert.Nil(t, got.ActualDate)
		assert.Nil(t, got.TimeTaken)
		assert.True(t, assignedAt.Equal(got.AssignedAt))
		assert.Equal(t, domain.TaskStatusYetToStart, got.Status)

		got.TransitionTo(domain.TaskStatusCompleted, day(2024, 2, 2))
		got.TimeTaken = ptr.To(3.5)
		got.Remarks = ptr.To("filed")
		got.CalendarEventID = ptr.To("evt-1")
		got.UpdatedAt = assignedAt.Add(48 * time.Hour)
		require.NoError(t, s.SaveTask(ctx, got))

		saved, err := s.FindTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, saved.Status)
		assert.Equal(t, day(2024, 2, 2), *saved.ActualDate)
		assert.Equal(t, 3.5, *saved.TimeTaken)
		assert.Equal(t, "evt-1", *saved.CalendarEventID)

		_, err = s.FindTask(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
		assert.ErrorIs(t, s.SaveTask(ctx, newTask("missing", actor, day(2024, 1, 1))), domain.ErrTaskNotFound)
	})

	t.Run("ListTasksFiltersAndOrder", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()
		actor := seedCatalog(t, ctx, s)

		t3 := newTask("T3", actor, day(2024, 3, 31))
		t1 := newTask("T1", actor, day(2024, 1, 31))
		t2b := newTask("T2B", actor, day(2024, 2, 29))
		t2a := newTask("T2A", actor, day(2024, 2, 29))
		t2a.Status = domain.TaskStatusWIP
		t2a.Criticality = domain.CriticalityLow
		for _, task := range []*domain.Task{t3, t1, t2b, t2a} {
			require.NoError(t, s.CreateTask(ctx, task))
		}

		ids := func(tasks []*domain.Task) []string {
			out := make([]string, len(tasks))
			for i, task := range tasks {
				out[i] = task.ID
			}
			return out
		}

		all, err := s.ListTasks(ctx, domain.TaskFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"T1", "T2A", "T2B", "T3"}, ids(all))

		byRange, err := s.ListTasks(ctx, domain.TaskFilter{DueFrom: ptr.To(day(2024, 2, 1)), DueTo: ptr.To(day(2024, 2, 29))})
		require.NoError(t, err)
		assert.Equal(t, []string{"T2A", "T2B"}, ids(byRange))

		byStatus, err := s.ListTasks(ctx, domain.TaskFilter{Statuses: []domain.TaskStatus{domain.TaskStatusWIP, domain.TaskStatusPending}})
		require.NoError(t, err)
		assert.Equal(t, []string{"T2A"}, ids(byStatus))

		high := domain.CriticalityHigh
		regulatory := domain.ActivityTypeRegulatory
		combined, err := s.ListTasks(ctx, domain.TaskFilter{
			Criticality: &high, ActivityType: &regulatory,
			AssignedTo: ptr.To("Asha"), CustomerID: ptr.To("C1"), Limit: 2,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"T1", "T2B"}, ids(combined))

		none, err := s.ListTasks(ctx, domain.TaskFilter{AssignedTo: ptr.To("Ravi")})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("SubTasksAndDiary", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()
		actor := seedCatalog(t, ctx, s)
		require.NoError(t, s.CreateTask(ctx, newTask("T1", actor, day(2024, 1, 31))))

		require.NoError(t, s.CreateSubTasks(ctx, []*domain.SubTask{
			{ID: "S2", TaskID: "T1", Name: "File return", Status: domain.SubTaskStatusPending, UpdatedAt: assignedAt},
			{ID: "S1", TaskID: "T1", Name: "Collect invoices", Status: domain.SubTaskStatusPending, UpdatedAt: assignedAt},
		}))
		require.NoError(t, s.CreateSubTasks(ctx, nil))

		subs, err := s.ListSubTasks(ctx, "T1")
		require.NoError(t, err)
		require.Len(t, subs, 2)
		assert.Equal(t, "S1", subs[0].ID)

		later := assignedAt.Add(time.Hour)
		updated, err := s.UpdateSubTaskStatus(ctx, "S1", domain.SubTaskStatusCompleted, later)
		require.NoError(t, err)
		assert.Equal(t, domain.SubTaskStatusCompleted, updated.Status)
		assert.True(t, later.Equal(updated.UpdatedAt))

		_, err = s.UpdateSubTaskStatus(ctx, "S9", domain.SubTaskStatusCompleted, later)
		assert.ErrorIs(t, err, domain.ErrSubTaskNotFound)

		hours, err := s.TotalHours(ctx, "T1")
		require.NoError(t, err)
		assert.Zero(t, hours)

		start := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
		require.NoError(t, s.CreateDiaryEntry(ctx, &domain.DiaryEntry{ID: "D1", TaskID: "T1", StartedAt: start, EndedAt: start.Add(2 * time.Hour)}))
		require.NoError(t, s.CreateDiaryEntry(ctx, &domain.DiaryEntry{ID: "D2", TaskID: "T1", StartedAt: start.Add(4 * time.Hour), EndedAt: start.Add(5*time.Hour + 30*time.Minute), Note: ptr.To("review")}))

		hours, err = s.TotalHours(ctx, "T1")
		require.NoError(t, err)
		assert.InDelta(t, 3.5, hours, 1e-9)
	})

	t.Run("RemindersDedupe", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()
		actor := seedCatalog(t, ctx, s)
		require.NoError(t, s.CreateTask(ctx, newTask("T1", actor, day(2024, 1, 31))))

		taskID := ptr.To("T1")
		batch := []*domain.ReminderEntry{
			newReminder(taskID, domain.ReminderKindReminder, "asha@example.com", day(2024, 1, 28), domain.DefaultSendTime),
			newReminder(taskID, domain.ReminderKindDue, "asha@example.com", day(2024, 1, 31), domain.DefaultSendTime),
			newReminder(nil, domain.ReminderKindMessage, "team@example.com", day(2024, 1, 31), domain.ClockTime{Hour: 18, Minute: 30}),
		}
		n, err := s.CreateReminders(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		repeat := []*domain.ReminderEntry{
			newReminder(taskID, domain.ReminderKindDue, "asha@example.com", day(2024, 1, 31), domain.DefaultSendTime),
			newReminder(nil, domain.ReminderKindMessage, "team@example.com", day(2024, 1, 31), domain.DefaultSendTime),
			newReminder(taskID, domain.ReminderKindDue, "ravi@example.com", day(2024, 1, 31), domain.DefaultSendTime),
		}
		n, err = s.CreateReminders(ctx, repeat)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		all, err := s.ListReminders(ctx, domain.ReminderFilter{})
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, day(2024, 1, 28), all[0].SendDate)

		forTask, err := s.ListReminders(ctx, domain.ReminderFilter{TaskID: taskID})
		require.NoError(t, err)
		assert.Len(t, forTask, 3)

		var message *domain.ReminderEntry
		for _, r := range all {
			if r.Kind == domain.ReminderKindMessage {
				message = r
			}
		}
		require.NotNil(t, message)
		assert.Nil(t, message.TaskID)
		assert.Equal(t, domain.ClockTime{Hour: 18, Minute: 30}, message.SendTime)
	})

	t.Run("RemindersDispatchLifecycle", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()

		early := newReminder(nil, domain.ReminderKindMessage, "a@example.com", day(2024, 1, 2), domain.DefaultSendTime)
		today := newReminder(nil, domain.ReminderKindMessage, "b@example.com", day(2024, 1, 3), domain.ClockTime{Hour: 7})
		future := newReminder(nil, domain.ReminderKindMessage, "c@example.com", day(2024, 1, 4), domain.DefaultSendTime)
		_, err := s.CreateReminders(ctx, []*domain.ReminderEntry{future, today, early})
		require.NoError(t, err)

		pending, err := s.FindPendingReminders(ctx, time.Date(2024, 1, 3, 23, 0, 0, 0, time.UTC), 10)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, early.ID, pending[0].ID)
		assert.Equal(t, today.ID, pending[1].ID)

		limited, err := s.FindPendingReminders(ctx, day(2024, 1, 3), 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		at := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
		require.NoError(t, s.MarkReminder(ctx, early.ID, domain.ReminderStatusSent, nil, at))
		require.NoError(t, s.MarkReminder(ctx, today.ID, domain.ReminderStatusFailed, ptr.To("smtp: 550"), at))

		err = s.MarkReminder(ctx, early.ID, domain.ReminderStatusFailed, ptr.To("late"), at)
		assert.ErrorIs(t, err, domain.ErrReminderFinalized)
		err = s.MarkReminder(ctx, uuid.NewString(), domain.ReminderStatusSent, nil, at)
		assert.ErrorIs(t, err, domain.ErrReminderNotFound)

		pending, err = s.FindPendingReminders(ctx, day(2024, 1, 10), 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, future.ID, pending[0].ID)

		failed := domain.ReminderStatusFailed
		failures, err := s.ListReminders(ctx, domain.ReminderFilter{Status: &failed})
		require.NoError(t, err)
		require.Len(t, failures, 1)
		assert.Equal(t, "smtp: 550", *failures[0].LastError)
		require.NotNil(t, failures[0].ProcessedAt)
		assert.True(t, at.Equal(*failures[0].ProcessedAt))
	})

	t.Run("AtomicCommitsAndRollsBack", func(t *testing.T) {
		s := setup(t)
		ctx := context.Background()
		actor := seedCatalog(t, ctx, s)

		err := s.Atomic(ctx, func(tx assignment.Repository) error {
			if err := tx.CreateAssignment(ctx, &domain.Assignment{CustomerID: "C1", ActivityID: "A1", ActorID: actor.ID, CreatedAt: assignedAt}); err != nil {
				return err
			}
			return tx.CreateTask(ctx, newTask("T1", actor, day(2024, 1, 31)))
		})
		require.NoError(t, err)

		boom := errors.New("boom")
		err = s.Atomic(ctx, func(tx assignment.Repository) error {
			if err := tx.CreateTask(ctx, newTask("T2", actor, day(2024, 2, 29))); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = s.FindTask(ctx, "T1")
		require.NoError(t, err)
		_, err = s.FindTask(ctx, "T2")
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)

		assert.Panics(t, func() {
			_ = s.Atomic(ctx, func(tx assignment.Repository) error {
				_ = tx.CreateTask(ctx, newTask("T3", actor, day(2024, 3, 31)))
				panic("callback panic")
			})
		})
		_, err = s.FindTask(ctx, "T3")
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})
}
