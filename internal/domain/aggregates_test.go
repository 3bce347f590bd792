package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTask_TransitionTo_CompletedStampsActualDate(t *testing.T) {
	task := &Task{
		Status:     TaskStatusWIP,
		DueDate:    date(2024, 6, 10),
		AssignedAt: time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC),
	}

	changed := task.TransitionTo(TaskStatusCompleted, time.Date(2024, 6, 8, 18, 0, 0, 0, time.UTC))

	assert.True(t, changed)
	require.NotNil(t, task.ActualDate)
	assert.Equal(t, date(2024, 6, 8), *task.ActualDate)
}

func TestTask_TransitionTo_ActualDateNeverBeforeAssignment(t *testing.T) {
	task := &Task{
		Status:     TaskStatusYetToStart,
		AssignedAt: time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC),
	}

	task.TransitionTo(TaskStatusCompleted, date(2024, 6, 3))

	require.NotNil(t, task.ActualDate)
	assert.Equal(t, date(2024, 6, 5), *task.ActualDate)
}

func TestTask_TransitionTo_LeavingCompletedClearsActualDate(t *testing.T) {
	actual := date(2024, 6, 8)
	task := &Task{Status: TaskStatusCompleted, ActualDate: &actual}

	assert.True(t, task.TransitionTo(TaskStatusWIP, date(2024, 6, 9)))
	assert.Nil(t, task.ActualDate)
}

func TestTask_TransitionTo_SameStatusIsNoop(t *testing.T) {
	actual := date(2024, 6, 8)
	task := &Task{Status: TaskStatusCompleted, ActualDate: &actual}

	assert.False(t, task.TransitionTo(TaskStatusCompleted, date(2024, 7, 1)))
	assert.Equal(t, date(2024, 6, 8), *task.ActualDate)
}

func TestTask_TransitionTo_NonCompletedKeepsActualNil(t *testing.T) {
	task := &Task{Status: TaskStatusYetToStart}

	task.TransitionTo(TaskStatusWIP, date(2024, 6, 9))
	assert.Nil(t, task.ActualDate)
}

func TestNewTaskID(t *testing.T) {
	assert.Equal(t, "73-C004-31012024", NewTaskID("73", "C004", date(2024, 1, 31)))
	assert.NotEqual(t,
		NewTaskID("A1", "23", date(2024, 1, 31)),
		NewTaskID("A12", "3", date(2024, 1, 31)))
}

func TestReminderEntry_DueAt(t *testing.T) {
	entry := &ReminderEntry{
		SendDate: date(2024, 6, 7),
		SendTime: ClockTime{Hour: 9},
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"day before", time.Date(2024, 6, 6, 23, 0, 0, 0, time.UTC), false},
		{"same day before send time", time.Date(2024, 6, 7, 8, 59, 0, 0, time.UTC), false},
		{"same day at send time", time.Date(2024, 6, 7, 9, 0, 0, 0, time.UTC), true},
		{"same day after send time", time.Date(2024, 6, 7, 17, 0, 0, 0, time.UTC), true},
		{"later day earlier clock", time.Date(2024, 6, 8, 7, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entry.DueAt(tt.now))
		})
	}
}

func TestDiaryEntry_Hours(t *testing.T) {
	d := &DiaryEntry{
		StartedAt: time.Date(2024, 6, 7, 9, 0, 0, 0, time.UTC),
		EndedAt:   time.Date(2024, 6, 7, 11, 30, 0, 0, time.UTC),
	}
	assert.InDelta(t, 2.5, d.Hours(), 1e-9)
}

func TestReminderEntry_DedupeKey(t *testing.T) {
	taskID := "A1C131012024"
	base := ReminderEntry{
		TaskID:    &taskID,
		Kind:      ReminderKindReminder,
		Recipient: "Asha@Example.com",
		SendDate:  time.Date(2024, 1, 28, 15, 0, 0, 0, time.UTC),
	}

	same := base
	same.Recipient = "asha@example.com"
	same.SendDate = date(2024, 1, 28)
	same.Body = "different text"
	assert.Equal(t, base.DedupeKey(), same.DedupeKey())

	otherKind := base
	otherKind.Kind = ReminderKindDue
	assert.NotEqual(t, base.DedupeKey(), otherKind.DedupeKey())

	msgA := ReminderEntry{Kind: ReminderKindMessage, Recipient: "x@example.com", SendDate: date(2024, 2, 1), Body: "close books"}
	msgB := msgA
	msgB.Body = "submit returns"
	assert.NotEqual(t, msgA.DedupeKey(), msgB.DedupeKey())

	msgC := msgA
	assert.Equal(t, msgA.DedupeKey(), msgC.DedupeKey())
}
