package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"

	"github.com/rezkam/awe/internal/domain"
)

func TestClockPgTimeRoundTrip(t *testing.T) {
	t.Run("nine in the morning", func(t *testing.T) {
		pg := clockToPgTime(domain.ClockTime{Hour: 9})

		assert.True(t, pg.Valid)
		assert.Equal(t, int64(9*60*60*1_000_000), pg.Microseconds)
		assert.Equal(t, domain.ClockTime{Hour: 9}, clockFromPgTime(pg))
	})

	t.Run("last minute of the day", func(t *testing.T) {
		c := domain.ClockTime{Hour: 23, Minute: 59}
		assert.Equal(t, c, clockFromPgTime(clockToPgTime(c)))
	})

	t.Run("seconds are dropped", func(t *testing.T) {
		pg := pgtype.Time{Microseconds: (18*3600 + 30*60 + 45) * 1_000_000, Valid: true}
		assert.Equal(t, domain.ClockTime{Hour: 18, Minute: 30}, clockFromPgTime(pg))
	})

	t.Run("null uses default send time", func(t *testing.T) {
		assert.Equal(t, domain.DefaultSendTime, clockFromPgTime(pgtype.Time{}))
	})
}

func TestTaskRowToDomain_NormalizesDates(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	actual := time.Date(2024, 2, 2, 0, 0, 0, 0, ist)
	row := &taskRow{
		ID:         "A1C131012024",
		Status:     "Completed",
		DueDate:    time.Date(2024, 1, 31, 0, 0, 0, 0, ist),
		ActualDate: &actual,
		AssignedAt: time.Date(2024, 1, 1, 15, 30, 0, 0, ist),
		UpdatedAt:  time.Date(2024, 2, 2, 10, 0, 0, 0, ist),
	}

	task := row.toDomain()

	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), task.DueDate)
	assert.Equal(t, time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), *task.ActualDate)
	assert.Equal(t, time.UTC, task.AssignedAt.Location())
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
}

func TestReminderRowToDomain(t *testing.T) {
	row := &reminderRow{
		ID:       "r1",
		Kind:     "due",
		SendDate: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		SendTime: clockToPgTime(domain.ClockTime{Hour: 9, Minute: 15}),
		Status:   "Pending",
	}

	e := row.toDomain()

	assert.Equal(t, domain.ReminderKindDue, e.Kind)
	assert.Equal(t, domain.ClockTime{Hour: 9, Minute: 15}, e.SendTime)
	assert.Nil(t, e.ProcessedAt)
	assert.Nil(t, e.TaskID)
}

func TestDateParam(t *testing.T) {
	assert.Nil(t, dateParam(nil))

	in := time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *dateParam(&in))
}

func TestStringsOf(t *testing.T) {
	got := stringsOf([]domain.TaskStatus{domain.TaskStatusWIP, domain.TaskStatusYetToStart})
	assert.Equal(t, []string{"WIP", "Yet to Start"}, got)
}
