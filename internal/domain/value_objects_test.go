package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskStatus(t *testing.T) {
	tests := []struct {
		input string
		want  TaskStatus
	}{
		{"Yet to Start", TaskStatusYetToStart},
		{"yet_to_start", TaskStatusYetToStart},
		{"YetToStart", TaskStatusYetToStart},
		{"WIP", TaskStatusWIP},
		{"wip", TaskStatusWIP},
		{"Completed", TaskStatusCompleted},
		{"completed", TaskStatusCompleted},
		{" Pending ", TaskStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NewTaskStatus(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewTaskStatus_Invalid(t *testing.T) {
	for _, input := range []string{"", "done", "in progress", "cancelled"} {
		_, err := NewTaskStatus(input)
		assert.ErrorIs(t, err, ErrInvalidTaskStatus, "input %q", input)
	}
}

func TestNewCriticality(t *testing.T) {
	tests := []struct {
		input string
		want  Criticality
	}{
		{"", CriticalityMedium},
		{"low", CriticalityLow},
		{"Medium", CriticalityMedium},
		{"HIGH", CriticalityHigh},
		{" high ", CriticalityHigh},
	}

	for _, tt := range tests {
		got, err := NewCriticality(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := NewCriticality("urgent")
	assert.ErrorIs(t, err, ErrInvalidCriticality)
}

func TestNewActivityType(t *testing.T) {
	tests := []struct {
		input string
		want  ActivityType
	}{
		{"R", ActivityTypeRegulatory},
		{"regulatory", ActivityTypeRegulatory},
		{"i", ActivityTypeInternal},
		{"Internal", ActivityTypeInternal},
		{"C", ActivityTypeCustomer},
		{"customer", ActivityTypeCustomer},
	}

	for _, tt := range tests {
		got, err := NewActivityType(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := NewActivityType("X")
	assert.ErrorIs(t, err, ErrInvalidActivityType)

	assert.Equal(t, "Regulatory", ActivityTypeRegulatory.Label())
	assert.Equal(t, "Customer", ActivityTypeCustomer.Label())
}

func TestNewFrequency(t *testing.T) {
	for _, code := range []int{0, 1, 3, 4, 6, 12, 26, 52, 365} {
		f, err := NewFrequency(code)
		require.NoError(t, err, "code %d", code)
		assert.Equal(t, Frequency(code), f)
		assert.True(t, f.Valid())
	}

	for _, code := range []int{-1, 2, 5, 7, 24, 100, 366} {
		_, err := NewFrequency(code)
		assert.ErrorIs(t, err, ErrInvalidFrequency, "code %d", code)
	}
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, FrequencyMonthly, f)

	_, err = ParseFrequency("monthly")
	assert.ErrorIs(t, err, ErrInvalidFrequency)

	_, err = ParseFrequency("7")
	assert.ErrorIs(t, err, ErrInvalidFrequency)
}

func TestFrequency_String(t *testing.T) {
	assert.Equal(t, "monthly", FrequencyMonthly.String())
	assert.Equal(t, "every 4 months", FrequencyFourMonthly.String())
	assert.Equal(t, "frequency(7)", Frequency(7).String())
}

func TestNewSubTaskStatus(t *testing.T) {
	s, err := NewSubTaskStatus("done")
	require.NoError(t, err)
	assert.Equal(t, SubTaskStatusCompleted, s)

	_, err = NewSubTaskStatus("maybe")
	assert.ErrorIs(t, err, ErrInvalidSubTaskStatus)
}

func TestReminderStatus_IsFinal(t *testing.T) {
	assert.False(t, ReminderStatusPending.IsFinal())
	assert.True(t, ReminderStatusSent.IsFinal())
	assert.True(t, ReminderStatusFailed.IsFinal())

	s, err := NewReminderStatus("sent")
	require.NoError(t, err)
	assert.Equal(t, ReminderStatusSent, s)
}

func TestNewDerivedStatus(t *testing.T) {
	for in, want := range map[string]DerivedStatus{
		"Due with Delay":       DerivedDueWithDelay,
		"due_with_delay":       DerivedDueWithDelay,
		"ongoing":              DerivedOngoing,
		"Completed with Delay": DerivedCompletedWithDelay,
		" UNKNOWN ":            DerivedUnknown,
	} {
		got, err := NewDerivedStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := NewDerivedStatus("late")
	assert.ErrorIs(t, err, ErrInvalidDerivedStatus)
}
