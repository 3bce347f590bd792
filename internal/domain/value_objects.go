package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// NewTaskStatus validates and creates a TaskStatus.
// Matching ignores case, spaces, underscores and hyphens, so "yet_to_start",
// "Yet to Start" and "completed" are all accepted.
func NewTaskStatus(s string) (TaskStatus, error) {
	switch normalizeToken(s) {
	case "yettostart":
		return TaskStatusYetToStart, nil
	case "wip":
		return TaskStatusWIP, nil
	case "completed":
		return TaskStatusCompleted, nil
	case "pending":
		return TaskStatusPending, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidTaskStatus, s)
	}
}

// NewCriticality validates and creates a Criticality.
// Empty input defaults to Medium.
func NewCriticality(s string) (Criticality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return CriticalityMedium, nil
	case "low":
		return CriticalityLow, nil
	case "medium":
		return CriticalityMedium, nil
	case "high":
		return CriticalityHigh, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidCriticality, s)
	}
}

// NewActivityType accepts the stored code (R, I, C) or its label.
func NewActivityType(s string) (ActivityType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r", "regulatory":
		return ActivityTypeRegulatory, nil
	case "i", "internal":
		return ActivityTypeInternal, nil
	case "c", "customer":
		return ActivityTypeCustomer, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidActivityType, s)
	}
}

// Label returns the human readable name of the activity type.
func (t ActivityType) Label() string {
	switch t {
	case ActivityTypeRegulatory:
		return "Regulatory"
	case ActivityTypeInternal:
		return "Internal"
	case ActivityTypeCustomer:
		return "Customer"
	default:
		return string(t)
	}
}

// NewFrequency validates a frequency code against the recognized table.
func NewFrequency(code int) (Frequency, error) {
	f := Frequency(code)
	if !f.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidFrequency, code)
	}
	return f, nil
}

// ParseFrequency parses a decimal frequency code and validates it.
func ParseFrequency(s string) (Frequency, error) {
	code, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return NewFrequency(code)
}

// Valid reports whether f is one of the recognized cadence codes.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOneTime, FrequencyYearly, FrequencyFourMonthly, FrequencyQuarterly,
		FrequencyBimonthly, FrequencyMonthly, FrequencyFortnightly, FrequencyWeekly,
		FrequencyDaily:
		return true
	default:
		return false
	}
}

func (f Frequency) String() string {
	switch f {
	case FrequencyOneTime:
		return "one-time"
	case FrequencyYearly:
		return "yearly"
	case FrequencyFourMonthly:
		return "every 4 months"
	case FrequencyQuarterly:
		return "quarterly"
	case FrequencyBimonthly:
		return "every 2 months"
	case FrequencyMonthly:
		return "monthly"
	case FrequencyFortnightly:
		return "fortnightly"
	case FrequencyWeekly:
		return "weekly"
	case FrequencyDaily:
		return "daily"
	default:
		return "frequency(" + strconv.Itoa(int(f)) + ")"
	}
}

// NewSubTaskStatus validates a checklist item status.
func NewSubTaskStatus(s string) (SubTaskStatus, error) {
	switch normalizeToken(s) {
	case "pending":
		return SubTaskStatusPending, nil
	case "completed", "done":
		return SubTaskStatusCompleted, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidSubTaskStatus, s)
	}
}

// NewReminderStatus validates a reminder delivery status.
func NewReminderStatus(s string) (ReminderStatus, error) {
	switch normalizeToken(s) {
	case "pending":
		return ReminderStatusPending, nil
	case "sent":
		return ReminderStatusSent, nil
	case "failed":
		return ReminderStatusFailed, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidReminderStatus, s)
	}
}

// NewDerivedStatus accepts a reporting bucket label such as "Due with Delay"
// or "due_with_delay".
func NewDerivedStatus(s string) (DerivedStatus, error) {
	want := normalizeToken(s)
	for _, d := range DerivedStatuses {
		if normalizeToken(string(d)) == want {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidDerivedStatus, s)
}

func normalizeToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}
