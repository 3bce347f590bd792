package domain

// TaskStatus is the raw status recorded on a task.
// Value object - immutable string enum. Values match the stored column text.
type TaskStatus string

const (
	TaskStatusYetToStart TaskStatus = "Yet to Start"
	TaskStatusWIP        TaskStatus = "WIP"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusPending    TaskStatus = "Pending"
)

// Criticality is the priority tag of an activity and its tasks.
// It decides the direction of calendar adjustment.
type Criticality string

const (
	CriticalityLow    Criticality = "Low"
	CriticalityMedium Criticality = "Medium"
	CriticalityHigh   Criticality = "High"
)

// ActivityType tags an activity as Regulatory, Internal or Customer work.
type ActivityType string

const (
	ActivityTypeRegulatory ActivityType = "R"
	ActivityTypeInternal   ActivityType = "I"
	ActivityTypeCustomer   ActivityType = "C"
)

// DerivedStatus is the reporting bucket computed from raw status and dates.
// It is never persisted. The string value is the display label.
type DerivedStatus string

const (
	DerivedPending            DerivedStatus = "Pending"
	DerivedOngoing            DerivedStatus = "Ongoing"
	DerivedOngoingWithDelay   DerivedStatus = "Ongoing with Delay"
	DerivedCompleted          DerivedStatus = "Completed"
	DerivedCompletedWithDelay DerivedStatus = "Completed with Delay"
	DerivedDue                DerivedStatus = "Due"
	DerivedDueWithDelay       DerivedStatus = "Due with Delay"
	DerivedUnknown            DerivedStatus = "Unknown"
)

// DerivedStatuses lists every reporting bucket in display order.
var DerivedStatuses = []DerivedStatus{
	DerivedPending,
	DerivedOngoing,
	DerivedOngoingWithDelay,
	DerivedCompleted,
	DerivedCompletedWithDelay,
	DerivedDue,
	DerivedDueWithDelay,
	DerivedUnknown,
}

// ReminderStatus is the delivery state of a queued notification.
type ReminderStatus string

const (
	ReminderStatusPending ReminderStatus = "Pending"
	ReminderStatusSent    ReminderStatus = "Sent"
	ReminderStatusFailed  ReminderStatus = "Failed"
)

// IsFinal reports whether the entry has left Pending. Final entries are never re-sent.
func (s ReminderStatus) IsFinal() bool {
	return s == ReminderStatusSent || s == ReminderStatusFailed
}

// ReminderKind says why a queued notification exists.
type ReminderKind string

const (
	ReminderKindReminder ReminderKind = "reminder" // ahead of the due date, offset from duration
	ReminderKindDue      ReminderKind = "due"      // on the due date
	ReminderKindReview   ReminderKind = "review"   // reviewer assignment notice
	ReminderKindMessage  ReminderKind = "message"  // scheduled free-form message
)

// SubTaskStatus is the state of a checklist item under a task.
type SubTaskStatus string

const (
	SubTaskStatusPending   SubTaskStatus = "Pending"
	SubTaskStatusCompleted SubTaskStatus = "Completed"
)

// Frequency is the integer cadence code of an activity.
// The code is the number of occurrences per year, except 0 (one-time)
// and 3 (every four months).
type Frequency int

const (
	FrequencyOneTime     Frequency = 0
	FrequencyYearly      Frequency = 1
	FrequencyFourMonthly Frequency = 3
	FrequencyQuarterly   Frequency = 4
	FrequencyBimonthly   Frequency = 6
	FrequencyMonthly     Frequency = 12
	FrequencyFortnightly Frequency = 26
	FrequencyWeekly      Frequency = 52
	FrequencyDaily       Frequency = 365
)
