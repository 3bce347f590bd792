package domain

import "errors"

// Scheduling engine errors.

var (
	// ErrInvalidFrequency indicates a frequency code outside the recognized table.
	// Callers reject the request; it is never retried.
	ErrInvalidFrequency = errors.New("invalid frequency")

	// ErrCalendarAdjustmentExhausted indicates the weekend/holiday walk hit its step bound.
	// The unadjusted date is returned alongside it.
	ErrCalendarAdjustmentExhausted = errors.New("calendar adjustment exhausted")

	// ErrClassificationDataIntegrity indicates a Completed task without an actual date.
	// Such tasks are reported as Unknown rather than failing.
	ErrClassificationDataIntegrity = errors.New("completed task has no actual date")
)

// Validation errors.

var (
	ErrInvalidTaskStatus     = errors.New("invalid task status")
	ErrInvalidSubTaskStatus  = errors.New("invalid subtask status")
	ErrInvalidReminderStatus = errors.New("invalid reminder status")
	ErrInvalidDerivedStatus  = errors.New("invalid derived status")
	ErrInvalidCriticality    = errors.New("invalid criticality")
	ErrInvalidActivityType   = errors.New("invalid activity type")
	ErrInvalidPeriod         = errors.New("invalid period")
	ErrInvalidDate           = errors.New("invalid date")
	ErrInvalidClockTime      = errors.New("invalid time of day")
	ErrInvalidTimeRange      = errors.New("end must be after start")
	ErrInvalidFilter         = errors.New("invalid filter type")

	// ErrRequiredField indicates a mandatory request field is missing.
	ErrRequiredField = errors.New("required field missing")

	// ErrRecipientRequired indicates a message has no recipient.
	ErrRecipientRequired = errors.New("at least one recipient is required")

	// ErrInvalidRecipient indicates a recipient that is not an email address.
	ErrInvalidRecipient = errors.New("invalid recipient email")

	// ErrMessageRequired indicates a message has no body.
	ErrMessageRequired = errors.New("message description is required")

	// ErrMalformedDocument indicates an uploaded YAML document could not be parsed.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrEmptyUpdateMask indicates a partial update named no fields.
	ErrEmptyUpdateMask = errors.New("update mask cannot be empty")

	// ErrUnknownField indicates a partial update named a field that cannot be updated.
	ErrUnknownField = errors.New("unknown field in update mask")
)

// Lookup and state errors returned by repository implementations.

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	ErrTaskNotFound     = errors.New("task not found")
	ErrSubTaskNotFound  = errors.New("subtask not found")
	ErrActivityNotFound = errors.New("activity not found")
	ErrActorNotFound    = errors.New("actor not found")
	ErrReviewerNotFound = errors.New("reviewer not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrReminderNotFound = errors.New("reminder not found")
	ErrSnapshotNotFound = errors.New("report snapshot not found")
	ErrHolidayNotFound  = errors.New("holiday not found")

	// ErrAlreadyAssigned indicates the activity is already assigned to the customer.
	ErrAlreadyAssigned = errors.New("activity already assigned to customer")

	// ErrSnapshotExists indicates an archive already holds a snapshot with the ID.
	ErrSnapshotExists = errors.New("report snapshot already exists")

	// ErrArchiveUnavailable indicates no report archive is configured.
	ErrArchiveUnavailable = errors.New("report archive not configured")

	// ErrReminderFinalized indicates a reminder already moved to Sent or Failed.
	ErrReminderFinalized = errors.New("reminder already processed")
)
