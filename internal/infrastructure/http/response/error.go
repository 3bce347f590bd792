// Package response writes the JSON bodies shared by every API endpoint.
package response

import (
	"errors"
	"net/http"

	"github.com/rezkam/awe/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []ErrorField `json:"details"` // never null
}

// ErrorField describes a field-specific error.
type ErrorField struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// BadRequest sends a 400 Bad Request error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, "INVALID_REQUEST", message, http.StatusBadRequest)
}

// ValidationError sends a 400 validation error for one field.
func ValidationError(w http.ResponseWriter, field, issue string) {
	ValidationErrors(w, []ErrorField{{Field: field, Issue: issue}})
}

// ValidationErrors sends a 400 validation error with field details.
func ValidationErrors(w http.ResponseWriter, fields []ErrorField) {
	if fields == nil {
		fields = []ErrorField{}
	}
	write(w, http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "validation failed",
			Details: fields,
		},
	})
}

// NotFound sends a 404 Not Found error.
func NotFound(w http.ResponseWriter, resource string) {
	Error(w, "NOT_FOUND", resource+" not found", http.StatusNotFound)
}

// Conflict sends a 409 Conflict error.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, "CONFLICT", message, http.StatusConflict)
}

// Unavailable sends a 503 for features that are not configured.
func Unavailable(w http.ResponseWriter, message string) {
	Error(w, "UNAVAILABLE", message, http.StatusServiceUnavailable)
}

// InternalError sends a 500. The cause is logged, never returned to the client.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		logger(r).ErrorContext(r.Context(), "Internal server error", "error", err, "path", r.URL.Path)
	}
	Error(w, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
}

// Error sends a generic error response.
func Error(w http.ResponseWriter, code, message string, statusCode int) {
	write(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: []ErrorField{},
		},
	})
}

// FromDomainError maps domain errors to HTTP responses.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Validation errors (400)
	case errors.Is(err, domain.ErrInvalidFrequency):
		ValidationError(w, "frequency", "unknown frequency code")
	case errors.Is(err, domain.ErrInvalidTaskStatus):
		ValidationError(w, "status", "invalid task status")
	case errors.Is(err, domain.ErrInvalidSubTaskStatus):
		ValidationError(w, "status", "invalid subtask status")
	case errors.Is(err, domain.ErrInvalidReminderStatus):
		ValidationError(w, "status", "invalid reminder status")
	case errors.Is(err, domain.ErrInvalidDerivedStatus):
		ValidationError(w, "derived", "invalid derived status")
	case errors.Is(err, domain.ErrInvalidCriticality):
		ValidationError(w, "criticality", "invalid criticality")
	case errors.Is(err, domain.ErrInvalidActivityType):
		ValidationError(w, "activity", "invalid activity type")
	case errors.Is(err, domain.ErrInvalidPeriod):
		ValidationError(w, "period", "invalid period")
	case errors.Is(err, domain.ErrInvalidDate):
		ValidationError(w, "date", "must be YYYY-MM-DD")
	case errors.Is(err, domain.ErrInvalidClockTime):
		ValidationError(w, "time", "must be HH:MM")
	case errors.Is(err, domain.ErrInvalidTimeRange):
		ValidationError(w, "end", "must be after start")
	case errors.Is(err, domain.ErrInvalidFilter):
		ValidationError(w, "filter_type", "must be status, taskName or criticality")
	case errors.Is(err, domain.ErrRecipientRequired):
		ValidationError(w, "recipients", "at least one recipient is required")
	case errors.Is(err, domain.ErrInvalidRecipient):
		ValidationError(w, "recipients", "must be email addresses")
	case errors.Is(err, domain.ErrMessageRequired):
		ValidationError(w, "description", "required field missing")
	case errors.Is(err, domain.ErrEmptyUpdateMask):
		ValidationError(w, "update_mask", "cannot be empty")
	case errors.Is(err, domain.ErrUnknownField):
		ValidationError(w, "update_mask", err.Error())
	case errors.Is(err, domain.ErrRequiredField), errors.Is(err, domain.ErrMalformedDocument):
		BadRequest(w, err.Error())

	// Not found errors (404)
	case errors.Is(err, domain.ErrTaskNotFound):
		NotFound(w, "task")
	case errors.Is(err, domain.ErrSubTaskNotFound):
		NotFound(w, "subtask")
	case errors.Is(err, domain.ErrActivityNotFound):
		NotFound(w, "activity")
	case errors.Is(err, domain.ErrActorNotFound):
		NotFound(w, "actor")
	case errors.Is(err, domain.ErrReviewerNotFound):
		NotFound(w, "reviewer")
	case errors.Is(err, domain.ErrCustomerNotFound):
		NotFound(w, "customer")
	case errors.Is(err, domain.ErrReminderNotFound):
		NotFound(w, "reminder")
	case errors.Is(err, domain.ErrSnapshotNotFound):
		NotFound(w, "report snapshot")
	case errors.Is(err, domain.ErrHolidayNotFound):
		NotFound(w, "holiday")
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "resource")

	// State conflicts (409)
	case errors.Is(err, domain.ErrAlreadyAssigned):
		Conflict(w, "activity already assigned to customer")
	case errors.Is(err, domain.ErrSnapshotExists):
		Conflict(w, "report snapshot already exists")
	case errors.Is(err, domain.ErrReminderFinalized):
		Conflict(w, "reminder already processed")

	case errors.Is(err, domain.ErrArchiveUnavailable):
		Unavailable(w, "report archive not configured")

	default:
		InternalError(w, r, err)
	}
}
