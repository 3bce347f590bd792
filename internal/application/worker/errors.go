package worker

import (
	"errors"
	"fmt"
)

// PanicError is recorded as the last error of an entry whose sink panicked.
// The entry is marked Failed like any other delivery error.
type PanicError struct {
	ReminderID string
	Value      any
	StackTrace string
}

func (e PanicError) Error() string {
	return fmt.Sprintf("sink panicked delivering reminder %s: %v", e.ReminderID, e.Value)
}

// IsPanic reports whether err, or any error it wraps, is a PanicError.
func IsPanic(err error) bool {
	var pe PanicError
	return errors.As(err, &pe)
}
