// Package classify derives reporting status buckets from raw task status and dates.
package classify

import (
	"time"

	"github.com/rezkam/awe/internal/domain"
)

// Classify returns the reporting bucket of a task. Rules are checked in order and
// the first match wins:
//
//	Pending                          -> Pending
//	WIP, due >= today                -> Ongoing
//	WIP, due < today                 -> Ongoing with Delay
//	Completed, actual <= due         -> Completed
//	Completed, actual > due          -> Completed with Delay
//	Yet to Start, due >= today       -> Due
//	Yet to Start, due < today        -> Due with Delay
//	anything else                    -> Unknown
//
// Dates are compared as calendar days. A Completed task without an actual date
// is Unknown; see CheckIntegrity.
func Classify(raw domain.TaskStatus, due time.Time, actual *time.Time, today time.Time) domain.DerivedStatus {
	dueDay := domain.DateOf(due)
	todayDay := domain.DateOf(today)

	switch raw {
	case domain.TaskStatusPending:
		return domain.DerivedPending
	case domain.TaskStatusWIP:
		if dueDay.Before(todayDay) {
			return domain.DerivedOngoingWithDelay
		}
		return domain.DerivedOngoing
	case domain.TaskStatusCompleted:
		if actual == nil {
			return domain.DerivedUnknown
		}
		if domain.DateOf(*actual).After(dueDay) {
			return domain.DerivedCompletedWithDelay
		}
		return domain.DerivedCompleted
	case domain.TaskStatusYetToStart:
		if dueDay.Before(todayDay) {
			return domain.DerivedDueWithDelay
		}
		return domain.DerivedDue
	default:
		return domain.DerivedUnknown
	}
}

// Task classifies a stored task.
func Task(t *domain.Task, today time.Time) domain.DerivedStatus {
	return Classify(t.Status, t.DueDate, t.ActualDate, today)
}

// CheckIntegrity reports records that Classify can only bucket as Unknown because
// of missing data. It never affects classification.
func CheckIntegrity(raw domain.TaskStatus, actual *time.Time) error {
	if raw == domain.TaskStatusCompleted && actual == nil {
		return domain.ErrClassificationDataIntegrity
	}
	return nil
}
