// Package calendar moves dates off weekends and holidays.
package calendar

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/rezkam/awe/internal/domain"
)

// MaxAdjustSteps bounds the search for a working day.
// A holiday table covering ten years of consecutive days is treated as broken.
const MaxAdjustSteps = 3650

// Direction is the way Adjust walks the calendar.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// DirectionFor maps a criticality label to a shift direction.
// Only "high" (any case) moves backward; everything else, including Medium,
// unknown labels and the empty string, moves forward.
func DirectionFor(criticality string) Direction {
	if strings.EqualFold(strings.TrimSpace(criticality), string(domain.CriticalityHigh)) {
		return Backward
	}
	return Forward
}

// IsWorkingDay reports whether date is a weekday and not in holidays.
func IsWorkingDay(date time.Time, holidays HolidaySet) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !holidays.Contains(date)
}

// Adjust returns the nearest working day to date, walking one day at a time in the
// direction given by criticality. A date that is already a working day is returned
// unchanged.
//
// If no working day is found within MaxAdjustSteps the original date is returned
// together with domain.ErrCalendarAdjustmentExhausted.
func Adjust(date time.Time, criticality string, holidays HolidaySet) (time.Time, error) {
	start := domain.DateOf(date)
	step := int(DirectionFor(criticality))

	current := start
	for range MaxAdjustSteps {
		if IsWorkingDay(current, holidays) {
			return current, nil
		}
		current = current.AddDate(0, 0, step)
	}
	if IsWorkingDay(current, holidays) {
		return current, nil
	}
	return start, domain.ErrCalendarAdjustmentExhausted
}

// AdjustOrKeep is Adjust for callers that must not fail: on exhaustion it logs a
// warning and keeps the original date.
func AdjustOrKeep(ctx context.Context, date time.Time, criticality string, holidays HolidaySet) time.Time {
	adjusted, err := Adjust(date, criticality, holidays)
	if err != nil {
		if errors.Is(err, domain.ErrCalendarAdjustmentExhausted) {
			slog.WarnContext(ctx, "calendar adjustment exhausted, keeping original date",
				"date", date.Format(domain.DateLayout),
				"criticality", criticality,
				"holidays", holidays.Len(),
				"max_steps", MaxAdjustSteps)
		}
		return domain.DateOf(date)
	}
	return adjusted
}
