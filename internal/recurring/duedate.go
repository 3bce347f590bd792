package recurring

import (
	"time"

	"github.com/rezkam/awe/internal/domain"
)

// dueOffsetDays is the day offset from assignment to the first due date.
// It approximates the cadence with a day count and ignores month lengths;
// Occurrences is the calendar-exact path.
var dueOffsetDays = map[domain.Frequency]int{
	domain.FrequencyYearly:      365,
	domain.FrequencyMonthly:     30,
	domain.FrequencyQuarterly:   90,
	domain.FrequencyWeekly:      7,
	domain.FrequencyDaily:       1,
	domain.FrequencyFortnightly: 14,
	domain.FrequencyFourMonthly: 120,
	domain.FrequencyBimonthly:   60,
	domain.FrequencyOneTime:     30,
}

// DueOffsetDays returns the number of days from assignment to the due date of a
// frequency code. Codes outside the table fall back to 365/code days for positive
// codes and to 365 days otherwise.
func DueOffsetDays(code int) int {
	if days, ok := dueOffsetDays[domain.Frequency(code)]; ok {
		return days
	}
	if code > 0 {
		return 365 / code
	}
	return 365
}

// NextDueDate returns the due date of a task assigned at now.
// The result is a calendar date (see domain.DateOf).
func NextDueDate(code int, now time.Time) time.Time {
	return domain.DateOf(now).AddDate(0, 0, DueOffsetDays(code))
}
