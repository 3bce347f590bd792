package classify

import (
	"fmt"
	"strings"
	"time"

	"github.com/rezkam/awe/internal/domain"
)

// Period is a dashboard reporting window over due dates.
type Period string

const (
	PeriodAll               Period = "All"
	PeriodPreviousMonth     Period = "Previous Month"
	PeriodCurrentMonth      Period = "Current Month"
	PeriodUpcomingSixMonths Period = "Upcoming 6 Months"
)

// ParsePeriod accepts the dashboard labels. Empty input means PeriodAll.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return PeriodAll, nil
	case "previous month", "previous_month":
		return PeriodPreviousMonth, nil
	case "current month", "current_month":
		return PeriodCurrentMonth, nil
	case "6 months", "upcoming 6 months", "six_months":
		return PeriodUpcomingSixMonths, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidPeriod, s)
	}
}

// Range returns the inclusive due-date bounds of p relative to today.
// ok is false for PeriodAll, which has no bounds.
func (p Period) Range(today time.Time) (from, to time.Time, ok bool) {
	day := domain.DateOf(today)
	monthStart := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)

	switch p {
	case PeriodPreviousMonth:
		from = monthStart.AddDate(0, -1, 0)
		return from, monthStart.AddDate(0, 0, -1), true
	case PeriodCurrentMonth:
		return monthStart, monthStart.AddDate(0, 1, -1), true
	case PeriodUpcomingSixMonths:
		return monthStart, monthStart.AddDate(0, 6, 0), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// Apply narrows filter to the period's due-date window.
func (p Period) Apply(filter *domain.TaskFilter, today time.Time) {
	from, to, ok := p.Range(today)
	if !ok {
		return
	}
	filter.DueFrom = &from
	filter.DueTo = &to
}
