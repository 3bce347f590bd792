package recurring

import (
	"time"
)

// DayStepper advances a fixed number of days per occurrence.
type DayStepper struct {
	Days int
}

// Nth returns the i-th occurrence counted from base.
func (s DayStepper) Nth(base time.Time, i int) time.Time {
	return base.AddDate(0, 0, i*s.Days)
}

// MonthStepper advances a fixed number of calendar months per occurrence.
// When the target month is shorter than base's day, the last day of that month
// is used instead of rolling over into the next month.
type MonthStepper struct {
	Months int
}

// Nth returns the i-th occurrence counted from base.
// Each occurrence is derived from base directly so one clamped month does not
// shorten every later occurrence.
func (s MonthStepper) Nth(base time.Time, i int) time.Time {
	return AddMonthsClamped(base, i*s.Months)
}

// OneTimeStepper never advances. It only yields base.
type OneTimeStepper struct{}

// Nth returns base for every i.
func (OneTimeStepper) Nth(base time.Time, _ int) time.Time {
	return base
}

// AddMonthsClamped adds months to t, clamping the day to the last day of the
// resulting month. Time of day and location are preserved.
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()

	total := int(month) - 1 + months
	year += total / 12
	total %= 12
	if total < 0 {
		total += 12
		year--
	}
	target := time.Month(total + 1)

	if last := DaysIn(year, target); day > last {
		day = last
	}

	hour, minute, sec := t.Clock()
	return time.Date(year, target, day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// DaysIn returns the number of days in month of year.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
