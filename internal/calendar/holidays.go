package calendar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rezkam/awe/internal/domain"
)

// HolidaySet is an immutable snapshot of non-working calendar dates.
// The zero value is an empty set.
type HolidaySet struct {
	dates map[time.Time]struct{}
}

// NewHolidaySet builds a set from dates. Only the calendar day of each value is kept.
func NewHolidaySet(dates ...time.Time) HolidaySet {
	set := HolidaySet{dates: make(map[time.Time]struct{}, len(dates))}
	for _, d := range dates {
		set.dates[domain.DateOf(d)] = struct{}{}
	}
	return set
}

// HolidaySetOf builds a set from stored holiday rows.
func HolidaySetOf(holidays []domain.Holiday) HolidaySet {
	dates := make([]time.Time, 0, len(holidays))
	for _, h := range holidays {
		dates = append(dates, h.Date)
	}
	return NewHolidaySet(dates...)
}

// Contains reports whether the calendar day of date is a holiday.
func (s HolidaySet) Contains(date time.Time) bool {
	_, ok := s.dates[domain.DateOf(date)]
	return ok
}

// Len returns the number of distinct holiday dates.
func (s HolidaySet) Len() int {
	return len(s.dates)
}

// Dates returns the holiday dates in ascending order.
func (s HolidaySet) Dates() []time.Time {
	out := make([]time.Time, 0, len(s.dates))
	for d := range s.dates {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return out
}

// holidayFile is the YAML layout of a holiday seed file:
//
//	holidays:
//	  - date: 2024-01-26
//	    name: Republic Day
type holidayFile struct {
	Holidays []struct {
		Date string `yaml:"date"`
		Name string `yaml:"name"`
	} `yaml:"holidays"`
}

// DecodeHolidays parses a YAML holiday list.
func DecodeHolidays(r io.Reader) ([]domain.Holiday, error) {
	var file holidayFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: holidays: %w", domain.ErrMalformedDocument, err)
	}

	holidays := make([]domain.Holiday, 0, len(file.Holidays))
	for i, h := range file.Holidays {
		date, err := domain.ParseDate(h.Date)
		if err != nil {
			return nil, fmt.Errorf("holiday %d: %w", i, err)
		}
		holidays = append(holidays, domain.Holiday{Date: date, Name: h.Name})
	}
	return holidays, nil
}

// LoadHolidays reads a YAML holiday list from path.
func LoadHolidays(path string) ([]domain.Holiday, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open holiday file: %w", err)
	}
	defer f.Close()

	return DecodeHolidays(f)
}
