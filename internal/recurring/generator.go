// Package recurring computes due dates and recurring occurrence dates from
// frequency codes.
package recurring

import (
	"iter"
	"slices"
	"time"

	"github.com/rezkam/awe/internal/domain"
)

// DefaultCount is the number of occurrences produced when the caller gives none.
const DefaultCount = 12

// Occurrences returns the occurrence dates of freq starting at base.
//
// The sequence is lazy and finite: count dates (DefaultCount when count <= 0),
// or only base for one-time frequencies. It can be ranged over more than once
// and always starts again from base. The first element is base itself.
func Occurrences(base time.Time, freq domain.Frequency, count int) (iter.Seq[time.Time], error) {
	stepper, err := StepperFor(freq)
	if err != nil {
		return nil, err
	}

	if count <= 0 {
		count = DefaultCount
	}
	if freq == domain.FrequencyOneTime {
		count = 1
	}

	return func(yield func(time.Time) bool) {
		for i := range count {
			if !yield(stepper.Nth(base, i)) {
				return
			}
		}
	}, nil
}

// Generate collects Occurrences into a slice.
func Generate(base time.Time, freq domain.Frequency, count int) ([]time.Time, error) {
	seq, err := Occurrences(base, freq, count)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}
