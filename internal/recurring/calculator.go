package recurring

import (
	"fmt"
	"time"

	"github.com/rezkam/awe/internal/domain"
)

// Stepper computes occurrence dates of one cadence.
type Stepper interface {
	// Nth returns the occurrence at offset i from base. Nth(base, 0) is base.
	Nth(base time.Time, i int) time.Time
}

// StepperFor returns the stepper of a frequency code.
// Unrecognized codes fail with domain.ErrInvalidFrequency.
func StepperFor(freq domain.Frequency) (Stepper, error) {
	switch freq {
	case domain.FrequencyOneTime:
		return OneTimeStepper{}, nil
	case domain.FrequencyYearly:
		return MonthStepper{Months: 12}, nil
	case domain.FrequencyMonthly:
		return MonthStepper{Months: 1}, nil
	case domain.FrequencyQuarterly:
		return MonthStepper{Months: 3}, nil
	case domain.FrequencyFourMonthly:
		return MonthStepper{Months: 4}, nil
	case domain.FrequencyBimonthly:
		return MonthStepper{Months: 2}, nil
	case domain.FrequencyFortnightly:
		return DayStepper{Days: 14}, nil
	case domain.FrequencyWeekly:
		return DayStepper{Days: 7}, nil
	case domain.FrequencyDaily:
		return DayStepper{Days: 1}, nil
	default:
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidFrequency, int(freq))
	}
}
