package domain

import (
	"fmt"
	"slices"
)

// Valid fields for UpdateTaskParams.
var updateTaskValidFields = map[string]struct{}{
	"status":          {},
	"remarks":         {},
	"reviewer_status": {},
	"link":            {},
}

// Validate checks that UpdateMask contains only known fields and that
// required fields have non-nil values when included in the mask.
func (p UpdateTaskParams) Validate() error {
	if len(p.UpdateMask) == 0 {
		return ErrEmptyUpdateMask
	}

	maskSet := make(map[string]bool, len(p.UpdateMask))

	for _, field := range p.UpdateMask {
		if _, ok := updateTaskValidFields[field]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		maskSet[field] = true
	}

	// Status cannot be cleared.
	if maskSet["status"] && p.Status == nil {
		return fmt.Errorf("%w: status", ErrRequiredField)
	}

	return nil
}

// Has reports whether field is named in the update mask.
func (p UpdateTaskParams) Has(field string) bool {
	return slices.Contains(p.UpdateMask, field)
}
