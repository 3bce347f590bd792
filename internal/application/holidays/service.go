// Package holidays maintains the non-working day table used by calendar adjustment.
package holidays

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/rezkam/awe/internal/calendar"
	"github.com/rezkam/awe/internal/domain"
)

// Repository defines storage operations for holidays.
type Repository interface {
	ListHolidays(ctx context.Context) ([]domain.Holiday, error)

	// UpsertHolidays inserts holidays, replacing the name of dates already present.
	// Returns the number of rows written.
	UpsertHolidays(ctx context.Context, holidays []domain.Holiday) (int, error)

	// DeleteHoliday returns domain.ErrHolidayNotFound if the date is not a holiday.
	DeleteHoliday(ctx context.Context, date time.Time) error
}

// Service manages the holiday table.
type Service struct {
	repo Repository
}

// NewService creates a holiday service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns holidays in date order. A non-zero year keeps only that year.
func (s *Service) List(ctx context.Context, year int) ([]domain.Holiday, error) {
	all, err := s.repo.ListHolidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}

	out := make([]domain.Holiday, 0, len(all))
	for _, h := range all {
		if year != 0 && h.Date.Year() != year {
			continue
		}
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b domain.Holiday) int { return a.Date.Compare(b.Date) })
	return out, nil
}

// Add records one holiday. Adding an existing date renames it.
func (s *Service) Add(ctx context.Context, date time.Time, name string) (domain.Holiday, error) {
	if date.IsZero() {
		return domain.Holiday{}, fmt.Errorf("%w: date", domain.ErrRequiredField)
	}
	h := domain.Holiday{Date: domain.DateOf(date), Name: strings.TrimSpace(name)}

	if _, err := s.repo.UpsertHolidays(ctx, []domain.Holiday{h}); err != nil {
		return domain.Holiday{}, fmt.Errorf("failed to add holiday: %w", err)
	}

	slog.InfoContext(ctx, "holiday added", "date", h.Date.Format(domain.DateLayout), "name", h.Name)
	return h, nil
}

// Import loads a YAML holiday list (see calendar.DecodeHolidays) and upserts it.
func (s *Service) Import(ctx context.Context, r io.Reader) (int, error) {
	parsed, err := calendar.DecodeHolidays(r)
	if err != nil {
		return 0, err
	}
	if len(parsed) == 0 {
		return 0, nil
	}

	n, err := s.repo.UpsertHolidays(ctx, parsed)
	if err != nil {
		return 0, fmt.Errorf("failed to import holidays: %w", err)
	}

	slog.InfoContext(ctx, "holidays imported", "count", n)
	return n, nil
}

// ImportFile imports the YAML holiday list at path.
func (s *Service) ImportFile(ctx context.Context, path string) (int, error) {
	parsed, err := calendar.LoadHolidays(path)
	if err != nil {
		return 0, err
	}
	if len(parsed) == 0 {
		return 0, nil
	}
	n, err := s.repo.UpsertHolidays(ctx, parsed)
	if err != nil {
		return 0, fmt.Errorf("failed to import holidays from %s: %w", path, err)
	}
	slog.InfoContext(ctx, "holidays imported", "count", n, "path", path)
	return n, nil
}

// Delete removes the holiday on date.
func (s *Service) Delete(ctx context.Context, date time.Time) error {
	if err := s.repo.DeleteHoliday(ctx, domain.DateOf(date)); err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return nil
}
