// Package messaging schedules recurring free-form messages.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rezkam/awe/internal/calendar"
	"github.com/rezkam/awe/internal/domain"
	"github.com/rezkam/awe/internal/recurring"
	"github.com/rezkam/awe/internal/reminder"
)

// Repository defines storage operations for scheduled messages.
type Repository interface {
	ListHolidays(ctx context.Context) ([]domain.Holiday, error)

	// FindCustomer returns domain.ErrCustomerNotFound if the customer doesn't exist.
	FindCustomer(ctx context.Context, id string) (*domain.Customer, error)

	// CreateReminders inserts entries in one statement batch, skipping duplicates.
	// Returns the number inserted.
	CreateReminders(ctx context.Context, entries []*domain.ReminderEntry) (int, error)

	ListReminders(ctx context.Context, filter domain.ReminderFilter) ([]*domain.ReminderEntry, error)
}

// Service schedules messages into the reminder queue.
type Service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a messaging service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleRequest describes a message and its cadence.
type ScheduleRequest struct {
	Body string

	// Date is the first occurrence. Zero means today.
	Date     time.Time
	SendTime *domain.ClockTime

	// Frequency is a cadence code. Empty means one-time.
	Frequency string

	// Criticality decides which way occurrences move off weekends and holidays.
	Criticality string

	Recipients  []string // email addresses
	CustomerIDs []string // customers whose email is added to Recipients
}

// ScheduleResult reports what was queued.
type ScheduleResult struct {
	Dates      []time.Time
	Recipients []string
	Scheduled  int

	// Duplicates counts entries already queued for the same recipient and day.
	Duplicates int
}

// Schedule queues one message entry per recipient per occurrence. Occurrences come
// from the frequency and are moved to working days; occurrences that land on the
// same working day are sent once.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*ScheduleResult, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, domain.ErrMessageRequired
	}

	freq := domain.FrequencyOneTime
	if code := strings.TrimSpace(req.Frequency); code != "" {
		var err error
		if freq, err = domain.ParseFrequency(code); err != nil {
			return nil, err
		}
	}

	recipients, err := s.recipients(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	base := req.Date
	if base.IsZero() {
		base = now
	}

	holidays, err := s.repo.ListHolidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}
	dates, err := s.occurrences(ctx, base, freq, req.Criticality, calendar.HolidaySetOf(holidays))
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.ReminderEntry, 0, len(dates)*len(recipients))
	for _, date := range dates {
		for _, recipient := range recipients {
			entry, err := reminder.ScheduleMessage(date, recipient, body, now, req.SendTime)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}

	inserted, err := s.repo.CreateReminders(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to queue messages: %w", err)
	}

	slog.InfoContext(ctx, "messages scheduled",
		"frequency", freq.String(),
		"occurrences", len(dates),
		"recipients", len(recipients),
		"queued", inserted)

	return &ScheduleResult{
		Dates:      dates,
		Recipients: recipients,
		Scheduled:  inserted,
		Duplicates: len(entries) - inserted,
	}, nil
}

// occurrences generates and adjusts the send dates. Past dates are moved forward
// to today before duplicates are collapsed.
func (s *Service) occurrences(ctx context.Context, base time.Time, freq domain.Frequency, criticality string, holidays calendar.HolidaySet) ([]time.Time, error) {
	raw, err := recurring.Generate(domain.DateOf(base), freq, recurring.DefaultCount)
	if err != nil {
		return nil, err
	}
	today := domain.DateOf(s.now())

	dates := make([]time.Time, 0, len(raw))
	for _, d := range raw {
		d = calendar.AdjustOrKeep(ctx, d, criticality, holidays)
		if d.Before(today) {
			d = today
		}
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(dates, time.Time.Equal), nil
}

func (s *Service) recipients(ctx context.Context, req ScheduleRequest) ([]string, error) {
	var out []string
	for _, r := range req.Recipients {
		r = strings.TrimSpace(r)
		if err := s.validate.Var(r, "required,email"); err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRecipient, r)
		}
		out = append(out, strings.ToLower(r))
	}
	for _, id := range req.CustomerIDs {
		customer, err := s.repo.FindCustomer(ctx, id)
		if err != nil {
			return nil, err
		}
		if customer.Email == "" {
			slog.WarnContext(ctx, "customer has no email, skipping", "customer_id", id)
			continue
		}
		out = append(out, strings.ToLower(customer.Email))
	}

	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil, domain.ErrRecipientRequired
	}
	return out, nil
}

// ListReminders returns queued notifications, most recent send date first.
func (s *Service) ListReminders(ctx context.Context, filter domain.ReminderFilter) ([]*domain.ReminderEntry, error) {
	entries, err := s.repo.ListReminders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return entries, nil
}
