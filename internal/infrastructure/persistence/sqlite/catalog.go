package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rezkam/awe/internal/domain"
)

const activityColumns = `id, name, frequency, duration, criticality, activity_type, sub_activities`

func scanActivity(r rowScanner) (*domain.Activity, error) {
	var (
		a         domain.Activity
		freq      int
		crit, typ string
		subs      string
	)
	if err := r.Scan(&a.ID, &a.Name, &freq, &a.Duration, &crit, &typ, &subs); err != nil {
		return nil, err
	}
	a.Frequency = domain.Frequency(freq)
	a.Criticality = domain.Criticality(crit)
	a.Type = domain.ActivityType(typ)
	if err := json.Unmarshal([]byte(subs), &a.SubActivities); err != nil {
		return nil, fmt.Errorf("bad sub_activities for %s: %w", a.ID, err)
	}
	return &a, nil
}

// UpsertActivity inserts or replaces the activity with the same ID.
func (s *Store) UpsertActivity(ctx context.Context, a *domain.Activity) error {
	subs := a.SubActivities
	if subs == nil {
		subs = []string{}
	}
	subsJSON, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("encode sub activities: %w", err)
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO activities (`+activityColumns+`) VALUES (?,?,?,?,?,?,?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			frequency = excluded.frequency,
			duration = excluded.duration,
			criticality = excluded.criticality,
			activity_type = excluded.activity_type,
			sub_activities = excluded.sub_activities`,
		a.ID, a.Name, int(a.Frequency), a.Duration, string(a.Criticality), string(a.Type), string(subsJSON))
	if err != nil {
		return fmt.Errorf("upsert activity: %w", err)
	}
	return nil
}

// FindActivity retrieves an activity by ID.
func (s *Store) FindActivity(ctx context.Context, id string) (*domain.Activity, error) {
	a, err := scanActivity(s.q.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrActivityNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return a, nil
}

// ListActivities returns every activity ordered by ID.
func (s *Store) ListActivities(ctx context.Context) ([]*domain.Activity, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+activityColumns+` FROM activities ORDER BY id`)
	out, err := collect(rows, err, scanActivity)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return out, nil
}

func scanActor(r rowScanner) (*domain.Actor, error) {
	var a domain.Actor
	if err := r.Scan(&a.ID, &a.Name, &a.Email); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpsertActor inserts the actor, or updates the email of the actor that
// already has the name. The returned actor carries the stored ID.
func (s *Store) UpsertActor(ctx context.Context, a *domain.Actor) (*domain.Actor, error) {
	stored, err := scanActor(s.q.QueryRowContext(ctx, `
		INSERT INTO actors (id, name, email) VALUES (?,?,?)
		ON CONFLICT (name) DO UPDATE SET email = excluded.email
		RETURNING id, name, email`,
		a.ID, a.Name, a.Email))
	if err != nil {
		return nil, fmt.Errorf("upsert actor: %w", err)
	}
	return stored, nil
}

// FindActorByName retrieves an actor by exact name.
func (s *Store) FindActorByName(ctx context.Context, name string) (*domain.Actor, error) {
	a, err := scanActor(s.q.QueryRowContext(ctx, `SELECT id, name, email FROM actors WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrActorNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get actor: %w", err)
	}
	return a, nil
}

// ListActors returns every actor ordered by name.
func (s *Store) ListActors(ctx context.Context) ([]*domain.Actor, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id, name, email FROM actors ORDER BY name`)
	out, err := collect(rows, err, scanActor)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	return out, nil
}

func scanCustomer(r rowScanner) (*domain.Customer, error) {
	var c domain.Customer
	if err := r.Scan(&c.ID, &c.Name, &c.Email); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertCustomer inserts or replaces the customer with the same ID.
func (s *Store) UpsertCustomer(ctx context.Context, c *domain.Customer) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO customers (id, name, email) VALUES (?,?,?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, email = excluded.email`,
		c.ID, c.Name, c.Email)
	if err != nil {
		return fmt.Errorf("upsert customer: %w", err)
	}
	return nil
}

// FindCustomer retrieves a customer by ID.
func (s *Store) FindCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := scanCustomer(s.q.QueryRowContext(ctx, `SELECT id, name, email FROM customers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// ListCustomers returns every customer ordered by ID.
func (s *Store) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id, name, email FROM customers ORDER BY id`)
	out, err := collect(rows, err, scanCustomer)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

// ListHolidays returns the whole holiday table ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]domain.Holiday, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT holiday_date, name FROM holidays ORDER BY holiday_date`)
	out, err := collect(rows, err, func(r rowScanner) (domain.Holiday, error) {
		var date, name string
		if err := r.Scan(&date, &name); err != nil {
			return domain.Holiday{}, err
		}
		d, err := domain.ParseDate(date)
		if err != nil {
			return domain.Holiday{}, err
		}
		return domain.Holiday{Date: d, Name: name}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return out, nil
}

// UpsertHolidays writes holidays, renaming dates already present.
func (s *Store) UpsertHolidays(ctx context.Context, holidays []domain.Holiday) (int, error) {
	written := 0
	for _, h := range holidays {
		res, err := s.q.ExecContext(ctx, `
			INSERT INTO holidays (holiday_date, name) VALUES (?,?)
			ON CONFLICT (holiday_date) DO UPDATE SET name = excluded.name`,
			dateText(h.Date), h.Name)
		if err != nil {
			return written, fmt.Errorf("upsert holiday: %w", err)
		}
		n, _ := res.RowsAffected()
		written += int(n)
	}
	return written, nil
}

// DeleteHoliday removes the holiday on date.
func (s *Store) DeleteHoliday(ctx context.Context, date time.Time) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM holidays WHERE holiday_date = ?`, dateText(date))
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrHolidayNotFound, dateText(date))
	}
	return nil
}
