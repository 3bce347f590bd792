package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rezkam/awe/internal/domain"
)

// === Catalog Repository Implementation ===
// Implements application/catalog.Repository and the catalog lookups of
// application/assignment.Repository.

const activityColumns = `id, name, frequency, duration, criticality, activity_type, sub_activities`

// UpsertActivity inserts or replaces the activity with the same ID.
func (s *Store) UpsertActivity(ctx context.Context, a *domain.Activity) error {
	subs := a.SubActivities
	if subs == nil {
		subs = []string{}
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO activities (`+activityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			frequency = EXCLUDED.frequency,
			duration = EXCLUDED.duration,
			criticality = EXCLUDED.criticality,
			activity_type = EXCLUDED.activity_type,
			sub_activities = EXCLUDED.sub_activities`,
		a.ID, a.Name, int(a.Frequency), a.Duration, string(a.Criticality), string(a.Type), subs)
	if err != nil {
		return fmt.Errorf("failed to upsert activity: %w", err)
	}
	return nil
}

// FindActivity retrieves an activity by ID.
func (s *Store) FindActivity(ctx context.Context, id string) (*domain.Activity, error) {
	rows, _ := s.db.Query(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = $1`, id)
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[activityRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrActivityNotFound, id)
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return row.toDomain(), nil
}

// ListActivities returns every activity ordered by ID.
func (s *Store) ListActivities(ctx context.Context) ([]*domain.Activity, error) {
	rows, _ := s.db.Query(ctx, `SELECT `+activityColumns+` FROM activities ORDER BY id`)
	dbRows, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[activityRow])
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	out := make([]*domain.Activity, len(dbRows))
	for i, r := range dbRows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// UpsertActor inserts the actor, or updates the email of the actor that already
// has the name. The returned actor carries the stored ID.
func (s *Store) UpsertActor(ctx context.Context, a *domain.Actor) (*domain.Actor, error) {
	rows, _ := s.db.Query(ctx, `
		INSERT INTO actors (id, name, email) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, name, email`,
		a.ID, a.Name, a.Email)
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[actorRow])
	if err != nil {
		return nil, fmt.Errorf("failed to upsert actor: %w", err)
	}
	return row.toDomain(), nil
}

// FindActorByName retrieves an actor by exact name.
func (s *Store) FindActorByName(ctx context.Context, name string) (*domain.Actor, error) {
	rows, _ := s.db.Query(ctx, `SELECT id, name, email FROM actors WHERE name = $1`, name)
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[actorRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrActorNotFound, name)
		}
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}
	return row.toDomain(), nil
}

// ListActors returns every actor ordered by name.
func (s *Store) ListActors(ctx context.Context) ([]*domain.Actor, error) {
	rows, _ := s.db.Query(ctx, `SELECT id, name, email FROM actors ORDER BY name`)
	dbRows, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[actorRow])
	if err != nil {
		return nil, fmt.Errorf("failed to list actors: %w", err)
	}
	out := make([]*domain.Actor, len(dbRows))
	for i, r := range dbRows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// UpsertCustomer inserts or replaces the customer with the same ID.
func (s *Store) UpsertCustomer(ctx context.Context, c *domain.Customer) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO customers (id, name, email) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email`,
		c.ID, c.Name, c.Email)
	if err != nil {
		return fmt.Errorf("failed to upsert customer: %w", err)
	}
	return nil
}

// FindCustomer retrieves a customer by ID.
func (s *Store) FindCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	rows, _ := s.db.Query(ctx, `SELECT id, name, email FROM customers WHERE id = $1`, id)
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[customerRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, id)
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return row.toDomain(), nil
}

// ListCustomers returns every customer ordered by ID.
func (s *Store) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	rows, _ := s.db.Query(ctx, `SELECT id, name, email FROM customers ORDER BY id`)
	dbRows, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[customerRow])
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	out := make([]*domain.Customer, len(dbRows))
	for i, r := range dbRows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// === Holidays ===

// ListHolidays returns the whole holiday table ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]domain.Holiday, error) {
	rows, _ := s.db.Query(ctx, `SELECT holiday_date, name FROM holidays ORDER BY holiday_date`)
	dbRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[holidayRow])
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	out := make([]domain.Holiday, len(dbRows))
	for i, r := range dbRows {
		out[i] = domain.Holiday{Date: domain.DateOf(r.HolidayDate), Name: r.Name}
	}
	return out, nil
}

// UpsertHolidays writes holidays in one batch, renaming dates already present.
func (s *Store) UpsertHolidays(ctx context.Context, holidays []domain.Holiday) (int, error) {
	if len(holidays) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, h := range holidays {
		batch.Queue(`
			INSERT INTO holidays (holiday_date, name) VALUES ($1, $2)
			ON CONFLICT (holiday_date) DO UPDATE SET name = EXCLUDED.name`,
			domain.DateOf(h.Date), h.Name)
	}

	written := 0
	br := s.db.SendBatch(ctx, batch)
	for range holidays {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return 0, fmt.Errorf("failed to upsert holiday: %w", err)
		}
		written += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("failed to upsert holidays: %w", err)
	}
	return written, nil
}

// DeleteHoliday removes the holiday on date.
func (s *Store) DeleteHoliday(ctx context.Context, date time.Time) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM holidays WHERE holiday_date = $1`, domain.DateOf(date))
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrHolidayNotFound, date.Format(domain.DateLayout))
	}
	return nil
}
