// Package catalog loads and looks up activities, actors and customers.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rezkam/awe/internal/domain"
)

// Repository defines storage operations for the catalog.
type Repository interface {
	// UpsertActivity inserts or replaces the activity with the same ID.
	UpsertActivity(ctx context.Context, a *domain.Activity) error

	// UpsertActor inserts the actor or updates the email of the actor with the same
	// name. The stored actor is returned with its persisted ID.
	UpsertActor(ctx context.Context, a *domain.Actor) (*domain.Actor, error)

	// UpsertCustomer inserts or replaces the customer with the same ID.
	UpsertCustomer(ctx context.Context, c *domain.Customer) error

	ListActivities(ctx context.Context) ([]*domain.Activity, error)
	ListActors(ctx context.Context) ([]*domain.Actor, error)
	ListCustomers(ctx context.Context) ([]*domain.Customer, error)

	FindActivity(ctx context.Context, id string) (*domain.Activity, error)
	FindCustomer(ctx context.Context, id string) (*domain.Customer, error)
}

// Service seeds and reads the catalog.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService creates a catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// seedFile is the YAML layout accepted by Seed:
//
//	activities:
//	  - id: A1
//	    name: GST Filing
//	    frequency: 12
//	    duration: 3
//	    criticality: High
//	    type: R
//	    sub_activities: [Collect invoices, File return]
//	actors:
//	  - name: Asha
//	    email: asha@example.com
//	customers:
//	  - id: C1
//	    name: Acme Traders
//	    email: accounts@acme.example
type seedFile struct {
	Activities []seedActivity `yaml:"activities" validate:"dive"`
	Actors     []seedActor    `yaml:"actors" validate:"dive"`
	Customers  []seedCustomer `yaml:"customers" validate:"dive"`
}

type seedActivity struct {
	ID            string   `yaml:"id" validate:"required,excludes=-"`
	Name          string   `yaml:"name" validate:"required"`
	Frequency     int      `yaml:"frequency"`
	Duration      float64  `yaml:"duration" validate:"gte=0"`
	Criticality   string   `yaml:"criticality"`
	Type          string   `yaml:"type" validate:"required"`
	SubActivities []string `yaml:"sub_activities"`
}

type seedActor struct {
	Name  string `yaml:"name" validate:"required"`
	Email string `yaml:"email" validate:"omitempty,email"`
}

type seedCustomer struct {
	ID    string `yaml:"id" validate:"required,excludes=-"`
	Name  string `yaml:"name" validate:"required"`
	Email string `yaml:"email" validate:"omitempty,email"`
}

// SeedResult counts the rows written by Seed.
type SeedResult struct {
	Activities int `json:"activities"`
	Actors     int `json:"actors"`
	Customers  int `json:"customers"`
}

// Seed validates a YAML catalog and upserts every entry. Nothing is written
// when any entry is invalid.
func (s *Service) Seed(ctx context.Context, r io.Reader) (SeedResult, error) {
	var res SeedResult

	var file seedFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		return res, fmt.Errorf("%w: catalog: %w", domain.ErrMalformedDocument, err)
	}
	if err := s.validate.Struct(file); err != nil {
		return res, fmt.Errorf("%w: %w", domain.ErrRequiredField, err)
	}

	activities := make([]*domain.Activity, 0, len(file.Activities))
	for _, a := range file.Activities {
		activity, err := a.toDomain()
		if err != nil {
			return res, fmt.Errorf("activity %s: %w", a.ID, err)
		}
		activities = append(activities, activity)
	}

	for _, a := range activities {
		if err := s.repo.UpsertActivity(ctx, a); err != nil {
			return res, fmt.Errorf("failed to store activity %s: %w", a.ID, err)
		}
		res.Activities++
	}
	for _, a := range file.Actors {
		id, err := uuid.NewV7()
		if err != nil {
			return res, fmt.Errorf("failed to generate actor id: %w", err)
		}
		actor := &domain.Actor{ID: id.String(), Name: strings.TrimSpace(a.Name), Email: strings.ToLower(a.Email)}
		if _, err := s.repo.UpsertActor(ctx, actor); err != nil {
			return res, fmt.Errorf("failed to store actor %s: %w", a.Name, err)
		}
		res.Actors++
	}
	for _, c := range file.Customers {
		customer := &domain.Customer{ID: c.ID, Name: strings.TrimSpace(c.Name), Email: strings.ToLower(c.Email)}
		if err := s.repo.UpsertCustomer(ctx, customer); err != nil {
			return res, fmt.Errorf("failed to store customer %s: %w", c.ID, err)
		}
		res.Customers++
	}

	slog.InfoContext(ctx, "catalog seeded",
		"activities", res.Activities,
		"actors", res.Actors,
		"customers", res.Customers)
	return res, nil
}

// SeedFile seeds the catalog from the YAML file at path.
func (s *Service) SeedFile(ctx context.Context, path string) (SeedResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return SeedResult{}, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	return s.Seed(ctx, f)
}

func (a seedActivity) toDomain() (*domain.Activity, error) {
	freq, err := domain.NewFrequency(a.Frequency)
	if err != nil {
		return nil, err
	}
	crit, err := domain.NewCriticality(a.Criticality)
	if err != nil {
		return nil, err
	}
	typ, err := domain.NewActivityType(a.Type)
	if err != nil {
		return nil, err
	}
	return &domain.Activity{
		ID:            a.ID,
		Name:          strings.TrimSpace(a.Name),
		Frequency:     freq,
		Duration:      a.Duration,
		Criticality:   crit,
		Type:          typ,
		SubActivities: a.SubActivities,
	}, nil
}

// Activities lists every activity.
func (s *Service) Activities(ctx context.Context) ([]*domain.Activity, error) {
	return s.repo.ListActivities(ctx)
}

// Actors lists every actor.
func (s *Service) Actors(ctx context.Context) ([]*domain.Actor, error) {
	return s.repo.ListActors(ctx)
}

// Customers lists every customer.
func (s *Service) Customers(ctx context.Context) ([]*domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

// Activity returns domain.ErrActivityNotFound if the activity doesn't exist.
func (s *Service) Activity(ctx context.Context, id string) (*domain.Activity, error) {
	return s.repo.FindActivity(ctx, id)
}

// Customer returns domain.ErrCustomerNotFound if the customer doesn't exist.
func (s *Service) Customer(ctx context.Context, id string) (*domain.Customer, error) {
	return s.repo.FindCustomer(ctx, id)
}
