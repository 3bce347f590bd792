package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/awe/internal/domain"
	"github.com/rezkam/awe/internal/infrastructure/http/response"
)

// ListActivities handles GET /v1/activities.
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.Catalog.Activities(r.Context())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	out := make([]ActivityDTO, 0, len(activities))
	for _, a := range activities {
		out = append(out, mapActivity(a))
	}
	response.OK(w, map[string]any{"activities": out})
}

// GetActivity handles GET /v1/activities/{activity_id}.
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	a, err := h.Catalog.Activity(r.Context(), chi.URLParam(r, "activity_id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"activity": mapActivity(a)})
}

// ListActors handles GET /v1/actors.
func (h *Handler) ListActors(w http.ResponseWriter, r *http.Request) {
	actors, err := h.Catalog.Actors(r.Context())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	out := make([]PartyDTO, 0, len(actors))
	for _, a := range actors {
		out = append(out, PartyDTO{ID: a.ID, Name: a.Name, Email: a.Email})
	}
	response.OK(w, map[string]any{"actors": out})
}

// ListCustomers handles GET /v1/customers.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Catalog.Customers(r.Context())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	out := make([]PartyDTO, 0, len(customers))
	for _, c := range customers {
		out = append(out, customerDTO(c))
	}
	response.OK(w, map[string]any{"customers": out})
}

// GetCustomer handles GET /v1/customers/{customer_id}.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.Catalog.Customer(r.Context(), chi.URLParam(r, "customer_id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"customer": customerDTO(c)})
}

func customerDTO(c *domain.Customer) PartyDTO {
	return PartyDTO{ID: c.ID, Name: c.Name, Email: c.Email}
}

// SeedCatalog handles POST /v1/catalog/seed with a YAML catalog body.
func (h *Handler) SeedCatalog(w http.ResponseWriter, r *http.Request) {
	res, err := h.Catalog.Seed(r.Context(), r.Body)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, res)
}
