// Package handler adapts JSON HTTP requests to the application services.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/awe/internal/application/analytics"
	"github.com/rezkam/awe/internal/application/assignment"
	"github.com/rezkam/awe/internal/application/catalog"
	"github.com/rezkam/awe/internal/application/holidays"
	"github.com/rezkam/awe/internal/application/messaging"
	"github.com/rezkam/awe/internal/application/worker"
	mw "github.com/rezkam/awe/internal/infrastructure/http/middleware"
	"github.com/rezkam/awe/internal/infrastructure/http/response"
)

// Dispatcher is the control surface of an in-process reminder dispatcher.
type Dispatcher interface {
	Start(ctx context.Context) bool
	Stop() bool
	Running() bool
	RunOnce(ctx context.Context) (worker.Result, error)
}

// Services are the application services behind the API. Dispatcher may be nil
// when reminders are dispatched by a separate worker process.
type Services struct {
	Assignments *assignment.Service
	Analytics   *analytics.Service
	Messaging   *messaging.Service
	Holidays    *holidays.Service
	Catalog     *catalog.Service
	Dispatcher  Dispatcher
}

// Handler serves the /v1 API.
type Handler struct {
	Services
	validator *mw.Validator
}

// NewRouter returns the /v1 routes. Mount it under /api.
func NewRouter(s Services) http.Handler {
	h := &Handler{Services: s, validator: mw.NewValidator()}

	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Post("/assignments", h.Assign)

		r.Get("/tasks", h.ListTasks)
		r.Get("/tasks/{task_id}", h.GetTask)
		r.Patch("/tasks/{task_id}", h.UpdateTask)
		r.Get("/tasks/{task_id}/subtasks", h.ListSubTasks)
		r.Post("/tasks/{task_id}/diary", h.LogTime)
		r.Patch("/subtasks/{subtask_id}", h.UpdateSubTask)

		r.Get("/analytics/stats", h.Stats)
		r.Get("/analytics/details", h.Details)
		r.Post("/analytics/snapshots", h.ExportSnapshot)
		r.Get("/analytics/snapshots", h.ListSnapshots)
		r.Get("/analytics/snapshots/{snapshot_id}", h.GetSnapshot)

		r.Post("/messages", h.ScheduleMessage)
		r.Get("/reminders", h.ListReminders)

		r.Get("/holidays", h.ListHolidays)
		r.Post("/holidays", h.AddHoliday)
		r.Post("/holidays/import", h.ImportHolidays)
		r.Delete("/holidays/{date}", h.DeleteHoliday)

		r.Get("/activities", h.ListActivities)
		r.Get("/activities/{activity_id}", h.GetActivity)
		r.Get("/actors", h.ListActors)
		r.Get("/customers", h.ListCustomers)
		r.Get("/customers/{customer_id}", h.GetCustomer)
		r.Post("/catalog/seed", h.SeedCatalog)

		r.Get("/dispatcher", h.DispatcherStatus)
		r.Post("/dispatcher/start", h.StartDispatcher)
		r.Post("/dispatcher/stop", h.StopDispatcher)
		r.Post("/dispatcher/run", h.RunDispatcher)
	})
	return r
}

// decode reads a JSON body into dst and runs its validate tags. It writes the
// error response and returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			response.BadRequest(w, "request body is required")
			return false
		}
		response.BadRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	if fields := h.validator.Check(dst); fields != nil {
		response.ValidationErrors(w, fields)
		return false
	}
	return true
}
