package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/awe/internal/domain"
	"github.com/rezkam/awe/internal/infrastructure/http/response"
)

// ListHolidays handles GET /v1/holidays?year=.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := 0
	if s := r.URL.Query().Get("year"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			response.ValidationError(w, "year", "must be a positive integer")
			return
		}
		year = n
	}
	list, err := h.Holidays.List(r.Context(), year)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"holidays": mapHolidays(list)})
}

type AddHolidayRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Name string `json:"name"`
}

// AddHoliday handles POST /v1/holidays. Posting an existing date renames it.
func (h *Handler) AddHoliday(w http.ResponseWriter, r *http.Request) {
	var req AddHolidayRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	holiday, err := h.Holidays.Add(r.Context(), date, req.Name)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.Created(w, map[string]any{"holiday": mapHolidays([]domain.Holiday{holiday})[0]})
}

// ImportHolidays handles POST /v1/holidays/import with a YAML holiday list body.
func (h *Handler) ImportHolidays(w http.ResponseWriter, r *http.Request) {
	n, err := h.Holidays.Import(r.Context(), r.Body)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, map[string]int{"imported": n})
}

// DeleteHoliday handles DELETE /v1/holidays/{date}.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	date, err := domain.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	if err := h.Holidays.Delete(r.Context(), date); err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.NoContent(w)
}
