package handler

import (
	"net/http"
	"strconv"

	"github.com/rezkam/awe/internal/application/messaging"
	"github.com/rezkam/awe/internal/domain"
	"github.com/rezkam/awe/internal/infrastructure/http/response"
)

// ScheduleMessageRequest is the body of POST /v1/messages.
type ScheduleMessageRequest struct {
	Description string   `json:"description" validate:"required"`
	Date        string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time        string   `json:"time" validate:"omitempty,datetime=15:04"`
	Frequency   string   `json:"frequency"`
	Criticality string   `json:"criticality" validate:"omitempty,oneof=Low Medium High low medium high"`
	Recipients  []string `json:"recipients" validate:"dive,email"`
	CustomerIDs []string `json:"customer_ids" validate:"dive,required"`
}

type ScheduleMessageResponse struct {
	Dates      []string `json:"dates"`
	Recipients []string `json:"recipients"`
	Scheduled  int      `json:"scheduled"`
	Duplicates int      `json:"duplicates"`
}

// ScheduleMessage handles POST /v1/messages.
func (h *Handler) ScheduleMessage(w http.ResponseWriter, r *http.Request) {
	var req ScheduleMessageRequest
	if !h.decode(w, r, &req) {
		return
	}

	sr := messaging.ScheduleRequest{
		Body:        req.Description,
		Frequency:   req.Frequency,
		Criticality: req.Criticality,
		Recipients:  req.Recipients,
		CustomerIDs: req.CustomerIDs,
	}
	if req.Date != "" {
		d, err := domain.ParseDate(req.Date)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		sr.Date = d
	}
	if req.Time != "" {
		t, err := domain.ParseClockTime(req.Time)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		sr.SendTime = &t
	}

	res, err := h.Messaging.Schedule(r.Context(), sr)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	dates := make([]string, 0, len(res.Dates))
	for _, d := range res.Dates {
		dates = append(dates, dateString(d))
	}
	response.Created(w, ScheduleMessageResponse{
		Dates:      dates,
		Recipients: res.Recipients,
		Scheduled:  res.Scheduled,
		Duplicates: res.Duplicates,
	})
}

// ListReminders handles GET /v1/reminders?status=&task_id=&limit=.
func (h *Handler) ListReminders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.ReminderFilter
	if s := q.Get("status"); s != "" {
		st, err := domain.NewReminderStatus(s)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		filter.Status = &st
	}
	if s := q.Get("task_id"); s != "" {
		filter.TaskID = &s
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			response.ValidationError(w, "limit", "must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	entries, err := h.Messaging.ListReminders(r.Context(), filter)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"reminders": mapReminders(entries)})
}
