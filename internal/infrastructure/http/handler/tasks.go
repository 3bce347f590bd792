package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/awe/internal/application/assignment"
	"github.com/rezkam/awe/internal/classify"
	"github.com/rezkam/awe/internal/domain"
	"github.com/rezkam/awe/internal/infrastructure/http/response"
)

// AssignRequest is the body of POST /v1/assignments.
type AssignRequest struct {
	ActivityID string  `json:"activity_id" validate:"required"`
	CustomerID string  `json:"customer_id" validate:"required"`
	AssignedTo string  `json:"assigned_to" validate:"required"`
	Reviewer   string  `json:"reviewer"`
	Initiator  string  `json:"initiator"`
	Frequency  string  `json:"frequency"`
	Status     string  `json:"status"`
	Remarks    *string `json:"remarks"`
	Link       *string `json:"link" validate:"omitempty,url"`
}

type AssignResponse struct {
	Task      TaskDTO       `json:"task"`
	SubTasks  []SubTaskDTO  `json:"sub_tasks"`
	Reminders []ReminderDTO `json:"reminders"`
	Notified  bool          `json:"notified"`
}

// Assign handles POST /v1/assignments.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.Assignments.Assign(r.Context(), assignment.AssignRequest{
		ActivityID: req.ActivityID,
		CustomerID: req.CustomerID,
		AssignedTo: req.AssignedTo,
		Reviewer:   req.Reviewer,
		Initiator:  req.Initiator,
		Frequency:  req.Frequency,
		Status:     req.Status,
		Remarks:    req.Remarks,
		Link:       req.Link,
	})
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.Created(w, AssignResponse{
		Task:      MapTaskToDTO(res.Task, res.Derived),
		SubTasks:  mapSubTasks(res.SubTasks),
		Reminders: mapReminders(res.Reminders),
		Notified:  res.Notified,
	})
}

// ListTasks handles GET /v1/tasks.
//
// Query parameters: status and derived (comma separated or repeated),
// criticality, activity, period, assignee, customer, limit.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var req assignment.ListTasksRequest

	for _, s := range queryList(q["status"]) {
		st, err := domain.NewTaskStatus(s)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		req.Filter.Statuses = append(req.Filter.Statuses, st)
	}
	for _, s := range queryList(q["derived"]) {
		d, err := domain.NewDerivedStatus(s)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		req.Derived = append(req.Derived, d)
	}
	if s := q.Get("criticality"); s != "" {
		c, err := domain.NewCriticality(s)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		req.Filter.Criticality = &c
	}
	if s := q.Get("activity"); s != "" && !strings.EqualFold(s, "all") {
		t, err := domain.NewActivityType(s)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		req.Filter.ActivityType = &t
	}
	period, err := classify.ParsePeriod(q.Get("period"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	req.Period = period
	if s := q.Get("assignee"); s != "" {
		req.Filter.AssignedTo = &s
	}
	if s := q.Get("customer"); s != "" {
		req.Filter.CustomerID = &s
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			response.ValidationError(w, "limit", "must be a non-negative integer")
			return
		}
		req.Filter.Limit = n
	}

	views, err := h.Assignments.ListTasks(r.Context(), req)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"tasks": mapViews(views)})
}

// GetTask handles GET /v1/tasks/{task_id}.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	view, err := h.Assignments.GetTask(r.Context(), chi.URLParam(r, "task_id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"task": MapTaskToDTO(view.Task, view.Derived)})
}

// UpdateTaskRequest is the body of PATCH /v1/tasks/{task_id}. Only the fields
// named in update_mask are applied.
type UpdateTaskRequest struct {
	UpdateMask     []string `json:"update_mask" validate:"required,min=1"`
	Status         *string  `json:"status"`
	Remarks        *string  `json:"remarks"`
	ReviewerStatus *string  `json:"reviewer_status"`
	Link           *string  `json:"link"`
}

// UpdateTask handles PATCH /v1/tasks/{task_id}.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	params := domain.UpdateTaskParams{
		TaskID:         chi.URLParam(r, "task_id"),
		UpdateMask:     req.UpdateMask,
		Remarks:        req.Remarks,
		ReviewerStatus: req.ReviewerStatus,
		Link:           req.Link,
	}
	if req.Status != nil {
		st, err := domain.NewTaskStatus(*req.Status)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		params.Status = &st
	}

	view, err := h.Assignments.UpdateTask(r.Context(), params)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"task": MapTaskToDTO(view.Task, view.Derived)})
}

// ListSubTasks handles GET /v1/tasks/{task_id}/subtasks.
func (h *Handler) ListSubTasks(w http.ResponseWriter, r *http.Request) {
	subtasks, err := h.Assignments.ListSubTasks(r.Context(), chi.URLParam(r, "task_id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"sub_tasks": mapSubTasks(subtasks)})
}

type UpdateSubTaskRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateSubTask handles PATCH /v1/subtasks/{subtask_id}.
func (h *Handler) UpdateSubTask(w http.ResponseWriter, r *http.Request) {
	var req UpdateSubTaskRequest
	if !h.decode(w, r, &req) {
		return
	}
	st, err := h.Assignments.UpdateSubTask(r.Context(), chi.URLParam(r, "subtask_id"), req.Status)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"sub_task": mapSubTasks([]*domain.SubTask{st})[0]})
}

// LogTimeRequest is the body of POST /v1/tasks/{task_id}/diary.
type LogTimeRequest struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtfield=Start"`
	Note  *string   `json:"note"`
}

// LogTime handles POST /v1/tasks/{task_id}/diary.
func (h *Handler) LogTime(w http.ResponseWriter, r *http.Request) {
	var req LogTimeRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, err := h.Assignments.LogTime(r.Context(), assignment.LogTimeRequest{
		TaskID: chi.URLParam(r, "task_id"),
		Start:  req.Start,
		End:    req.End,
		Note:   req.Note,
	})
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.Created(w, map[string]any{"entry": DiaryEntryDTO{
		ID:        entry.ID,
		TaskID:    entry.TaskID,
		StartedAt: entry.StartedAt,
		EndedAt:   entry.EndedAt,
		Hours:     entry.Hours(),
		Note:      entry.Note,
	}})
}

// queryList flattens repeated and comma separated query values.
func queryList(values []string) []string {
	var out []string
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
