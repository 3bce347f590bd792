package handler

import (
	"context"
	"net/http"

	"github.com/rezkam/awe/internal/infrastructure/http/response"
)

type DispatcherStatusResponse struct {
	Running bool `json:"running"`
	Changed bool `json:"changed"`
}

func (h *Handler) requireDispatcher(w http.ResponseWriter) bool {
	if h.Dispatcher == nil {
		response.Unavailable(w, "reminder dispatcher runs out of process")
		return false
	}
	return true
}

// DispatcherStatus handles GET /v1/dispatcher.
func (h *Handler) DispatcherStatus(w http.ResponseWriter, _ *http.Request) {
	if !h.requireDispatcher(w) {
		return
	}
	response.OK(w, DispatcherStatusResponse{Running: h.Dispatcher.Running()})
}

// StartDispatcher handles POST /v1/dispatcher/start. The dispatcher outlives
// the request, so it keeps the request's values but not its cancellation.
func (h *Handler) StartDispatcher(w http.ResponseWriter, r *http.Request) {
	if !h.requireDispatcher(w) {
		return
	}
	started := h.Dispatcher.Start(context.WithoutCancel(r.Context()))
	response.OK(w, DispatcherStatusResponse{Running: true, Changed: started})
}

// StopDispatcher handles POST /v1/dispatcher/stop.
func (h *Handler) StopDispatcher(w http.ResponseWriter, _ *http.Request) {
	if !h.requireDispatcher(w) {
		return
	}
	stopped := h.Dispatcher.Stop()
	response.OK(w, DispatcherStatusResponse{Running: false, Changed: stopped})
}

// RunDispatcher handles POST /v1/dispatcher/run: one dispatch cycle, now.
func (h *Handler) RunDispatcher(w http.ResponseWriter, r *http.Request) {
	if !h.requireDispatcher(w) {
		return
	}
	res, err := h.Dispatcher.RunOnce(r.Context())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, res)
}
