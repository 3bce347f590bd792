package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/awe/internal/application/analytics"
	"github.com/rezkam/awe/internal/classify"
	"github.com/rezkam/awe/internal/domain"
	"github.com/rezkam/awe/internal/infrastructure/http/response"
)

func statsFilter(q url.Values) (analytics.StatsFilter, error) {
	period, err := classify.ParsePeriod(q.Get("period"))
	if err != nil {
		return analytics.StatsFilter{}, err
	}
	f := analytics.StatsFilter{Activity: q.Get("activity"), Period: period}
	if s := q.Get("assignee"); s != "" {
		f.AssignedTo = &s
	}
	return f, nil
}

// Stats handles GET /v1/analytics/stats?period=&activity=&assignee=.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	f, err := statsFilter(r.URL.Query())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	stats, err := h.Analytics.Stats(r.Context(), f)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, stats)
}

// Details handles GET /v1/analytics/details. filterType is status, taskName
// or criticality; filterValue is the chart slice clicked. status narrows a
// criticality slice.
func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sf, err := statsFilter(q)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	f := analytics.DetailsFilter{
		StatsFilter: sf,
		Type:        analytics.DetailsType(q.Get("filterType")),
		Value:       q.Get("filterValue"),
	}
	if f.Type == analytics.DetailsByStatus {
		// Unknown labels fall through unchanged and match nothing.
		if d, err := domain.NewDerivedStatus(f.Value); err == nil {
			f.Value = string(d)
		}
	}
	if s := q.Get("status"); s != "" {
		d, err := domain.NewDerivedStatus(s)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		f.Status = d
	}

	views, err := h.Analytics.Details(r.Context(), f)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"tasks": mapViews(views)})
}

// ExportSnapshot handles POST /v1/analytics/snapshots?period=&activity=.
func (h *Handler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	f, err := statsFilter(r.URL.Query())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	snapshot, err := h.Analytics.ExportSnapshot(r.Context(), f)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.Created(w, snapshot)
}

// ListSnapshots handles GET /v1/analytics/snapshots.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.Analytics.ListSnapshots(r.Context())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	if snapshots == nil {
		snapshots = []*domain.ReportSnapshot{}
	}
	response.OK(w, map[string]any{"snapshots": snapshots})
}

// GetSnapshot handles GET /v1/analytics/snapshots/{snapshot_id}.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.Analytics.GetSnapshot(r.Context(), chi.URLParam(r, "snapshot_id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, snapshot)
}
