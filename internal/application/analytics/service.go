// Package analytics builds dashboard statistics over classified tasks.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/awe/internal/classify"
	"github.com/rezkam/awe/internal/domain"
)

// Repository defines the task reads analytics needs.
type Repository interface {
	ListTasks(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error)
}

// Archive persists report snapshots.
type Archive interface {
	Put(ctx context.Context, snapshot *domain.ReportSnapshot) error

	// Get returns domain.ErrSnapshotNotFound if no snapshot has the ID.
	Get(ctx context.Context, id string) (*domain.ReportSnapshot, error)

	List(ctx context.Context) ([]*domain.ReportSnapshot, error)
}

// chartStatuses are the datasets of grouped charts, in display order.
var chartStatuses = []domain.DerivedStatus{
	domain.DerivedCompleted,
	domain.DerivedCompletedWithDelay,
	domain.DerivedOngoing,
	domain.DerivedOngoingWithDelay,
	domain.DerivedDue,
	domain.DerivedDueWithDelay,
}

// Service computes dashboard views.
type Service struct {
	repo    Repository
	archive Archive
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithArchive enables report snapshots.
func WithArchive(a Archive) Option {
	return func(s *Service) {
		s.archive = a
	}
}

// NewService creates an analytics service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StatsFilter narrows the tasks a dashboard covers.
type StatsFilter struct {
	// Activity is an activity type code or label. Empty or "All" means every type.
	Activity string
	Period   classify.Period

	// AssignedTo restricts the dashboard to one actor's tasks.
	AssignedTo *string
}

func (f StatsFilter) taskFilter(today time.Time) (domain.TaskFilter, error) {
	var filter domain.TaskFilter
	if a := strings.TrimSpace(f.Activity); a != "" && !strings.EqualFold(a, "all") {
		t, err := domain.NewActivityType(a)
		if err != nil {
			return filter, err
		}
		filter.ActivityType = &t
	}
	filter.AssignedTo = f.AssignedTo
	f.Period.Apply(&filter, today)
	return filter, nil
}

func (s *Service) load(ctx context.Context, f StatsFilter, today time.Time) ([]*domain.Task, error) {
	filter, err := f.taskFilter(today)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return tasks, nil
}

// Stats returns the dashboard summary for the filter.
func (s *Service) Stats(ctx context.Context, f StatsFilter) (*domain.TaskStats, error) {
	today := s.now()
	tasks, err := s.load(ctx, f, today)
	if err != nil {
		return nil, err
	}
	stats := Summarize(tasks, today)
	if stats.DataIntegrityIssues > 0 {
		slog.WarnContext(ctx, "completed tasks without actual date counted as unknown",
			"count", stats.DataIntegrityIssues)
	}
	return stats, nil
}

// Summarize computes TaskStats over tasks as of today.
func Summarize(tasks []*domain.Task, today time.Time) *domain.TaskStats {
	seq := slices.Values(tasks)
	counts := classify.Tally(seq, today)

	stats := &domain.TaskStats{
		Total:              counts.Total(),
		Completed:          counts[domain.DerivedCompleted],
		CompletedWithDelay: counts[domain.DerivedCompletedWithDelay],
		Ongoing:            counts[domain.DerivedOngoing],
		OngoingWithDelay:   counts[domain.DerivedOngoingWithDelay],
		Due:                counts[domain.DerivedDue],
		DueWithDelay:       counts[domain.DerivedDueWithDelay],
		Pending:            counts[domain.DerivedPending],
		Unknown:            counts[domain.DerivedUnknown],
		PieChart:           make(map[domain.DerivedStatus]int),
	}
	for status, n := range counts {
		if n > 0 {
			stats.PieChart[status] = n
		}
	}
	for _, t := range tasks {
		if classify.CheckIntegrity(t.Status, t.ActualDate) != nil {
			stats.DataIntegrityIssues++
		}
	}

	byName := make(map[string]int)
	for _, t := range tasks {
		byName[t.Name]++
	}
	stats.BarChart.Labels = slices.Sorted(maps.Keys(byName))
	stats.BarChart.Data = make([]int, len(stats.BarChart.Labels))
	for i, name := range stats.BarChart.Labels {
		stats.BarChart.Data[i] = byName[name]
	}

	stats.CriticalityChart = grouped(classify.GroupBy(seq, today, classify.ByCriticality),
		func(c domain.Criticality) string { return string(c) })
	stats.ActivityChart = grouped(classify.GroupBy(seq, today, classify.ByActivityType),
		domain.ActivityType.Label)
	return stats
}

func grouped[K comparable](groups map[K]classify.Counts, label func(K) string) domain.GroupedChart {
	keys := slices.SortedFunc(maps.Keys(groups), func(a, b K) int {
		return strings.Compare(label(a), label(b))
	})

	chart := domain.GroupedChart{
		Labels:   make([]string, len(keys)),
		Datasets: make([]domain.ChartDataset, len(chartStatuses)),
	}
	for i, k := range keys {
		chart.Labels[i] = label(k)
	}
	for i, status := range chartStatuses {
		data := make([]int, len(keys))
		for j, k := range keys {
			data[j] = groups[k][status]
		}
		chart.Datasets[i] = domain.ChartDataset{Label: string(status), Data: data}
	}
	return chart
}

// DetailsType selects how Details matches tasks.
type DetailsType string

const (
	DetailsByStatus      DetailsType = "status"
	DetailsByTaskName    DetailsType = "taskName"
	DetailsByCriticality DetailsType = "criticality"
)

// DetailsFilter picks the tasks behind one dashboard slice.
type DetailsFilter struct {
	StatsFilter
	Type  DetailsType
	Value string

	// Status further narrows a criticality slice to one derived status.
	Status domain.DerivedStatus
}

// Details returns the classified tasks behind a chart slice. Task names match
// exactly first, then ignoring case, then as a case-insensitive substring.
func (s *Service) Details(ctx context.Context, f DetailsFilter) ([]*domain.TaskView, error) {
	switch f.Type {
	case DetailsByStatus, DetailsByTaskName, DetailsByCriticality:
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidFilter, f.Type)
	}
	if strings.TrimSpace(f.Value) == "" {
		return []*domain.TaskView{}, nil
	}

	today := s.now()
	tasks, err := s.load(ctx, f.StatsFilter, today)
	if err != nil {
		return nil, err
	}
	views := make([]*domain.TaskView, 0, len(tasks))
	for t, derived := range classify.ClassifyAll(slices.Values(tasks), today) {
		views = append(views, &domain.TaskView{Task: t, Derived: derived})
	}

	switch f.Type {
	case DetailsByStatus:
		return keep(views, func(v *domain.TaskView) bool {
			return strings.EqualFold(string(v.Derived), f.Value)
		}), nil
	case DetailsByCriticality:
		return keep(views, func(v *domain.TaskView) bool {
			if !strings.EqualFold(string(v.Task.Criticality), f.Value) {
				return false
			}
			return f.Status == "" || v.Derived == f.Status
		}), nil
	default:
		return matchName(views, f.Value), nil
	}
}

func matchName(views []*domain.TaskView, name string) []*domain.TaskView {
	if out := keep(views, func(v *domain.TaskView) bool { return v.Task.Name == name }); len(out) > 0 {
		return out
	}
	if out := keep(views, func(v *domain.TaskView) bool { return strings.EqualFold(v.Task.Name, name) }); len(out) > 0 {
		return out
	}
	lower := strings.ToLower(name)
	return keep(views, func(v *domain.TaskView) bool {
		return strings.Contains(strings.ToLower(v.Task.Name), lower)
	})
}

func keep(views []*domain.TaskView, match func(*domain.TaskView) bool) []*domain.TaskView {
	out := make([]*domain.TaskView, 0)
	for _, v := range views {
		if match(v) {
			out = append(out, v)
		}
	}
	return out
}

// ExportSnapshot computes the dashboard for f and archives it.
func (s *Service) ExportSnapshot(ctx context.Context, f StatsFilter) (*domain.ReportSnapshot, error) {
	if s.archive == nil {
		return nil, domain.ErrArchiveUnavailable
	}
	stats, err := s.Stats(ctx, f)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate snapshot ID: %w", err)
	}
	now := s.now()
	period := f.Period
	if period == "" {
		period = classify.PeriodAll
	}
	activity := f.Activity
	if activity == "" {
		activity = "All"
	}
	snapshot := &domain.ReportSnapshot{
		ID:          id.String(),
		GeneratedAt: now.UTC(),
		Today:       domain.DateOf(now).Format(domain.DateLayout),
		Period:      string(period),
		Activity:    activity,
		Stats:       *stats,
	}
	if err := s.archive.Put(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to archive snapshot: %w", err)
	}

	slog.InfoContext(ctx, "report snapshot archived",
		"snapshot_id", snapshot.ID,
		"period", snapshot.Period,
		"total", stats.Total)
	return snapshot, nil
}

// GetSnapshot returns an archived snapshot.
func (s *Service) GetSnapshot(ctx context.Context, id string) (*domain.ReportSnapshot, error) {
	if s.archive == nil {
		return nil, domain.ErrArchiveUnavailable
	}
	if id == "" {
		return nil, domain.ErrSnapshotNotFound
	}
	return s.archive.Get(ctx, id)
}

// ListSnapshots returns archived snapshots, newest first.
func (s *Service) ListSnapshots(ctx context.Context) ([]*domain.ReportSnapshot, error) {
	if s.archive == nil {
		return nil, domain.ErrArchiveUnavailable
	}
	snapshots, err := s.archive.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	slices.SortFunc(snapshots, func(a, b *domain.ReportSnapshot) int {
		return b.GeneratedAt.Compare(a.GeneratedAt)
	})
	return snapshots, nil
}
