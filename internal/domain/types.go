package domain

import "time"

// TaskFilter selects tasks from storage.
// Nil fields apply no filter. Due bounds are inclusive calendar dates.
//
// Common use cases:
//   - Dashboard period: DueFrom/DueTo from a reporting period
//   - "My open work": AssignedTo=name, Statuses=[Yet to Start, WIP]
//   - Regulatory only: ActivityType=R
type TaskFilter struct {
	Statuses     []TaskStatus
	Criticality  *Criticality
	ActivityType *ActivityType
	AssignedTo   *string
	CustomerID   *string
	DueFrom      *time.Time
	DueTo        *time.Time

	// Limit caps the result size. Zero means no limit.
	Limit int
}

// ReminderFilter selects queued notifications.
type ReminderFilter struct {
	Status *ReminderStatus
	TaskID *string
	Limit  int
}

// UpdateTaskParams is a partial update of a task.
// Only fields named in UpdateMask are applied.
type UpdateTaskParams struct {
	TaskID     string
	UpdateMask []string

	Status         *TaskStatus
	Remarks        *string
	ReviewerStatus *string
	Link           *string
}

// TaskStats is the dashboard summary over a set of classified tasks.
type TaskStats struct {
	Total              int `json:"total_activities"`
	Completed          int `json:"completed_activities"`
	CompletedWithDelay int `json:"completed_with_delay"`
	Ongoing            int `json:"ongoing_activities"`
	OngoingWithDelay   int `json:"ongoing_with_delay"`
	Due                int `json:"yet_to_start"`
	DueWithDelay       int `json:"yet_to_start_with_delay"`
	Pending            int `json:"pending_tasks"`
	Unknown            int `json:"unknown"`

	// DataIntegrityIssues counts Completed tasks without an actual date.
	DataIntegrityIssues int `json:"data_integrity_issues"`

	PieChart         map[DerivedStatus]int `json:"pie_chart"`
	BarChart         BarChart              `json:"bar_chart"`
	CriticalityChart GroupedChart          `json:"criticality_chart"`
	ActivityChart    GroupedChart          `json:"activity_type_chart"`
}

// BarChart is a single-series chart.
type BarChart struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// GroupedChart has one dataset per derived status over shared labels.
type GroupedChart struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// ChartDataset is one series of a GroupedChart.
type ChartDataset struct {
	Label string `json:"label"`
	Data  []int  `json:"data"`
}

// ReportSnapshot is an archived copy of dashboard statistics.
type ReportSnapshot struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Today       string    `json:"today"`
	Period      string    `json:"period"`
	Activity    string    `json:"activity"`
	Stats       TaskStats `json:"stats"`
}

// TaskView is a task together with its derived reporting status.
type TaskView struct {
	Task    *Task
	Derived DerivedStatus
}
