package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rezkam/awe/internal/domain"
)

func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// AssignmentExists reports whether the activity is already assigned to the customer.
func (s *Store) AssignmentExists(ctx context.Context, customerID, activityID string) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignments WHERE customer_id = ? AND activity_id = ?`,
		customerID, activityID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return n > 0, nil
}

// CreateAssignment records the assignment of an activity to a customer.
func (s *Store) CreateAssignment(ctx context.Context, a *domain.Assignment) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO assignments (customer_id, activity_id, actor_id, remarks, created_at)
		VALUES (?,?,?,?,?)`,
		a.CustomerID, a.ActivityID, a.ActorID, a.Remarks, instantText(a.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", domain.ErrAlreadyAssigned, a.CustomerID, a.ActivityID)
		}
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

const taskColumns = `id, name, activity_id, customer_id, customer_name, actor_id, assigned_to,
	initiator, reviewer, reviewer_status, status, criticality, activity_type, frequency,
	duration, due_date, actual_date, time_taken, remarks, link, calendar_event_id,
	assigned_at, updated_at`

func scanTask(r rowScanner) (*domain.Task, error) {
	var (
		t                          domain.Task
		reviewer, reviewerStatus   sql.NullString
		status, crit, typ          string
		freq                       int
		due                        string
		actual                     sql.NullString
		timeTaken                  sql.NullFloat64
		remarks, link, calendarEvt sql.NullString
		assignedAt, updatedAt      string
	)
	err := r.Scan(&t.ID, &t.Name, &t.ActivityID, &t.CustomerID, &t.CustomerName, &t.ActorID,
		&t.AssignedTo, &t.Initiator, &reviewer, &reviewerStatus, &status, &crit, &typ, &freq,
		&t.Duration, &due, &actual, &timeTaken, &remarks, &link, &calendarEvt,
		&assignedAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.Reviewer = stringPtr(reviewer)
	t.ReviewerStatus = stringPtr(reviewerStatus)
	t.Status = domain.TaskStatus(status)
	t.Criticality = domain.Criticality(crit)
	t.Type = domain.ActivityType(typ)
	t.Frequency = domain.Frequency(freq)
	t.TimeTaken = floatPtr(timeTaken)
	t.Remarks = stringPtr(remarks)
	t.Link = stringPtr(link)
	t.CalendarEventID = stringPtr(calendarEvt)

	if t.DueDate, err = domain.ParseDate(due); err != nil {
		return nil, err
	}
	if t.ActualDate, err = datePtr(actual); err != nil {
		return nil, err
	}
	if t.AssignedAt, err = parseInstant(assignedAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseInstant(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask inserts a new task.
func (s *Store) CreateTask(ctx context.Context, t *domain.Task) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Name, t.ActivityID, t.CustomerID, t.CustomerName, t.ActorID, t.AssignedTo,
		t.Initiator, t.Reviewer, t.ReviewerStatus, string(t.Status), string(t.Criticality),
		string(t.Type), int(t.Frequency), t.Duration, dateText(t.DueDate),
		nullDateText(t.ActualDate), t.TimeTaken, t.Remarks, t.Link, t.CalendarEventID,
		instantText(t.AssignedAt), instantText(t.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: task %s", domain.ErrAlreadyAssigned, t.ID)
		}
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// FindTask retrieves a task by ID.
func (s *Store) FindTask(ctx context.Context, id string) (*domain.Task, error) {
	t, err := scanTask(s.q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListTasks returns tasks matching filter ordered by due date, then ID.
func (s *Store) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	var (
		conds []string
		args  []any
	)
	if len(filter.Statuses) > 0 {
		conds = append(conds, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, st := range filter.Statuses {
			args = append(args, string(st))
		}
	}
	if filter.Criticality != nil {
		conds = append(conds, "criticality = ?")
		args = append(args, string(*filter.Criticality))
	}
	if filter.ActivityType != nil {
		conds = append(conds, "activity_type = ?")
		args = append(args, string(*filter.ActivityType))
	}
	if filter.AssignedTo != nil {
		conds = append(conds, "assigned_to = ?")
		args = append(args, *filter.AssignedTo)
	}
	if filter.CustomerID != nil {
		conds = append(conds, "customer_id = ?")
		args = append(args, *filter.CustomerID)
	}
	if filter.DueFrom != nil {
		conds = append(conds, "due_date >= ?")
		args = append(args, dateText(*filter.DueFrom))
	}
	if filter.DueTo != nil {
		conds = append(conds, "due_date <= ?")
		args = append(args, dateText(*filter.DueTo))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY due_date, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	tasks, err := collect(rows, err, scanTask)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// SaveTask writes the mutable fields of a task.
func (s *Store) SaveTask(ctx context.Context, t *domain.Task) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE tasks SET
			status = ?, actual_date = ?, time_taken = ?, remarks = ?,
			reviewer_status = ?, link = ?, calendar_event_id = ?, updated_at = ?
		WHERE id = ?`,
		string(t.Status), nullDateText(t.ActualDate), t.TimeTaken, t.Remarks,
		t.ReviewerStatus, t.Link, t.CalendarEventID, instantText(t.UpdatedAt),
		t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, t.ID)
	}
	return nil
}

func scanSubTask(r rowScanner) (*domain.SubTask, error) {
	var (
		st        domain.SubTask
		status    string
		updatedAt string
	)
	if err := r.Scan(&st.ID, &st.TaskID, &st.Name, &status, &updatedAt); err != nil {
		return nil, err
	}
	st.Status = domain.SubTaskStatus(status)
	var err error
	if st.UpdatedAt, err = parseInstant(updatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

// CreateSubTasks inserts subtasks.
func (s *Store) CreateSubTasks(ctx context.Context, subtasks []*domain.SubTask) error {
	for _, st := range subtasks {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO subtasks (id, task_id, name, status, updated_at) VALUES (?,?,?,?,?)`,
			st.ID, st.TaskID, st.Name, string(st.Status), instantText(st.UpdatedAt))
		if err != nil {
			return fmt.Errorf("create subtask: %w", err)
		}
	}
	return nil
}

// ListSubTasks returns the subtasks of a task ordered by ID.
func (s *Store) ListSubTasks(ctx context.Context, taskID string) ([]*domain.SubTask, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, task_id, name, status, updated_at
		FROM subtasks WHERE task_id = ? ORDER BY id`, taskID)
	out, err := collect(rows, err, scanSubTask)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	return out, nil
}

// UpdateSubTaskStatus sets the status of a subtask and returns the stored row.
func (s *Store) UpdateSubTaskStatus(ctx context.Context, id string, status domain.SubTaskStatus, at time.Time) (*domain.SubTask, error) {
	st, err := scanSubTask(s.q.QueryRowContext(ctx, `
		UPDATE subtasks SET status = ?, updated_at = ? WHERE id = ?
		RETURNING id, task_id, name, status, updated_at`,
		string(status), instantText(at), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSubTaskNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("update subtask: %w", err)
	}
	return st, nil
}

// CreateDiaryEntry records time logged against a task.
func (s *Store) CreateDiaryEntry(ctx context.Context, e *domain.DiaryEntry) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO diary_entries (id, task_id, started_at, ended_at, hours, note)
		VALUES (?,?,?,?,?,?)`,
		e.ID, e.TaskID, instantText(e.StartedAt), instantText(e.EndedAt), e.Hours(), e.Note)
	if err != nil {
		return fmt.Errorf("create diary entry: %w", err)
	}
	return nil
}

// TotalHours sums the diary hours logged against a task.
func (s *Store) TotalHours(ctx context.Context, taskID string) (float64, error) {
	var hours float64
	err := s.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(hours), 0.0) FROM diary_entries WHERE task_id = ?`, taskID).Scan(&hours)
	if err != nil {
		return 0, fmt.Errorf("sum diary hours: %w", err)
	}
	return hours, nil
}
