package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rezkam/awe/internal/domain"
)

// === Assignment Repository Implementation ===
// Implements the task side of application/assignment.Repository and
// application/analytics.Repository.

// isUniqueViolation checks if an error is a PostgreSQL unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// AssignmentExists reports whether the activity is already assigned to the customer.
func (s *Store) AssignmentExists(ctx context.Context, customerID, activityID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM assignments WHERE customer_id = $1 AND activity_id = $2)`,
		customerID, activityID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return exists, nil
}

// CreateAssignment records the assignment of an activity to a customer.
func (s *Store) CreateAssignment(ctx context.Context, a *domain.Assignment) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO assignments (customer_id, activity_id, actor_id, remarks, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.CustomerID, a.ActivityID, a.ActorID, a.Remarks, a.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", domain.ErrAlreadyAssigned, a.CustomerID, a.ActivityID)
		}
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

const taskColumns = `id, name, activity_id, customer_id, customer_name, actor_id, assigned_to,
	initiator, reviewer, reviewer_status, status, criticality, activity_type, frequency,
	duration, due_date, actual_date, time_taken, remarks, link, calendar_event_id,
	assigned_at, updated_at`

// CreateTask inserts a new task.
func (s *Store) CreateTask(ctx context.Context, t *domain.Task) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		t.ID, t.Name, t.ActivityID, t.CustomerID, t.CustomerName, t.ActorID, t.AssignedTo,
		t.Initiator, t.Reviewer, t.ReviewerStatus, string(t.Status), string(t.Criticality),
		string(t.Type), int(t.Frequency), t.Duration, domain.DateOf(t.DueDate),
		dateParam(t.ActualDate), t.TimeTaken, t.Remarks, t.Link, t.CalendarEventID,
		t.AssignedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: task %s", domain.ErrAlreadyAssigned, t.ID)
		}
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindTask retrieves a task by ID.
func (s *Store) FindTask(ctx context.Context, id string) (*domain.Task, error) {
	rows, _ := s.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[taskRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return row.toDomain(), nil
}

// ListTasks returns tasks matching filter ordered by due date, then ID.
func (s *Store) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	where, args := taskFilterClause(filter)

	query := `SELECT ` + taskColumns + ` FROM tasks` + where + ` ORDER BY due_date, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, _ := s.db.Query(ctx, query, args...)
	dbRows, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[taskRow])
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*domain.Task, len(dbRows))
	for i, r := range dbRows {
		tasks[i] = r.toDomain()
	}
	return tasks, nil
}

// taskFilterClause builds a WHERE clause with positional parameters. Every
// value travels as a parameter; only column names are spliced into the SQL.
func taskFilterClause(f domain.TaskFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if len(f.Statuses) > 0 {
		add("status = ANY(?)", stringsOf(f.Statuses))
	}
	if f.Criticality != nil {
		add("criticality = ?", string(*f.Criticality))
	}
	if f.ActivityType != nil {
		add("activity_type = ?", string(*f.ActivityType))
	}
	if f.AssignedTo != nil {
		add("assigned_to = ?", *f.AssignedTo)
	}
	if f.CustomerID != nil {
		add("customer_id = ?", *f.CustomerID)
	}
	if f.DueFrom != nil {
		add("due_date >= ?", domain.DateOf(*f.DueFrom))
	}
	if f.DueTo != nil {
		add("due_date <= ?", domain.DateOf(*f.DueTo))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// SaveTask writes the mutable fields of a task.
func (s *Store) SaveTask(ctx context.Context, t *domain.Task) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE tasks SET
			status = $2,
			actual_date = $3,
			time_taken = $4,
			remarks = $5,
			reviewer_status = $6,
			link = $7,
			calendar_event_id = $8,
			updated_at = $9
		WHERE id = $1`,
		t.ID, string(t.Status), dateParam(t.ActualDate), t.TimeTaken, t.Remarks,
		t.ReviewerStatus, t.Link, t.CalendarEventID, t.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, t.ID)
	}
	return nil
}

// === Subtasks ===

// CreateSubTasks inserts subtasks in one batch.
func (s *Store) CreateSubTasks(ctx context.Context, subtasks []*domain.SubTask) error {
	if len(subtasks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, st := range subtasks {
		batch.Queue(`
			INSERT INTO subtasks (id, task_id, name, status, updated_at)
			VALUES ($1, $2, $3, $4, $5)`,
			st.ID, st.TaskID, st.Name, string(st.Status), st.UpdatedAt.UTC())
	}
	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to create subtasks: %w", err)
	}
	return nil
}

// ListSubTasks returns the subtasks of a task ordered by ID.
func (s *Store) ListSubTasks(ctx context.Context, taskID string) ([]*domain.SubTask, error) {
	rows, _ := s.db.Query(ctx, `
		SELECT id, task_id, name, status, updated_at
		FROM subtasks WHERE task_id = $1 ORDER BY id`, taskID)
	dbRows, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[subTaskRow])
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}
	out := make([]*domain.SubTask, len(dbRows))
	for i, r := range dbRows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// UpdateSubTaskStatus sets the status of a subtask and returns the stored row.
func (s *Store) UpdateSubTaskStatus(ctx context.Context, id string, status domain.SubTaskStatus, at time.Time) (*domain.SubTask, error) {
	rows, _ := s.db.Query(ctx, `
		UPDATE subtasks SET status = $2, updated_at = $3 WHERE id = $1
		RETURNING id, task_id, name, status, updated_at`,
		id, string(status), at.UTC())
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[subTaskRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSubTaskNotFound, id)
		}
		return nil, fmt.Errorf("failed to update subtask: %w", err)
	}
	return row.toDomain(), nil
}

// === Diary ===

// CreateDiaryEntry records time logged against a task.
func (s *Store) CreateDiaryEntry(ctx context.Context, e *domain.DiaryEntry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO diary_entries (id, task_id, started_at, ended_at, note)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.TaskID, e.StartedAt.UTC(), e.EndedAt.UTC(), e.Note)
	if err != nil {
		return fmt.Errorf("failed to create diary entry: %w", err)
	}
	return nil
}

// TotalHours sums the diary hours logged against a task.
func (s *Store) TotalHours(ctx context.Context, taskID string) (float64, error) {
	var hours float64
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(EXTRACT(EPOCH FROM (ended_at - started_at))), 0)::float8 / 3600
		FROM diary_entries WHERE task_id = $1`, taskID).Scan(&hours)
	if err != nil {
		return 0, fmt.Errorf("failed to sum diary hours: %w", err)
	}
	return hours, nil
}
