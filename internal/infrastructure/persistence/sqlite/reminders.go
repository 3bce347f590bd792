package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rezkam/awe/internal/domain"
)

const reminderColumns = `id, task_id, kind, recipient, subject, body, send_date, send_time,
	status, last_error, processed_at, created_at`

func scanReminder(r rowScanner) (*domain.ReminderEntry, error) {
	var (
		e                  domain.ReminderEntry
		taskID, lastError  sql.NullString
		kind, status       string
		sendDate, sendTime string
		processedAt        sql.NullString
		createdAt          string
	)
	err := r.Scan(&e.ID, &taskID, &kind, &e.Recipient, &e.Subject, &e.Body,
		&sendDate, &sendTime, &status, &lastError, &processedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	e.TaskID = stringPtr(taskID)
	e.Kind = domain.ReminderKind(kind)
	e.Status = domain.ReminderStatus(status)
	e.LastError = stringPtr(lastError)

	if e.SendDate, err = domain.ParseDate(sendDate); err != nil {
		return nil, err
	}
	if e.SendTime, err = domain.ParseClockTime(sendTime); err != nil {
		return nil, err
	}
	if e.ProcessedAt, err = instantPtr(processedAt); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseInstant(createdAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateReminders inserts entries, skipping those whose dedupe key is already
// stored. Returns the number inserted.
func (s *Store) CreateReminders(ctx context.Context, entries []*domain.ReminderEntry) (int, error) {
	inserted := 0
	for _, e := range entries {
		res, err := s.q.ExecContext(ctx, `
			INSERT INTO reminders (`+reminderColumns+`, dedupe_key)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT (dedupe_key) DO NOTHING`,
			e.ID, e.TaskID, string(e.Kind), e.Recipient, e.Subject, e.Body,
			dateText(e.SendDate), e.SendTime.String(), string(e.Status),
			e.LastError, nullInstantText(e.ProcessedAt), instantText(e.CreatedAt),
			e.DedupeKey())
		if err != nil {
			return inserted, fmt.Errorf("create reminder: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}
	return inserted, nil
}

// ListReminders returns entries matching filter ordered by send date and time.
func (s *Store) ListReminders(ctx context.Context, filter domain.ReminderFilter) ([]*domain.ReminderEntry, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE 1 = 1`
	var args []any
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}
	if filter.TaskID != nil {
		query += ` AND task_id = ?`
		args = append(args, *filter.TaskID)
	}
	query += ` ORDER BY send_date, send_time, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	out, err := collect(rows, err, scanReminder)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return out, nil
}

// FindPendingReminders returns Pending entries with a send date on or before
// through, oldest first.
func (s *Store) FindPendingReminders(ctx context.Context, through time.Time, limit int) ([]*domain.ReminderEntry, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE status = 'Pending' AND send_date <= ?
		ORDER BY send_date, send_time, id
		LIMIT ?`,
		dateText(through), limit)
	out, err := collect(rows, err, scanReminder)
	if err != nil {
		return nil, fmt.Errorf("find pending reminders: %w", err)
	}
	return out, nil
}

// MarkReminder moves a Pending entry to status at most once.
func (s *Store) MarkReminder(ctx context.Context, id string, status domain.ReminderStatus, lastError *string, at time.Time) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE reminders SET status = ?, last_error = ?, processed_at = ?
		WHERE id = ? AND status = 'Pending'`,
		string(status), lastError, instantText(at), id)
	if err != nil {
		return fmt.Errorf("mark reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var current string
	err = s.q.QueryRowContext(ctx, `SELECT status FROM reminders WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrReminderNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("read reminder status: %w", err)
	}
	return fmt.Errorf("%w: %s is %s", domain.ErrReminderFinalized, id, current)
}
