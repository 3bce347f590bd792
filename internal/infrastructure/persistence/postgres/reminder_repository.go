package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rezkam/awe/internal/domain"
)

// === Reminder Repository Implementation ===
// Implements application/worker.Repository and the reminder methods of
// application/assignment.Repository and application/messaging.Repository.

const reminderColumns = `id, task_id, kind, recipient, subject, body, send_date, send_time,
	status, last_error, processed_at, created_at`

// CreateReminders inserts entries in one batch. Entries whose dedupe key is
// already stored are skipped. Returns the number inserted.
func (s *Store) CreateReminders(ctx context.Context, entries []*domain.ReminderEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO reminders (`+reminderColumns+`, dedupe_key)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (dedupe_key) DO NOTHING`,
			e.ID, e.TaskID, string(e.Kind), e.Recipient, e.Subject, e.Body,
			domain.DateOf(e.SendDate), clockToPgTime(e.SendTime), string(e.Status),
			e.LastError, e.ProcessedAt, e.CreatedAt.UTC(), e.DedupeKey())
	}

	inserted := 0
	br := s.db.SendBatch(ctx, batch)
	for range entries {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return 0, fmt.Errorf("failed to create reminder: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("failed to create reminders: %w", err)
	}
	return inserted, nil
}

// ListReminders returns entries matching filter ordered by send date and time.
func (s *Store) ListReminders(ctx context.Context, filter domain.ReminderFilter) ([]*domain.ReminderEntry, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE TRUE`
	var args []any
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.TaskID != nil {
		args = append(args, *filter.TaskID)
		query += ` AND task_id = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY send_date, send_time, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	return s.collectReminders(ctx, query, args...)
}

// FindPendingReminders returns Pending entries with a send date on or before
// through, oldest first.
func (s *Store) FindPendingReminders(ctx context.Context, through time.Time, limit int) ([]*domain.ReminderEntry, error) {
	return s.collectReminders(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE status = 'Pending' AND send_date <= $1
		ORDER BY send_date, send_time, id
		LIMIT $2`,
		domain.DateOf(through), limit)
}

func (s *Store) collectReminders(ctx context.Context, query string, args ...any) ([]*domain.ReminderEntry, error) {
	rows, _ := s.db.Query(ctx, query, args...)
	dbRows, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[reminderRow])
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	out := make([]*domain.ReminderEntry, len(dbRows))
	for i, r := range dbRows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// MarkReminder moves a Pending entry to status. The WHERE clause makes the
// transition happen at most once even with concurrent dispatchers.
func (s *Store) MarkReminder(ctx context.Context, id string, status domain.ReminderStatus, lastError *string, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE reminders SET status = $2, last_error = $3, processed_at = $4
		WHERE id = $1 AND status = 'Pending'`,
		id, string(status), lastError, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to mark reminder: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current string
	err = s.db.QueryRow(ctx, `SELECT status FROM reminders WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrReminderNotFound, id)
		}
		return fmt.Errorf("failed to read reminder status: %w", err)
	}
	return fmt.Errorf("%w: %s is %s", domain.ErrReminderFinalized, id, current)
}
