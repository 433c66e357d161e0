// ABOUTME: SQLite persistence for tasks
// ABOUTME: Updates and deletes use RETURNING so the filter match and the write are one statement

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const taskColumns = `id, owner_id, journal_id, task, time, completed, created_at`

// CreateTask inserts a new task.
func (s *SQLiteStore) CreateTask(ctx context.Context, task *Task) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tasks (id, owner_id, journal_id, task, time, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.OwnerID,
		task.JournalID,
		task.Text,
		nullString(task.Time),
		task.Completed,
		formatTime(task.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}

	s.logger.Debug("created task", "id", task.ID, "journal_id", task.JournalID)
	return nil
}

// ListTasks returns all tasks matching filter in creation order.
func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*Task, error) {
	where, args := taskWhere(filter)
	query := `SELECT ` + taskColumns + ` FROM tasks` + where + ` ORDER BY rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []*Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}

	return tasks, nil
}

// GetTask returns the first task matching filter, or ErrNotFound.
func (s *SQLiteStore) GetTask(ctx context.Context, filter TaskFilter) (*Task, error) {
	where, args := taskWhere(filter)
	query := `SELECT ` + taskColumns + ` FROM tasks` + where + ` ORDER BY rowid ASC LIMIT 1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying task: %w", err)
	}
	return task, nil
}

// SetTaskCompleted sets the completed flag on the first task matching filter
// and returns the updated record.
func (s *SQLiteStore) SetTaskCompleted(ctx context.Context, filter TaskFilter, completed bool) (*Task, error) {
	where, args := taskWhere(filter)
	query := `
		UPDATE tasks SET completed = ?
		WHERE rowid = (SELECT rowid FROM tasks` + where + ` ORDER BY rowid ASC LIMIT 1)
		RETURNING ` + taskColumns

	args = append([]any{completed}, args...)
	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}
	return task, nil
}

// DeleteTask removes the first task matching filter and returns it.
func (s *SQLiteStore) DeleteTask(ctx context.Context, filter TaskFilter) (*Task, error) {
	where, args := taskWhere(filter)
	query := `
		DELETE FROM tasks
		WHERE rowid = (SELECT rowid FROM tasks` + where + ` ORDER BY rowid ASC LIMIT 1)
		RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("deleting task: %w", err)
	}

	s.logger.Debug("deleted task", "id", task.ID)
	return task, nil
}

func taskWhere(filter TaskFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.ID != "" {
		conds = append(conds, "id = ?")
		args = append(args, filter.ID)
	}
	if filter.OwnerID != "" {
		conds = append(conds, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.JournalID != "" {
		conds = append(conds, "journal_id = ?")
		args = append(args, filter.JournalID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanTask(row rowScanner) (*Task, error) {
	var t Task
	var timeStr sql.NullString
	var createdAtStr string
	if err := row.Scan(&t.ID, &t.OwnerID, &t.JournalID, &t.Text, &timeStr, &t.Completed, &createdAtStr); err != nil {
		return nil, err
	}
	if timeStr.Valid {
		v := timeStr.String
		t.Time = &v
	}
	var err error
	t.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
