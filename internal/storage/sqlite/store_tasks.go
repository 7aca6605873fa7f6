package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/taskhub/internal/platform/errors"
	"github.com/louisbranch/taskhub/internal/storage"
	"github.com/louisbranch/taskhub/internal/task"
)

const taskColumns = `id, title, description, organization_id, creator_id, assignee_id, assigned,
	status, points, due_date, completed_at, finalized_at, created_at, updated_at`

// CreateTask inserts the task and its creation history entry atomically,
// after resolving the organization, creator, and assignee references.
func (s *Store) CreateTask(ctx context.Context, t task.Task, entry task.HistoryEntry) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := checkReference(ctx, tx, "organizations", "organization_id", t.OrganizationID); err != nil {
			return err
		}
		if err := checkReference(ctx, tx, "users", "creator_id", t.CreatorID); err != nil {
			return err
		}
		if t.AssigneeID != "" {
			if err := checkReference(ctx, tx, "users", "assignee_id", t.AssigneeID); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (`+taskColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Title, t.Description, t.OrganizationID, t.CreatorID,
			toNullString(t.AssigneeID), t.Assigned, string(t.Status), t.Points,
			toNullMillis(t.DueDate), toNullMillis(t.CompletedAt), toNullMillis(t.FinalizedAt),
			toMillis(t.CreatedAt), toMillis(t.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		if err := insertHistoryEntry(ctx, tx, entry); err != nil {
			return err
		}
		return nil
	})
}

// GetTask returns the task with the given id.
func (s *Store) GetTask(ctx context.Context, id string) (task.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// ListTasks returns all tasks, newest first.
func (s *Store) ListTasks(ctx context.Context) ([]task.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC, id`)
}

// ListTasksByOrganization returns the organization's tasks, newest first.
func (s *Store) ListTasksByOrganization(ctx context.Context, orgID string) ([]task.Task, error) {
	return s.queryTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE organization_id = ?
		ORDER BY created_at DESC, id`, orgID)
}

// ListTaskPool returns the organization's unassigned uncompleted tasks.
func (s *Store) ListTaskPool(ctx context.Context, orgID string) ([]task.Task, error) {
	return s.queryTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE organization_id = ? AND assigned = 0 AND status = ?
		ORDER BY created_at DESC, id`, orgID, string(task.StatusUncompleted))
}

// ListTasksByAssignee returns the tasks assigned to the given user,
// newest first.
func (s *Store) ListTasksByAssignee(ctx context.Context, userID string) ([]task.Task, error) {
	return s.queryTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE assignee_id = ?
		ORDER BY created_at DESC, id`, userID)
}

// ApplyTaskTransition runs fn against the task's current state and
// persists the result atomically: the updated task row, the history
// entry, and any point award.
func (s *Store) ApplyTaskTransition(ctx context.Context, taskID string, fn task.TransitionFunc) (task.Task, error) {
	var updated task.Task
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		// Promote the transaction to a writer before reading so that
		// concurrent transitions on the same task serialize and the
		// second one observes the first one's committed state.
		if _, err := tx.ExecContext(ctx, `UPDATE tasks SET id = id WHERE id = ?`, taskID); err != nil {
			return fmt.Errorf("lock task: %w", err)
		}

		row := tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, taskID)
		current, err := scanTask(row)
		if err != nil {
			return err
		}

		result, err := fn(current)
		if err != nil {
			return err
		}

		if err := updateTaskRow(ctx, tx, result.Task); err != nil {
			return err
		}
		if err := insertHistoryEntry(ctx, tx, result.Entry); err != nil {
			return err
		}
		if result.Award != nil {
			// A missing or inactive recipient forfeits the award; the
			// transition itself still commits.
			if _, err := tx.ExecContext(ctx, `
				UPDATE users SET points = points + ?, updated_at = ?
				WHERE id = ? AND active = 1`,
				result.Award.Points, toMillis(result.Task.UpdatedAt), result.Award.UserID,
			); err != nil {
				return fmt.Errorf("award points: %w", err)
			}
		}

		updated = result.Task
		return nil
	})
	if err != nil {
		return task.Task{}, err
	}
	return updated, nil
}

// UpdateTask applies the patch to the task and returns the stored result.
// A changed assignee must resolve to an existing user.
func (s *Store) UpdateTask(ctx context.Context, taskID string, patch task.Patch, now time.Time) (task.Task, error) {
	var updated task.Task
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, taskID)
		current, err := scanTask(row)
		if err != nil {
			return err
		}
		if patch.AssigneeID != nil && *patch.AssigneeID != "" {
			if err := checkReference(ctx, tx, "users", "assignee_id", *patch.AssigneeID); err != nil {
				return err
			}
		}
		updated = patch.Apply(current, now)
		return updateTaskRow(ctx, tx, updated)
	})
	if err != nil {
		return task.Task{}, err
	}
	return updated, nil
}

// DeleteTask removes the task and its history entries.
func (s *Store) DeleteTask(ctx context.Context, taskID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		// Remove history explicitly rather than leaning on the FK
		// cascade, which only fires when the pragma is on.
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_history WHERE task_id = ?`, taskID); err != nil {
			return fmt.Errorf("delete task history: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, taskID)
		if err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete task rows affected: %w", err)
		}
		if rows == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

// TaskHistory returns the task's history entries newest first. Entries
// written in the same millisecond keep reverse insertion order via rowid.
// An unknown or deleted task has no entries and yields an empty list.
func (s *Store) TaskHistory(ctx context.Context, taskID string) ([]task.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, user_id, action, previous_status, new_status,
			previous_assignee_id, new_assignee_id, notes, created_at
		FROM task_history
		WHERE task_id = ?
		ORDER BY created_at DESC, rowid DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query task history: %w", err)
	}
	defer rows.Close()

	var entries []task.HistoryEntry
	for rows.Next() {
		var e task.HistoryEntry
		var action, prevStatus, newStatus string
		var prevAssignee, newAssignee sql.NullString
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.TaskID, &e.UserID, &action, &prevStatus, &newStatus,
			&prevAssignee, &newAssignee, &e.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Action = task.Action(action)
		e.PreviousStatus = task.Status(prevStatus)
		e.NewStatus = task.Status(newStatus)
		e.PreviousAssigneeID = fromNullString(prevAssignee)
		e.NewAssigneeID = fromNullString(newAssignee)
		e.CreatedAt = fromMillis(createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task history: %w", err)
	}
	return entries, nil
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (task.Task, error) {
	var (
		t                                 task.Task
		assignee                          sql.NullString
		status                            string
		dueDate, completedAt, finalizedAt sql.NullInt64
		createdAt, updatedAt              int64
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.OrganizationID, &t.CreatorID,
		&assignee, &t.Assigned, &status, &t.Points,
		&dueDate, &completedAt, &finalizedAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return task.Task{}, storage.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("scan task: %w", err)
	}
	t.AssigneeID = fromNullString(assignee)
	t.Status = task.Status(status)
	t.DueDate = fromNullMillis(dueDate)
	t.CompletedAt = fromNullMillis(completedAt)
	t.FinalizedAt = fromNullMillis(finalizedAt)
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return t, nil
}

func updateTaskRow(ctx context.Context, tx *sql.Tx, t task.Task) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, assignee_id = ?, assigned = ?,
			status = ?, points = ?, due_date = ?, completed_at = ?, finalized_at = ?,
			updated_at = ?
		WHERE id = ?`,
		t.Title, t.Description, toNullString(t.AssigneeID), t.Assigned,
		string(t.Status), t.Points, toNullMillis(t.DueDate),
		toNullMillis(t.CompletedAt), toNullMillis(t.FinalizedAt),
		toMillis(t.UpdatedAt), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// checkReference verifies the referenced row exists inside the transaction.
// table is always a literal, never caller input.
func checkReference(ctx context.Context, tx *sql.Tx, table, field, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.WithMetadata(apperrors.CodeReferenceNotFound,
			field+" does not resolve to an existing record",
			map[string]string{field: id})
	}
	if err != nil {
		return fmt.Errorf("check %s reference: %w", field, err)
	}
	return nil
}

func insertHistoryEntry(ctx context.Context, tx *sql.Tx, e task.HistoryEntry) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO task_history (id, task_id, user_id, action, previous_status, new_status,
			previous_assignee_id, new_assignee_id, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.TaskID, e.UserID, string(e.Action), string(e.PreviousStatus), string(e.NewStatus),
		toNullString(e.PreviousAssigneeID), toNullString(e.NewAssigneeID), e.Notes, toMillis(e.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}
