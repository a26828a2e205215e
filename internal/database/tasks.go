package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akyairhashvil/marathon/internal/models"
)

func scanTask(row rowScanner) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.DayNumber, &t.Text)
	return t, err
}

// CreateTask adds a catalog entry. A duplicate day number fails with ErrConflict.
func (d *Database) CreateTask(ctx context.Context, dayNumber int, text string) (models.Task, error) {
	if dayNumber <= 0 {
		return models.Task{}, wrapErr(EntityTask, "create", 0, fmt.Errorf("invalid day number %d", dayNumber))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Task{}, wrapErr(EntityTask, "create", 0, errors.New("task text is required"))
	}
	return withDBContextResult(d, ctx, func(ctx context.Context) (models.Task, error) {
		res, err := d.DB.ExecContext(ctx, `INSERT INTO tasks (day_number, task_text) VALUES (?, ?)`, dayNumber, text)
		if err != nil {
			return models.Task{}, wrapErr(EntityTask, "create", 0, classify(err))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return models.Task{}, wrapErr(EntityTask, "create", 0, err)
		}
		return models.Task{ID: id, DayNumber: dayNumber, Text: text}, nil
	})
}

func (d *Database) GetTask(ctx context.Context, id int64) (models.Task, error) {
	return d.getTaskWhere(ctx, "get", id, "id = ?", id)
}

func (d *Database) GetTaskByDay(ctx context.Context, dayNumber int) (models.Task, error) {
	return d.getTaskWhere(ctx, fmt.Sprintf("get day %d", dayNumber), 0, "day_number = ?", dayNumber)
}

func (d *Database) getTaskWhere(ctx context.Context, op string, id int64, filter string, args ...interface{}) (models.Task, error) {
	return withDBContextResult(d, ctx, func(ctx context.Context) (models.Task, error) {
		query, qargs := NewTaskQuery().Where(filter, args...).Limit(1).Build()
		t, err := scanTask(d.DB.QueryRowContext(ctx, query, qargs...))
		if err != nil {
			return models.Task{}, wrapErr(EntityTask, op, id, notFound(err))
		}
		return t, nil
	})
}

// ListTasks returns the catalog ordered by day number.
func (d *Database) ListTasks(ctx context.Context) ([]models.Task, error) {
	return withDBContextResult(d, ctx, func(ctx context.Context) ([]models.Task, error) {
		query, args := NewTaskQuery().OrderBy("day_number ASC").Build()
		rows, err := d.DB.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, wrapErr(EntityTask, "list", 0, err)
		}
		defer rows.Close()

		var tasks []models.Task
		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return nil, wrapErr(EntityTask, "list", 0, err)
			}
			tasks = append(tasks, t)
		}
		if err := rows.Err(); err != nil {
			return nil, wrapErr(EntityTask, "list", 0, err)
		}
		return tasks, nil
	})
}

func (d *Database) CountTasks(ctx context.Context) (int, error) {
	return withDBContextResult(d, ctx, func(ctx context.Context) (int, error) {
		var n int
		if err := d.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&n); err != nil {
			return 0, wrapErr(EntityTask, "count", 0, err)
		}
		return n, nil
	})
}

// DeleteTask removes the task row only. It fails while submissions still
// reference the task; use RemoveTaskCascade to clear them first.
func (d *Database) DeleteTask(ctx context.Context, dayNumber int) error {
	err := withDBContext(d, ctx, func(ctx context.Context) error {
		n, err := d.execAffected(ctx, "DELETE FROM tasks WHERE day_number = ?", dayNumber)
		if err != nil {
			return classifyDelete(err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	return wrapErr(EntityTask, fmt.Sprintf("delete day %d", dayNumber), 0, err)
}

// RemoveTaskCascade deletes every submission for the task and then the task.
// The steps are independent writes; a retry after a partial failure is safe
// because deleting already-removed submissions is a no-op.
func (d *Database) RemoveTaskCascade(ctx context.Context, dayNumber int) (CascadeResult, error) {
	var res CascadeResult
	task, err := d.GetTaskByDay(ctx, dayNumber)
	if err != nil {
		return res, err
	}
	n, err := d.DeleteSubmissionsForTask(ctx, task.ID)
	if err != nil {
		return res, err
	}
	res.SubmissionsDeleted = n
	return res, d.DeleteTask(ctx, dayNumber)
}
