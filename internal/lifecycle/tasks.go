package lifecycle

import (
	"context"
	"strings"

	"github.com/akyairhashvil/marathon/internal/database"
	"github.com/akyairhashvil/marathon/internal/models"
)

// AddTask appends a day to the catalog. Duplicate days fail with database.ErrConflict.
func (e *Engine) AddTask(ctx context.Context, day int, text string) (models.Task, error) {
	const op = "add task"
	text = strings.TrimSpace(text)
	if day <= 0 {
		return models.Task{}, newError(op, ErrInvalidArgument, "day must be positive, got %d", day)
	}
	if text == "" {
		return models.Task{}, newError(op, ErrInvalidArgument, "task text is required")
	}
	task, err := e.store.CreateTask(ctx, day, text)
	if err != nil {
		return models.Task{}, storeErr(op, err)
	}
	e.logger.Info("Task added", "day", task.DayNumber, "task_id", task.ID)
	return task, nil
}

// RemoveTask deletes the day's submissions and then the task. Users pointing
// at the day keep their pointer.
func (e *Engine) RemoveTask(ctx context.Context, day int) (database.CascadeResult, error) {
	res, err := e.store.RemoveTaskCascade(ctx, day)
	if err != nil {
		return res, storeErr("remove task", err)
	}
	e.logger.Info("Task removed", "day", day, "submissions_deleted", res.SubmissionsDeleted)
	return res, nil
}
