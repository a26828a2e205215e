package lifecycle

import (
	"context"

	"github.com/akyairhashvil/marathon/internal/database"
	"github.com/akyairhashvil/marathon/internal/models"
)

func (e *Engine) Progress(ctx context.Context, userID int64) (models.Progress, error) {
	return e.tracker.Progress(ctx, userID)
}

func (e *Engine) PendingTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	return e.tracker.PendingTasks(ctx, userID)
}

// Eligible reports certificate eligibility. It ignores the finished flag.
func (e *Engine) Eligible(ctx context.Context, userID int64) (bool, models.Progress, error) {
	return e.gate.IsEligible(ctx, userID)
}

func (e *Engine) Dashboard(ctx context.Context) (models.Dashboard, error) {
	return e.store.Dashboard(ctx)
}

func (e *Engine) User(ctx context.Context, id int64) (models.User, error) {
	return e.store.GetUser(ctx, id)
}

func (e *Engine) UserByHandle(ctx context.Context, handle string) (models.User, error) {
	return e.store.GetUserByHandle(ctx, handle)
}

func (e *Engine) Users(ctx context.Context) ([]models.User, error) {
	return e.store.ListUsers(ctx)
}

func (e *Engine) UnapprovedUsers(ctx context.Context) ([]models.User, error) {
	return e.store.ListUnapprovedUsers(ctx)
}

func (e *Engine) Task(ctx context.Context, day int) (models.Task, error) {
	return e.store.GetTaskByDay(ctx, day)
}

func (e *Engine) TaskByID(ctx context.Context, id int64) (models.Task, error) {
	return e.store.GetTask(ctx, id)
}

func (e *Engine) Tasks(ctx context.Context) ([]models.Task, error) {
	return e.store.ListTasks(ctx)
}

func (e *Engine) Submission(ctx context.Context, id int64) (models.Submission, error) {
	return e.store.GetSubmission(ctx, id)
}

func (e *Engine) Submissions(ctx context.Context, filter database.SubmissionFilter) ([]models.Submission, error) {
	return e.store.ListSubmissions(ctx, filter)
}
