package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/akyairhashvil/marathon/internal/models"
)

type TestDataBuilder struct {
	t     *testing.T
	ctx   context.Context
	db    *Database
	users []models.User
	tasks []models.Task
	subs  []models.Submission
}

func NewTestDataBuilder(t *testing.T) *TestDataBuilder {
	t.Helper()
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	return &TestDataBuilder{t: t, ctx: ctx, db: db}
}

// WithTasks creates tasks for days 1..count.
func (b *TestDataBuilder) WithTasks(count int) *TestDataBuilder {
	b.t.Helper()
	for day := len(b.tasks) + 1; day <= count; day++ {
		task, err := b.db.CreateTask(b.ctx, day, fmt.Sprintf("Read chapter %d aloud", day))
		if err != nil {
			b.t.Fatalf("CreateTask failed: %v", err)
		}
		b.tasks = append(b.tasks, task)
	}
	return b
}

// WithUser creates a user; approved users start on day 1.
func (b *TestDataBuilder) WithUser(handle string, approved bool) *TestDataBuilder {
	b.t.Helper()
	u, err := b.db.CreateUser(b.ctx, handle, "user_"+handle)
	if err != nil {
		b.t.Fatalf("CreateUser failed: %v", err)
	}
	if approved {
		day := 1
		u, err = b.db.UpdateUser(b.ctx, u.ID, UserUpdate{Approved: &approved, CurrentTask: &day})
		if err != nil {
			b.t.Fatalf("UpdateUser failed: %v", err)
		}
	}
	b.users = append(b.users, u)
	return b
}

// WithSubmission records a submission by the last user for the given day.
func (b *TestDataBuilder) WithSubmission(day int, status models.SubmissionStatus) *TestDataBuilder {
	b.t.Helper()
	if len(b.users) == 0 || day < 1 || day > len(b.tasks) {
		b.t.Fatalf("WithSubmission needs a user and task for day %d", day)
	}
	user := b.users[len(b.users)-1]
	sub, err := b.db.CreateSubmission(b.ctx, user.ID, b.tasks[day-1].ID, fmt.Sprintf("voice/%d-%d.ogg", user.ID, day))
	if err != nil {
		b.t.Fatalf("CreateSubmission failed: %v", err)
	}
	if status != models.SubmissionPending {
		sub, err = b.db.TransitionSubmission(b.ctx, sub.ID, models.SubmissionPending, status, "")
		if err != nil {
			b.t.Fatalf("TransitionSubmission failed: %v", err)
		}
	}
	b.subs = append(b.subs, sub)
	return b
}

func (b *TestDataBuilder) Build() *Database {
	return b.db
}

func (b *TestDataBuilder) User(i int) models.User {
	return b.users[i]
}

func (b *TestDataBuilder) Task(day int) models.Task {
	return b.tasks[day-1]
}

func (b *TestDataBuilder) Submissions() []models.Submission {
	return b.subs
}
