package testutil

import (
	"fmt"
	"time"

	"github.com/akyairhashvil/marathon/internal/models"
)

// UserBuilder provides fluent API for creating test users.
type UserBuilder struct {
	user models.User
}

func NewUser() *UserBuilder {
	return &UserBuilder{
		user: models.User{
			ID:       1,
			Handle:   "1001",
			Username: "runner",
			JoinedAt: time.Now(),
		},
	}
}

func (b *UserBuilder) WithID(id int64) *UserBuilder {
	b.user.ID = id
	b.user.Handle = fmt.Sprintf("%d", 1000+id)
	return b
}

func (b *UserBuilder) WithUsername(name string) *UserBuilder {
	b.user.Username = name
	return b
}

// Approved marks the user approved and points them at day.
func (b *UserBuilder) Approved(day int) *UserBuilder {
	b.user.Approved = true
	b.user.CurrentTask = day
	return b
}

func (b *UserBuilder) Finished() *UserBuilder {
	b.user.Finished = true
	return b
}

func (b *UserBuilder) Build() models.User {
	return b.user
}

// TaskBuilder provides fluent API for creating test tasks.
type TaskBuilder struct {
	task models.Task
}

func NewTask(day int) *TaskBuilder {
	return &TaskBuilder{
		task: models.Task{
			ID:        int64(day),
			DayNumber: day,
			Text:      fmt.Sprintf("Day %d: record a one minute summary", day),
		},
	}
}

func (b *TaskBuilder) WithText(text string) *TaskBuilder {
	b.task.Text = text
	return b
}

func (b *TaskBuilder) Build() models.Task {
	return b.task
}

// Catalog builds tasks for days 1..n.
func Catalog(n int) []models.Task {
	tasks := make([]models.Task, 0, n)
	for day := 1; day <= n; day++ {
		tasks = append(tasks, NewTask(day).Build())
	}
	return tasks
}

// SubmissionBuilder provides fluent API for creating test submissions.
type SubmissionBuilder struct {
	sub models.Submission
}

func NewSubmission(userID, taskID int64) *SubmissionBuilder {
	return &SubmissionBuilder{
		sub: models.Submission{
			ID:            1,
			UserID:        userID,
			TaskID:        taskID,
			VoiceFilePath: fmt.Sprintf("voice/%d-%d.ogg", userID, taskID),
			Status:        models.SubmissionPending,
			CreatedAt:     time.Now(),
		},
	}
}

func (b *SubmissionBuilder) WithID(id int64) *SubmissionBuilder {
	b.sub.ID = id
	return b
}

func (b *SubmissionBuilder) WithStatus(s models.SubmissionStatus) *SubmissionBuilder {
	b.sub.Status = s
	return b
}

func (b *SubmissionBuilder) Build() models.Submission {
	return b.sub
}
