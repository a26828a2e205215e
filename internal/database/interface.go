package database

import (
	"context"

	"github.com/akyairhashvil/marathon/internal/models"
)

// UserRepository defines user persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, handle, username string) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	GetUserByHandle(ctx context.Context, handle string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	UpdateUser(ctx context.Context, id int64, upd UserUpdate) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListUnapprovedUsers(ctx context.Context) ([]models.User, error)
	RemoveUserCascade(ctx context.Context, id int64) (CascadeResult, error)
}

// TaskRepository defines task catalog persistence.
type TaskRepository interface {
	CreateTask(ctx context.Context, dayNumber int, text string) (models.Task, error)
	GetTask(ctx context.Context, id int64) (models.Task, error)
	GetTaskByDay(ctx context.Context, dayNumber int) (models.Task, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	CountTasks(ctx context.Context) (int, error)
	DeleteTask(ctx context.Context, dayNumber int) error
	RemoveTaskCascade(ctx context.Context, dayNumber int) (CascadeResult, error)
}

// SubmissionRepository defines submission persistence.
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, userID, taskID int64, voiceFilePath string) (models.Submission, error)
	GetSubmission(ctx context.Context, id int64) (models.Submission, error)
	GetSubmissionByUserAndTask(ctx context.Context, userID, taskID int64) (models.Submission, error)
	UpdateSubmission(ctx context.Context, id int64, upd SubmissionUpdate) (models.Submission, error)
	TransitionSubmission(ctx context.Context, id int64, from, to models.SubmissionStatus, feedback string) (models.Submission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	DeleteSubmissionsForTask(ctx context.Context, taskID int64) (int64, error)
	DeleteSubmissionsForUser(ctx context.Context, userID int64) (int64, error)
}

// StatsRepository defines aggregate reads.
type StatsRepository interface {
	Dashboard(ctx context.Context) (models.Dashboard, error)
}

// Repository combines all repository interfaces.
type Repository interface {
	UserRepository
	TaskRepository
	SubmissionRepository
	StatsRepository
}

var _ Repository = (*Database)(nil)

// UserUpdate carries the fields to change; nil fields are left untouched.
type UserUpdate struct {
	Username    *string
	Approved    *bool
	CurrentTask *int
	Finished    *bool
}

func (u UserUpdate) empty() bool {
	return u.Username == nil && u.Approved == nil && u.CurrentTask == nil && u.Finished == nil
}

// SubmissionUpdate carries the fields to change; nil fields are left untouched.
type SubmissionUpdate struct {
	VoiceFilePath *string
	FeedbackText  *string
	Status        *models.SubmissionStatus
}

func (u SubmissionUpdate) empty() bool {
	return u.VoiceFilePath == nil && u.FeedbackText == nil && u.Status == nil
}

// SubmissionFilter narrows ListSubmissions. Zero values mean "any".
type SubmissionFilter struct {
	UserID int64
	TaskID int64
	Status *models.SubmissionStatus
	Limit  int
	Offset int
	Newest bool
}

// CascadeResult reports a two-step removal.
type CascadeResult struct {
	SubmissionsDeleted int64
}
