package tui

import (
	"context"

	"github.com/akyairhashvil/marathon/internal/database"
	"github.com/akyairhashvil/marathon/internal/lifecycle"
	"github.com/akyairhashvil/marathon/internal/models"
)

// Backend is the lifecycle surface the console drives. *lifecycle.Engine satisfies it.
type Backend interface {
	Dashboard(ctx context.Context) (models.Dashboard, error)
	Users(ctx context.Context) ([]models.User, error)
	Tasks(ctx context.Context) ([]models.Task, error)
	Submissions(ctx context.Context, filter database.SubmissionFilter) ([]models.Submission, error)
	Progress(ctx context.Context, userID int64) (models.Progress, error)
	Review(ctx context.Context, submissionID int64, decision models.Decision, feedback string) (lifecycle.ReviewResult, error)
	ApproveUser(ctx context.Context, userID int64) (lifecycle.UserResult, error)
}

// Snapshotter produces portable backups of the store.
type Snapshotter interface {
	ExportSnapshot(ctx context.Context, opts database.ExportOptions) ([]byte, error)
}

var (
	_ Backend     = (*lifecycle.Engine)(nil)
	_ Snapshotter = (*database.Database)(nil)
)

// queueItem is a pending submission with the names needed to review it.
type queueItem struct {
	Submission models.Submission
	Username   string
	Day        int
	TaskText   string
}

type userRow struct {
	User     models.User
	Progress models.Progress
}

// consoleData is everything the console renders, loaded in one pass.
type consoleData struct {
	Dashboard models.Dashboard
	Queue     []queueItem
	Users     []userRow
	Tasks     []models.Task
}

func loadConsoleData(ctx context.Context, b Backend) (consoleData, error) {
	dash, err := b.Dashboard(ctx)
	if err != nil {
		return consoleData{}, err
	}
	users, err := b.Users(ctx)
	if err != nil {
		return consoleData{}, err
	}
	tasks, err := b.Tasks(ctx)
	if err != nil {
		return consoleData{}, err
	}
	pending := models.SubmissionPending
	subs, err := b.Submissions(ctx, database.SubmissionFilter{Status: &pending})
	if err != nil {
		return consoleData{}, err
	}

	names := make(map[int64]string, len(users))
	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
		row := userRow{User: u}
		if u.Approved {
			if row.Progress, err = b.Progress(ctx, u.ID); err != nil {
				return consoleData{}, err
			}
		}
		rows = append(rows, row)
	}
	byID := make(map[int64]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	queue := make([]queueItem, 0, len(subs))
	for _, s := range subs {
		item := queueItem{Submission: s, Username: names[s.UserID]}
		if item.Username == "" {
			item.Username = "unknown"
		}
		if t, ok := byID[s.TaskID]; ok {
			item.Day, item.TaskText = t.DayNumber, t.Text
		}
		queue = append(queue, item)
	}
	return consoleData{Dashboard: dash, Queue: queue, Users: rows, Tasks: tasks}, nil
}
