// Package progress computes per-user completion from the entity store.
// Nothing is cached; every call reads fresh rows.
package progress

import (
	"context"
	"fmt"

	"github.com/akyairhashvil/marathon/internal/database"
	"github.com/akyairhashvil/marathon/internal/models"
)

// Store is the slice of the entity store the tracker reads.
type Store interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	ListSubmissions(ctx context.Context, filter database.SubmissionFilter) ([]models.Submission, error)
}

type Tracker struct {
	store Store
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// PendingTasks returns catalog tasks, ascending by day, that the user has no
// APPROVED submission for.
func (t *Tracker) PendingTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	tasks, approved, err := t.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if !approved[task.ID] {
			pending = append(pending, task)
		}
	}
	return pending, nil
}

// CompletedCount counts distinct catalog tasks with at least one APPROVED submission.
func (t *Tracker) CompletedCount(ctx context.Context, userID int64) (int, error) {
	p, err := t.Progress(ctx, userID)
	return p.Completed, err
}

// Progress reports completed/total and the percentage, which is 0 for an empty catalog.
func (t *Tracker) Progress(ctx context.Context, userID int64) (models.Progress, error) {
	tasks, approved, err := t.load(ctx, userID)
	if err != nil {
		return models.Progress{}, err
	}
	return Compute(tasks, approved), nil
}

// Compute derives progress from a catalog and the set of approved task ids.
// Approved ids that are not in the catalog are ignored.
func Compute(tasks []models.Task, approved map[int64]bool) models.Progress {
	p := models.Progress{Total: len(tasks)}
	for _, task := range tasks {
		if approved[task.ID] {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percentage = float64(p.Completed) / float64(p.Total) * 100
	}
	return p
}

func (t *Tracker) load(ctx context.Context, userID int64) ([]models.Task, map[int64]bool, error) {
	// A zero id would disable the user filter.
	if userID <= 0 {
		return nil, nil, fmt.Errorf("progress: invalid user id %d", userID)
	}
	tasks, err := t.store.ListTasks(ctx)
	if err != nil {
		return nil, nil, err
	}
	status := models.SubmissionApproved
	subs, err := t.store.ListSubmissions(ctx, database.SubmissionFilter{UserID: userID, Status: &status})
	if err != nil {
		return nil, nil, err
	}
	approved := make(map[int64]bool, len(subs))
	for _, s := range subs {
		approved[s.TaskID] = true
	}
	return tasks, approved, nil
}
