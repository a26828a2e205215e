package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akyairhashvil/marathon/internal/models"
)

func scanSubmission(row rowScanner) (models.Submission, error) {
	var s models.Submission
	var status int
	if err := row.Scan(&s.ID, &s.UserID, &s.TaskID, &s.VoiceFilePath, &s.FeedbackText, &status, &s.CreatedAt); err != nil {
		return s, err
	}
	s.Status = models.SubmissionStatus(status)
	return s, nil
}

// CreateSubmission inserts a PENDING submission. Both referenced rows must
// exist; a dangling user or task id fails with ErrNotFound.
func (d *Database) CreateSubmission(ctx context.Context, userID, taskID int64, voiceFilePath string) (models.Submission, error) {
	return withDBContextResult(d, ctx, func(ctx context.Context) (models.Submission, error) {
		created := time.Now().UTC()
		res, err := d.DB.ExecContext(ctx,
			`INSERT INTO submissions (user_id, task_id, voice_file_path, feedback_text, status, created_at) VALUES (?, ?, ?, '', ?, ?)`,
			userID, taskID, voiceFilePath, int(models.SubmissionPending), created)
		if err != nil {
			return models.Submission{}, wrapErr(EntitySubmission, "create", 0, classify(err))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return models.Submission{}, wrapErr(EntitySubmission, "create", 0, err)
		}
		return models.Submission{
			ID:            id,
			UserID:        userID,
			TaskID:        taskID,
			VoiceFilePath: voiceFilePath,
			Status:        models.SubmissionPending,
			CreatedAt:     created,
		}, nil
	})
}

func (d *Database) GetSubmission(ctx context.Context, id int64) (models.Submission, error) {
	return withDBContextResult(d, ctx, func(ctx context.Context) (models.Submission, error) {
		query, args := NewSubmissionQuery().Where("id = ?", id).Build()
		s, err := scanSubmission(d.DB.QueryRowContext(ctx, query, args...))
		if err != nil {
			return models.Submission{}, wrapErr(EntitySubmission, "get", id, notFound(err))
		}
		return s, nil
	})
}

// GetSubmissionByUserAndTask returns the most recent attempt for the pair.
func (d *Database) GetSubmissionByUserAndTask(ctx context.Context, userID, taskID int64) (models.Submission, error) {
	return withDBContextResult(d, ctx, func(ctx context.Context) (models.Submission, error) {
		query, args := NewSubmissionQuery().
			Where("user_id = ?", userID).
			Where("task_id = ?", taskID).
			OrderBy("id DESC").
			Limit(1).
			Build()
		s, err := scanSubmission(d.DB.QueryRowContext(ctx, query, args...))
		if err != nil {
			return models.Submission{}, wrapErr(EntitySubmission, fmt.Sprintf("get user %d task", userID), taskID, notFound(err))
		}
		return s, nil
	})
}

// UpdateSubmission applies the non-nil fields of upd unconditionally.
// Review transitions go through TransitionSubmission instead.
func (d *Database) UpdateSubmission(ctx context.Context, id int64, upd SubmissionUpdate) (models.Submission, error) {
	if upd.empty() {
		return d.GetSubmission(ctx, id)
	}
	var (
		sets []string
		args []interface{}
	)
	if upd.VoiceFilePath != nil {
		sets = append(sets, "voice_file_path = ?")
		args = append(args, *upd.VoiceFilePath)
	}
	if upd.FeedbackText != nil {
		sets = append(sets, "feedback_text = ?")
		args = append(args, *upd.FeedbackText)
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return models.Submission{}, wrapErr(EntitySubmission, "update", id, fmt.Errorf("invalid status %d", int(*upd.Status)))
		}
		sets = append(sets, "status = ?")
		args = append(args, int(*upd.Status))
	}
	args = append(args, id)

	err := withDBContext(d, ctx, func(ctx context.Context) error {
		n, err := d.execAffected(ctx, "UPDATE submissions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return models.Submission{}, wrapErr(EntitySubmission, "update", id, err)
	}
	return d.GetSubmission(ctx, id)
}

// TransitionSubmission moves a submission from one status to another and
// stores feedback in a single conditional write. If the row exists but is no
// longer in the from status, nothing changes and ErrStatusMismatch is returned.
func (d *Database) TransitionSubmission(ctx context.Context, id int64, from, to models.SubmissionStatus, feedback string) (models.Submission, error) {
	if !to.Valid() {
		return models.Submission{}, wrapErr(EntitySubmission, "transition", id, fmt.Errorf("invalid status %d", int(to)))
	}
	err := withDBContext(d, ctx, func(ctx context.Context) error {
		n, err := d.execAffected(ctx,
			"UPDATE submissions SET status = ?, feedback_text = ? WHERE id = ? AND status = ?",
			int(to), feedback, id, int(from))
		if err != nil {
			return err
		}
		if n == 1 {
			return nil
		}
		var exists int
		if err := d.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM submissions WHERE id = ?", id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrStatusMismatch
	})
	if err != nil {
		return models.Submission{}, wrapErr(EntitySubmission, "transition", id, err)
	}
	return d.GetSubmission(ctx, id)
}

// ListSubmissions returns submissions matching filter, oldest first unless
// filter.Newest is set.
func (d *Database) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	return withDBContextResult(d, ctx, func(ctx context.Context) ([]models.Submission, error) {
		query, args := NewSubmissionQuery().WhereFilter(filter).Build()
		rows, err := d.DB.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, wrapErr(EntitySubmission, "list", 0, err)
		}
		defer rows.Close()

		var subs []models.Submission
		for rows.Next() {
			s, err := scanSubmission(rows)
			if err != nil {
				return nil, wrapErr(EntitySubmission, "list", 0, err)
			}
			subs = append(subs, s)
		}
		if err := rows.Err(); err != nil {
			return nil, wrapErr(EntitySubmission, "list", 0, err)
		}
		return subs, nil
	})
}

// DeleteSubmissionsForTask removes every submission referencing the task.
// Deleting when none remain is not an error.
func (d *Database) DeleteSubmissionsForTask(ctx context.Context, taskID int64) (int64, error) {
	return d.deleteSubmissionsWhere(ctx, "delete for task", taskID, "task_id = ?")
}

// DeleteSubmissionsForUser removes every submission made by the user.
func (d *Database) DeleteSubmissionsForUser(ctx context.Context, userID int64) (int64, error) {
	return d.deleteSubmissionsWhere(ctx, "delete for user", userID, "user_id = ?")
}

func (d *Database) deleteSubmissionsWhere(ctx context.Context, op string, id int64, filter string) (int64, error) {
	return withDBContextResult(d, ctx, func(ctx context.Context) (int64, error) {
		n, err := d.execAffected(ctx, "DELETE FROM submissions WHERE "+filter, id)
		if err != nil {
			return 0, wrapErr(EntitySubmission, op, id, err)
		}
		return n, nil
	})
}
