package lifecycle

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/akyairhashvil/marathon/internal/blob"
	"github.com/akyairhashvil/marathon/internal/config"
	"github.com/akyairhashvil/marathon/internal/database"
	"github.com/akyairhashvil/marathon/internal/lock"
	"github.com/akyairhashvil/marathon/internal/models"
	"github.com/akyairhashvil/marathon/internal/util"
)

type SubmitResult struct {
	Submission models.Submission
	Task       models.Task
	Warnings   []error
}

// Submit records a new PENDING attempt at the user's current task and sends
// it to every administrator. The task pointer does not move.
func (e *Engine) Submit(ctx context.Context, userID int64, voiceRef string) (SubmitResult, error) {
	const op = "submit"
	voiceRef = strings.TrimSpace(voiceRef)
	if voiceRef == "" {
		return SubmitResult{}, newError(op, ErrInvalidArgument, "voice reference is required")
	}
	user, task, err := e.activeTask(ctx, op, userID)
	if err != nil {
		return SubmitResult{}, err
	}
	return e.createSubmission(ctx, user, task, voiceRef)
}

// SubmitVoice stores the recording in the blob store and then submits it.
// The stored file is removed again if the submission row cannot be written.
func (e *Engine) SubmitVoice(ctx context.Context, userID int64, voice io.Reader) (SubmitResult, error) {
	const op = "submit"
	if e.blobs == nil {
		return SubmitResult{}, newError(op, ErrPreconditionFailed, "no blob store configured")
	}
	user, task, err := e.activeTask(ctx, op, userID)
	if err != nil {
		return SubmitResult{}, err
	}
	ref, err := e.blobs.Put(ctx, blob.VoiceKey(user.ID, task.ID), voice)
	if err != nil {
		return SubmitResult{}, storeErr(op, err)
	}
	res, err := e.createSubmission(ctx, user, task, ref)
	if err != nil {
		util.LogError(e.logger, "Failed to remove orphaned voice", e.blobs.Delete(ref), "ref", ref)
		return SubmitResult{}, err
	}
	return res, nil
}

// ActiveTask returns the task a submission from userID would be filed
// against, failing the same way Submit does when there is none.
func (e *Engine) ActiveTask(ctx context.Context, userID int64) (models.Task, error) {
	_, task, err := e.activeTask(ctx, "submit", userID)
	return task, err
}

func (e *Engine) activeTask(ctx context.Context, op string, userID int64) (models.User, models.Task, error) {
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, models.Task{}, storeErr(op, err)
	}
	if err := check(op, user, RequireApproved, RequireActiveTask); err != nil {
		return models.User{}, models.Task{}, err
	}
	task, err := e.store.GetTaskByDay(ctx, user.CurrentTask)
	if errors.Is(err, database.ErrNotFound) {
		return models.User{}, models.Task{}, newError(op, ErrPreconditionFailed, "no task for day %d", user.CurrentTask)
	}
	if err != nil {
		return models.User{}, models.Task{}, storeErr(op, err)
	}
	return user, task, nil
}

func (e *Engine) createSubmission(ctx context.Context, user models.User, task models.Task, ref string) (SubmitResult, error) {
	const op = "submit"
	sub, err := e.store.CreateSubmission(ctx, user.ID, task.ID, ref)
	if err != nil {
		return SubmitResult{}, storeErr(op, err)
	}
	e.logger.Info("Submission received",
		"submission_id", sub.ID,
		"user_id", user.ID,
		"day", task.DayNumber,
	)

	var w warnings
	e.notifyAdmins(ctx, op, newSubmissionMessage(sub, user, task), sub.VoiceFilePath, &w)
	return SubmitResult{Submission: sub, Task: task, Warnings: w}, nil
}

type ReviewResult struct {
	Submission models.Submission
	User       models.User
	// Advanced is set when an approval moved the user's task pointer.
	Advanced bool
	// Exhausted is set when an approval left no pending tasks.
	Exhausted bool
	Warnings  []error
}

// Review moves a PENDING submission to the decision's terminal status and
// stores the feedback. Approval advances the user to the lowest pending day;
// reject and redo leave the pointer alone. Reviewing a submission that is no
// longer PENDING fails with ErrInvalidState and changes nothing.
func (e *Engine) Review(ctx context.Context, submissionID int64, decision models.Decision, feedback string) (ReviewResult, error) {
	const op = "review"
	to, ok := decision.Status()
	if !ok {
		return ReviewResult{}, newError(op, ErrInvalidDecision, "%q", decision)
	}
	feedback = strings.TrimSpace(feedback)

	unlockSub, err := e.locker.Lock(ctx, lock.SubmissionKey(submissionID))
	if err != nil {
		return ReviewResult{}, storeErr(op, err)
	}
	defer unlockSub()

	sub, err := e.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return ReviewResult{}, storeErr(op, err)
	}
	if sub.Status.Terminal() {
		return ReviewResult{}, newError(op, ErrInvalidState, "submission %d is %s", sub.ID, sub.Status)
	}

	unlockUser, err := e.lockUser(ctx, sub.UserID)
	if err != nil {
		return ReviewResult{}, storeErr(op, err)
	}
	defer unlockUser()

	stored := feedback
	if decision == models.DecisionRedo {
		stored = config.RedoFeedbackPrefix + feedback
	}
	sub, err = e.store.TransitionSubmission(ctx, submissionID, models.SubmissionPending, to, stored)
	if errors.Is(err, database.ErrStatusMismatch) {
		return ReviewResult{}, newError(op, ErrInvalidState, "submission %d was already reviewed", submissionID)
	}
	if err != nil {
		return ReviewResult{}, storeErr(op, err)
	}
	e.logger.Info("Submission reviewed",
		"submission_id", sub.ID,
		"user_id", sub.UserID,
		"status", sub.Status.String(),
	)

	user, err := e.store.GetUser(ctx, sub.UserID)
	if err != nil {
		return ReviewResult{}, storeErr(op, err)
	}
	res := ReviewResult{Submission: sub, User: user}

	if decision == models.DecisionApprove {
		pending, err := e.tracker.PendingTasks(ctx, user.ID)
		if err != nil {
			return ReviewResult{}, storeErr(op, err)
		}
		if len(pending) == 0 {
			res.Exhausted = true
		} else if next := pending[0].DayNumber; next != user.CurrentTask {
			user, err = e.store.UpdateUser(ctx, user.ID, database.UserUpdate{CurrentTask: &next})
			if err != nil {
				return ReviewResult{}, storeErr(op, err)
			}
			res.User = user
			res.Advanced = true
		}
	}

	var w warnings
	e.notify(ctx, op, user.Handle, reviewMessage(decision, feedback), &w)
	res.Warnings = w
	return res, nil
}
