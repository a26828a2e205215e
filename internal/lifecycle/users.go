package lifecycle

import (
	"context"
	"errors"
	"strings"

	"github.com/akyairhashvil/marathon/internal/database"
	"github.com/akyairhashvil/marathon/internal/lock"
	"github.com/akyairhashvil/marathon/internal/models"
	"github.com/akyairhashvil/marathon/internal/util"
)

// UserResult is the outcome of an operation on one user.
type UserResult struct {
	User     models.User
	Warnings []error
}

// RegisterUser returns the user for handle, creating it on first contact.
// A repeated registration returns the existing row with created=false and
// refreshes the stored username when it changed.
func (e *Engine) RegisterUser(ctx context.Context, handle, username string) (models.User, bool, error) {
	const op = "register user"
	handle = strings.TrimSpace(handle)
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if handle == "" {
		return models.User{}, false, newError(op, ErrInvalidArgument, "handle is required")
	}

	unlock, err := e.locker.Lock(ctx, lock.HandleKey(handle))
	if err != nil {
		return models.User{}, false, storeErr(op, err)
	}
	defer unlock()

	existing, err := e.store.GetUserByHandle(ctx, handle)
	switch {
	case err == nil:
		return e.refreshUsername(ctx, existing, username)
	case !errors.Is(err, database.ErrNotFound):
		return models.User{}, false, storeErr(op, err)
	}

	user, err := e.store.CreateUser(ctx, handle, username)
	if errors.Is(err, database.ErrConflict) {
		// Another process registered the handle first.
		existing, getErr := e.store.GetUserByHandle(ctx, handle)
		if getErr != nil {
			return models.User{}, false, storeErr(op, getErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return models.User{}, false, storeErr(op, err)
	}
	e.logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, true, nil
}

func (e *Engine) refreshUsername(ctx context.Context, u models.User, username string) (models.User, bool, error) {
	if username == "" || username == u.Username {
		return u, false, nil
	}
	updated, err := e.store.UpdateUser(ctx, u.ID, database.UserUpdate{Username: &username})
	if err != nil {
		return models.User{}, false, storeErr("register user", err)
	}
	return updated, false, nil
}

// ApproveUser grants access to the marathon. Approving twice is ErrInvalidState.
// The task pointer is not touched.
func (e *Engine) ApproveUser(ctx context.Context, userID int64) (UserResult, error) {
	const op = "approve user"
	unlock, err := e.lockUser(ctx, userID)
	if err != nil {
		return UserResult{}, storeErr(op, err)
	}
	defer unlock()

	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return UserResult{}, storeErr(op, err)
	}
	if err := check(op, user, RequirePendingApproval); err != nil {
		return UserResult{User: user}, err
	}
	user, err = e.store.UpdateUser(ctx, userID, database.UserUpdate{Approved: util.Ptr(true)})
	if err != nil {
		return UserResult{}, storeErr(op, err)
	}
	e.logger.Info("User approved", "user_id", user.ID)

	var w warnings
	e.notify(ctx, op, user.Handle, msgUserApproved, &w)
	return UserResult{User: user, Warnings: w}, nil
}

// AssignTask points the user at day regardless of completion and sends them the task.
func (e *Engine) AssignTask(ctx context.Context, userID int64, day int) (UserResult, error) {
	const op = "assign task"
	user, task, err := e.setCurrentTask(ctx, op, userID, day)
	if err != nil {
		return UserResult{}, err
	}
	var w warnings
	e.notify(ctx, op, user.Handle, assignedTaskMessage(task), &w)
	return UserResult{User: user, Warnings: w}, nil
}

// SelectTask is the participant's own focus change. It requires approval and
// sends nothing.
func (e *Engine) SelectTask(ctx context.Context, userID int64, day int) (models.User, models.Task, error) {
	return e.setCurrentTask(ctx, "select task", userID, day, RequireApproved)
}

func (e *Engine) setCurrentTask(ctx context.Context, op string, userID int64, day int, guards ...Guard) (models.User, models.Task, error) {
	unlock, err := e.lockUser(ctx, userID)
	if err != nil {
		return models.User{}, models.Task{}, storeErr(op, err)
	}
	defer unlock()

	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, models.Task{}, storeErr(op, err)
	}
	if err := check(op, user, guards...); err != nil {
		return models.User{}, models.Task{}, err
	}
	task, err := e.store.GetTaskByDay(ctx, day)
	if err != nil {
		return models.User{}, models.Task{}, storeErr(op, err)
	}
	user, err = e.store.UpdateUser(ctx, userID, database.UserUpdate{CurrentTask: &task.DayNumber})
	if err != nil {
		return models.User{}, models.Task{}, storeErr(op, err)
	}
	return user, task, nil
}

// CurrentTaskResult describes the task a user should work on now.
type CurrentTaskResult struct {
	User      models.User
	Task      models.Task
	Advanced  bool // the pointer moved past an already approved task
	Exhausted bool // every catalog task is approved; Task is the last focus
}

// CurrentTask returns the user's focused task. If that task is already
// approved the pointer moves to the first pending task, or Exhausted is set
// when none remain.
func (e *Engine) CurrentTask(ctx context.Context, userID int64) (CurrentTaskResult, error) {
	const op = "current task"
	unlock, err := e.lockUser(ctx, userID)
	if err != nil {
		return CurrentTaskResult{}, storeErr(op, err)
	}
	defer unlock()

	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return CurrentTaskResult{}, storeErr(op, err)
	}
	if err := check(op, user, RequireApproved, RequireActiveTask); err != nil {
		return CurrentTaskResult{}, err
	}
	task, err := e.store.GetTaskByDay(ctx, user.CurrentTask)
	if errors.Is(err, database.ErrNotFound) {
		return CurrentTaskResult{}, newError(op, ErrPreconditionFailed, "no task for day %d", user.CurrentTask)
	}
	if err != nil {
		return CurrentTaskResult{}, storeErr(op, err)
	}
	res := CurrentTaskResult{User: user, Task: task}

	done, err := e.hasApproved(ctx, user.ID, task.ID)
	if err != nil {
		return CurrentTaskResult{}, storeErr(op, err)
	}
	if !done {
		return res, nil
	}
	pending, err := e.tracker.PendingTasks(ctx, user.ID)
	if err != nil {
		return CurrentTaskResult{}, storeErr(op, err)
	}
	if len(pending) == 0 {
		res.Exhausted = true
		return res, nil
	}
	next := pending[0]
	user, err = e.store.UpdateUser(ctx, user.ID, database.UserUpdate{CurrentTask: &next.DayNumber})
	if err != nil {
		return CurrentTaskResult{}, storeErr(op, err)
	}
	return CurrentTaskResult{User: user, Task: next, Advanced: true}, nil
}

func (e *Engine) hasApproved(ctx context.Context, userID, taskID int64) (bool, error) {
	status := models.SubmissionApproved
	subs, err := e.store.ListSubmissions(ctx, database.SubmissionFilter{
		UserID: userID,
		TaskID: taskID,
		Status: &status,
		Limit:  1,
	})
	return len(subs) > 0, err
}

// ReplyResult is the outcome of RespondToTask.
type ReplyResult struct {
	Task     models.Task
	Response string
	Warnings []error
}

// RespondToTask relays a canned reply about a task to every administrator.
func (e *Engine) RespondToTask(ctx context.Context, userID int64, day int, reply Reply) (ReplyResult, error) {
	const op = "respond to task"
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return ReplyResult{}, storeErr(op, err)
	}
	if err := check(op, user, RequireApproved); err != nil {
		return ReplyResult{}, err
	}
	task, err := e.store.GetTaskByDay(ctx, day)
	if err != nil {
		return ReplyResult{}, storeErr(op, err)
	}
	var w warnings
	e.notifyAdmins(ctx, op, taskReplyMessage(user, task, reply), "", &w)
	return ReplyResult{Task: task, Response: reply.Text(), Warnings: w}, nil
}

// MarkFinished sets the user's finished flag. It does not consult eligibility.
func (e *Engine) MarkFinished(ctx context.Context, userID int64) (models.User, error) {
	const op = "mark finished"
	unlock, err := e.lockUser(ctx, userID)
	if err != nil {
		return models.User{}, storeErr(op, err)
	}
	defer unlock()

	user, err := e.store.UpdateUser(ctx, userID, database.UserUpdate{Finished: util.Ptr(true)})
	if err != nil {
		return models.User{}, storeErr(op, err)
	}
	e.logger.Info("User marked finished", "user_id", userID)
	return user, nil
}

// FinishedMessage is the acknowledgement shown after MarkFinished.
func FinishedMessage() string {
	return msgFinished
}

// RemoveUser deletes the user's submissions and then the user. A failure
// between the two steps leaves the user in place and is safe to retry.
func (e *Engine) RemoveUser(ctx context.Context, userID int64) (database.CascadeResult, error) {
	const op = "remove user"
	unlock, err := e.lockUser(ctx, userID)
	if err != nil {
		return database.CascadeResult{}, storeErr(op, err)
	}
	defer unlock()

	res, err := e.store.RemoveUserCascade(ctx, userID)
	if err != nil {
		return res, storeErr(op, err)
	}
	e.logger.Info("User removed", "user_id", userID, "submissions_deleted", res.SubmissionsDeleted)
	return res, nil
}
