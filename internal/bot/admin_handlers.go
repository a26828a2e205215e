package bot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/akyairhashvil/marathon/internal/config"
	"github.com/akyairhashvil/marathon/internal/database"
	"github.com/akyairhashvil/marathon/internal/lifecycle"
	"github.com/akyairhashvil/marathon/internal/models"
	"github.com/akyairhashvil/marathon/internal/util"
)

const adminHelpText = "<b>🛠️ Admin Commands</b>\n\n" +
	"<b>👥 User Management</b>\n" +
	"/approve &lt;id&gt; - Approve a user\n" +
	"/unapproved - List pending approvals\n" +
	"/remove_user &lt;id&gt; - Remove a user\n" +
	"/all_users - List all users\n\n" +
	"<b>📝 Task Management</b>\n" +
	"/add_task &lt;day&gt; &lt;text&gt; - Create new task\n" +
	"/send_task &lt;user_id&gt; &lt;day&gt; - Send task to user\n" +
	"/remove_task &lt;day&gt; - Remove task\n" +
	"/all_tasks - List all tasks\n\n" +
	"<b>🎤 Submissions</b>\n" +
	"/all_submissions - View all voice submissions\n" +
	"/review &lt;submission_id&gt; - Review a submission\n" +
	"/approve_feedback, /reject_feedback, /redo_feedback &lt;id&gt; &lt;text&gt;\n" +
	"/cancel - Cancel a pending review\n\n" +
	"<b>🏆 Certificates</b>\n" +
	"/send_certificate @username [message] - attach a file or let the bot render one\n\n" +
	"/dashboard - Statistics"

var usernamePattern = regexp.MustCompile(`@(\w+)`)

func (b *Bot) adminHelp(r *request) {
	b.replyHTML(r, adminHelpText, nil)
}

func (b *Bot) dashboard(r *request) {
	d, err := b.engine.Dashboard(r.ctx)
	if err != nil {
		r.logger.Error("Dashboard failed", "error", err)
		b.reply(r, b.errorText(err), nil)
		return
	}
	b.replyHTML(r, formatDashboard(d), dashboardKeyboard())
}

func (b *Bot) viewUsers(r *request, page int) {
	users, err := b.engine.Users(r.ctx)
	if err != nil {
		b.reply(r, b.errorText(err), nil)
		return
	}
	p := util.Paginate(len(users), page, config.PageSize)
	b.replyHTML(r, formatUsersPage(users, p), paginationKeyboard(cbViewUsers, p))
}

func (b *Bot) viewTasks(r *request, page int) {
	tasks, err := b.engine.Tasks(r.ctx)
	if err != nil {
		b.reply(r, b.errorText(err), nil)
		return
	}
	p := util.Paginate(len(tasks), page, config.PageSize)
	b.replyHTML(r, formatTasksPage(tasks, p), paginationKeyboard(cbViewTasks, p))
}

func (b *Bot) viewSubmissions(r *request, page int) {
	rows, err := b.submissionRows(r)
	if err != nil {
		b.reply(r, b.errorText(err), nil)
		return
	}
	p := util.Paginate(len(rows), page, config.PageSize)
	b.replyHTML(r, formatSubmissionsPage(rows, p), paginationKeyboard(cbViewSubs, p))
}

// submissionRows lists submissions newest first with usernames and days resolved.
func (b *Bot) submissionRows(r *request) ([]submissionRow, error) {
	subs, err := b.engine.Submissions(r.ctx, database.SubmissionFilter{Newest: true})
	if err != nil {
		return nil, err
	}
	users, err := b.engine.Users(r.ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := b.engine.Tasks(r.ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	days := make(map[int64]int, len(tasks))
	for _, t := range tasks {
		days[t.ID] = t.DayNumber
	}
	rows := make([]submissionRow, 0, len(subs))
	for _, s := range subs {
		name, ok := names[s.UserID]
		if !ok {
			name = "Unknown"
		}
		rows = append(rows, submissionRow{Submission: s, Username: name, Day: days[s.TaskID]})
	}
	return rows, nil
}

func (b *Bot) allSubmissions(r *request) {
	rows, err := b.submissionRows(r)
	if err != nil {
		r.logger.Error("Listing submissions failed", "error", err)
		b.reply(r, "❌ Failed to fetch submissions", nil)
		return
	}
	if len(rows) == 0 {
		b.reply(r, "No submissions yet.", nil)
		return
	}
	b.replyChunks(r, formatAllSubmissions(rows))
}

func parseID(args []string, i int) (int64, bool) {
	if len(args) <= i {
		return 0, false
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	return id, err == nil
}

func (b *Bot) approveUser(r *request, args []string) {
	if len(args) == 0 {
		b.reply(r, "Usage: /approve <user_id>", nil)
		return
	}
	id, ok := parseID(args, 0)
	if !ok {
		b.reply(r, "❌ User ID must be a number", nil)
		return
	}
	res, err := b.engine.ApproveUser(r.ctx, id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		b.reply(r, fmt.Sprintf("❌ User ID %d not found", id), nil)
		return
	case errors.Is(err, lifecycle.ErrInvalidState):
		b.reply(r, fmt.Sprintf("ℹ️ User @%s is already approved", res.User.Username), nil)
		return
	case err != nil:
		r.logger.Error("Approve failed", "user_id", id, "error", err)
		b.reply(r, b.errorText(err), nil)
		return
	}
	b.reply(r, fmt.Sprintf("✅ Approved user:\nID: %d\nUsername: @%s\nJoined: %s",
		res.User.ID, res.User.Username, res.User.JoinedAt.Format(dateFmt)), nil)
	b.warn(r, res.Warnings, "⚠️ Approved but couldn't notify user")
}

func (b *Bot) listUnapproved(r *request) {
	users, err := b.engine.UnapprovedUsers(r.ctx)
	if err != nil {
		b.reply(r, b.errorText(err), nil)
		return
	}
	if len(users) == 0 {
		b.reply(r, "🌟 All users are approved!", nil)
		return
	}
	b.replyChunks(r, formatUnapproved(users))
}

func (b *Bot) allUsers(r *request) {
	users, err := b.engine.Users(r.ctx)
	if err != nil {
		b.reply(r, b.errorText(err), nil)
		return
	}
	if len(users) == 0 {
		b.reply(r, "No users in database", nil)
		return
	}
	b.replyChunks(r, formatAllUsers(users))
}

func (b *Bot) removeUser(r *request, args []string) {
	if len(args) == 0 {
		b.reply(r, "Usage: /remove_user <user_id>", nil)
		return
	}
	id, ok := parseID(args, 0)
	if !ok {
		b.reply(r, "❌ User ID must be a number", nil)
		return
	}
	res, err := b.engine.RemoveUser(r.ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(r, fmt.Sprintf("❌ User %d not found", id), nil)
		return
	}
	if err != nil {
		r.logger.Error("Remove user failed", "user_id", id, "error", err)
		b.reply(r, "❌ Failed to remove user", nil)
		return
	}
	b.reply(r, fmt.Sprintf("✅ User %d removed\nAlso deleted %d submissions", id, res.SubmissionsDeleted), nil)
}

func (b *Bot) addTask(r *request, args []string) {
	if len(args) < 2 {
		b.reply(r, "Usage: /add_task <day_number> <task_text>\n\nExample: /add_task 1 Send a voice introduction", nil)
		return
	}
	day, err := strconv.Atoi(args[0])
	if err != nil {
		b.reply(r, "❌ Day number must be an integer", nil)
		return
	}
	task, err := b.engine.AddTask(r.ctx, day, strings.Join(args[1:], " "))
	if errors.Is(err, database.ErrConflict) {
		b.reply(r, fmt.Sprintf("❌ Task for day %d already exists", day), nil)
		return
	}
	if err != nil {
		r.logger.Error("Add task failed", "day", day, "error", err)
		b.reply(r, b.errorText(err), nil)
		return
	}
	b.reply(r, fmt.Sprintf("✅ Task added successfully!\nDay: %d\nID: %d\nTask: %s", task.DayNumber, task.ID, task.Text), nil)
}

func (b *Bot) removeTask(r *request, args []string) {
	if len(args) == 0 {
		b.reply(r, "Usage: /remove_task <day_number>\n\nUse /all_tasks to see existing tasks", nil)
		return
	}
	day, err := strconv.Atoi(args[0])
	if err != nil {
		b.reply(r, "❌ Day number must be an integer", nil)
		return
	}
	task, err := b.engine.Task(r.ctx, day)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(r, fmt.Sprintf("❌ No task found for day %d", day), nil)
		return
	}
	if err != nil {
		b.reply(r, b.errorText(err), nil)
		return
	}
	res, err := b.engine.RemoveTask(r.ctx, day)
	if err != nil {
		r.logger.Error("Remove task failed", "day", day, "error", err)
		b.reply(r, "❌ Failed to remove task - check logs", nil)
		return
	}
	b.reply(r, fmt.Sprintf("✅ Task removed successfully!\nDay: %d\nTask: %s\nAlso deleted %d submissions",
		day, task.Text, res.SubmissionsDeleted), nil)
}

func (b *Bot) allTasks(r *request) {
	tasks, err := b.engine.Tasks(r.ctx)
	if err != nil {
		b.reply(r, b.errorText(err), nil)
		return
	}
	if len(tasks) == 0 {
		b.reply(r, "No tasks in database", nil)
		return
	}
	b.replyChunks(r, formatAllTasks(tasks))
}

func (b *Bot) sendTask(r *request, args []string) {
	if len(args) < 2 {
		b.reply(r, "Usage: /send_task <user_id> <day_number>\n\nExample: /send_task 5 3 - sends day 3 task to user with ID 5", nil)
		return
	}
	id, ok := parseID(args, 0)
	day, err := strconv.Atoi(args[1])
	if !ok || err != nil {
		b.reply(r, "❌ Both arguments must be numbers", nil)
		return
	}
	res, err := b.engine.AssignTask(r.ctx, id, day)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(r, fmt.Sprintf("❌ User %d or task for day %d not found", id, day), nil)
		return
	}
	if err != nil {
		r.logger.Error("Send task failed", "user_id", id, "day", day, "error", err)
		b.reply(r, b.errorText(err), nil)
		return
	}
	if len(res.Warnings) > 0 {
		b.reply(r, fmt.Sprintf("⚠️ Task %d assigned to @%s but couldn't notify them.\nUser may have blocked the bot or left.",
			day, res.User.Username), nil)
		return
	}
	b.reply(r, fmt.Sprintf("✅ Task %d sent to @%s (ID: %d)", day, res.User.Username, id), nil)
}

func (b *Bot) startReview(r *request, args []string) {
	if len(args) == 0 {
		b.reply(r, "Usage: /review <submission_id>", nil)
		return
	}
	id, ok := parseID(args, 0)
	if !ok {
		b.reply(r, "❌ Submission ID must be a number", nil)
		return
	}
	sub, err := b.engine.Submission(r.ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(r, "❌ Submission not found", nil)
		return
	}
	if err != nil {
		b.reply(r, b.errorText(err), nil)
		return
	}
	username := "Unknown"
	if u, err := b.engine.User(r.ctx, sub.UserID); err == nil {
		username = u.Username
	}
	day := 0
	if t, err := b.engine.TaskByID(r.ctx, sub.TaskID); err == nil {
		day = t.DayNumber
	}
	b.reply(r, fmt.Sprintf("📝 Review submission #%d\n👤 User: @%s\n📅 Day: %d\nStatus: %s\n\nPlease select an action:",
		sub.ID, username, day, statusLabel(sub.Status)), reviewKeyboard(sub.ID))
}

// reviewButton records the chosen decision and asks for feedback text.
func (b *Bot) reviewButton(r *request, id int64, d models.Decision) {
	sub, err := b.engine.Submission(r.ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(r, "❌ Submission not found", nil)
		return
	}
	if err != nil {
		b.reply(r, b.errorText(err), nil)
		return
	}
	taskText := "Unknown Task"
	if t, err := b.engine.TaskByID(r.ctx, sub.TaskID); err == nil {
		taskText = t.Text
	}
	b.reviews.start(r.handle, pendingReview{submissionID: id, decision: d})
	b.reply(r, fmt.Sprintf("⚡ Action: %s submission #%d\nTask: %s\n\nPlease enter your feedback:",
		strings.ToUpper(string(d)), id, taskText), nil)
}

func (b *Bot) feedbackCommand(r *request, d models.Decision, args []string) {
	if len(args) < 2 {
		b.reply(r, fmt.Sprintf("Usage:\n/%s_feedback <submission_id> <feedback>", d), nil)
		return
	}
	id, ok := parseID(args, 0)
	if !ok {
		b.reply(r, "❌ submission_id must be a number", nil)
		return
	}
	b.completeReview(r, id, d, strings.Join(args[1:], " "))
}

func (b *Bot) completeReview(r *request, id int64, d models.Decision, feedback string) {
	res, err := b.engine.Review(r.ctx, id, d, feedback)
	switch {
	case errors.Is(err, database.ErrNotFound):
		b.reply(r, "❌ Submission not found", nil)
		return
	case errors.Is(err, lifecycle.ErrInvalidState):
		b.reply(r, fmt.Sprintf("ℹ️ Submission #%d was already reviewed", id), nil)
		return
	case err != nil:
		r.logger.Error("Review failed", "submission_id", id, "error", err)
		b.reply(r, b.errorText(err), nil)
		return
	}

	var text string
	switch d {
	case models.DecisionApprove:
		text = fmt.Sprintf("✅ Approved submission #%d", id)
	case models.DecisionReject:
		text = fmt.Sprintf("❌ Rejected submission #%d", id)
	default:
		text = fmt.Sprintf("🔁 Redo request sent for submission #%d", id)
	}
	switch {
	case res.Advanced:
		text += fmt.Sprintf("\n📌 @%s moved to day %d", res.User.Username, res.User.CurrentTask)
	case res.Exhausted:
		text += fmt.Sprintf("\n🏁 @%s has completed every task", res.User.Username)
	}
	b.reply(r, text, nil)
	b.warn(r, res.Warnings, "⚠️ Review saved but couldn't notify user")
}

func (b *Bot) cancelReview(r *request) {
	if b.reviews.cancel(r.handle) {
		b.reply(r, "❌ Review cancelled", nil)
		return
	}
	b.reply(r, "Nothing to cancel.", nil)
}

// sendCertificate handles "/send_certificate @user [message]" with an
// optional attached document.
func (b *Bot) sendCertificate(r *request, text string) {
	if !b.engine.IsAdmin(r.handle) {
		b.reply(r, "❌ Admin only command", nil)
		return
	}
	match := usernamePattern.FindStringSubmatch(text)
	if match == nil {
		b.reply(r, "❌ Usage:\n1. Optionally attach the certificate file\n2. Caption or command: /send_certificate @username message", nil)
		return
	}
	username := strings.ToLower(match[1])
	caption := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "/send_certificate"))

	var artifact *lifecycle.Artifact
	if doc := r.msg.Document; doc != nil {
		body, err := b.files.Fetch(r.ctx, doc.FileID)
		if err != nil {
			r.logger.Error("Certificate download failed", "error", err)
			b.reply(r, "❌ Failed to download the certificate file", nil)
			return
		}
		var buf bytes.Buffer
		_, err = io.Copy(&buf, body)
		body.Close()
		if err != nil {
			b.reply(r, "❌ Failed to download the certificate file", nil)
			return
		}
		artifact = &lifecycle.Artifact{Name: doc.FileName, Data: buf.Bytes()}
	}

	res, err := b.engine.IssueCertificate(r.ctx, username, artifact, caption)
	switch {
	case errors.Is(err, database.ErrNotFound):
		b.reply(r, fmt.Sprintf("❌ User @%s not found in database", username), nil)
		return
	case errors.Is(err, lifecycle.ErrPreconditionFailed):
		b.reply(r, fmt.Sprintf("⚠️ User hasn't completed all tasks.\nCompleted: %d/%d",
			res.Progress.Completed, res.Progress.Total), nil)
		return
	case err != nil:
		r.logger.Error("Certificate failed", "username", username, "error", err)
		b.reply(r, fmt.Sprintf("❌ Failed to send certificate: %v", err), nil)
		return
	}
	if len(res.Warnings) > 0 {
		b.reply(r, fmt.Sprintf("⚠️ Certificate stored but couldn't be delivered to @%s", username), nil)
		return
	}
	b.reply(r, fmt.Sprintf("✅ Certificate sent successfully to @%s", username), nil)
}
