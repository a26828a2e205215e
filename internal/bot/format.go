package bot

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/akyairhashvil/marathon/internal/config"
	"github.com/akyairhashvil/marathon/internal/database"
	"github.com/akyairhashvil/marathon/internal/lifecycle"
	"github.com/akyairhashvil/marathon/internal/models"
	"github.com/akyairhashvil/marathon/internal/util"
)

const (
	maxChunk  = config.MaxMessageLength
	separator = "────────────────────"
	dateFmt   = "2006-01-02"
)

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func statusLabel(s models.SubmissionStatus) string {
	switch s {
	case models.SubmissionPending:
		return "🟡 Pending"
	case models.SubmissionApproved:
		return "✅ Approved"
	case models.SubmissionRejected:
		return "❌ Rejected"
	case models.SubmissionNeedsRedo:
		return "🟠 Needs Redo"
	default:
		return "❓ Unknown"
	}
}

func formatUserStatus(u models.User, p models.Progress) string {
	return fmt.Sprintf(
		"👤 User: @%s\n✅ Approved: %s\n📅 Joined: %s\n📌 Current task: %d\n📈 Progress: %d/%d (%.0f%%)\n🏁 Finished: %s",
		u.Username, yesNo(u.Approved), u.JoinedAt.Format(dateFmt), u.CurrentTask,
		p.Completed, p.Total, p.Percentage, yesNo(u.Finished),
	)
}

func formatTask(t models.Task) string {
	return fmt.Sprintf("📝 Task Day %d:\n\n%s", t.DayNumber, t.Text)
}

func formatDashboard(d models.Dashboard) string {
	return fmt.Sprintf(
		"📊 <b>Admin Dashboard</b>\n\n"+
			"👥 Users: %d (✅ %d, ⏳ %d)\n"+
			"📝 Tasks: %d\n"+
			"🎤 Submissions: %d\n"+
			"  - ✅ Approved: %d\n"+
			"  - ❌ Rejected: %d\n"+
			"  - ⏳ Pending: %d\n"+
			"  - 🟠 Needs Redo: %d\n\n"+
			"Use buttons below to browse.",
		d.Users, d.ApprovedUsers, d.PendingUsers, d.Tasks, d.Submissions,
		d.ByStatus[models.SubmissionApproved],
		d.ByStatus[models.SubmissionRejected],
		d.ByStatus[models.SubmissionPending],
		d.ByStatus[models.SubmissionNeedsRedo],
	)
}

func pageSlice[T any](items []T, p util.Page) []T {
	if p.Offset >= len(items) {
		return nil
	}
	end := p.Offset + p.Size
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}

func formatUsersPage(users []models.User, p util.Page) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 <b>Users (Page %d/%d)</b>\n\n", p.Number+1, p.Count)
	for _, u := range pageSlice(users, p) {
		approved := "⏳"
		if u.Approved {
			approved = "✅"
		}
		fmt.Fprintf(&sb, "🆔 %d | @%s | %s | 📌 Task: %d\n", u.ID, html.EscapeString(u.Username), approved, u.CurrentTask)
	}
	return sb.String()
}

func formatTasksPage(tasks []models.Task, p util.Page) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📝 <b>Tasks (Page %d/%d)</b>\n\n", p.Number+1, p.Count)
	for _, t := range pageSlice(tasks, p) {
		fmt.Fprintf(&sb, "📅 Day %d: %s\n", t.DayNumber, html.EscapeString(t.Text))
	}
	return sb.String()
}

// submissionRow is a submission joined with the names needed to list it.
type submissionRow struct {
	Submission models.Submission
	Username   string
	Day        int
}

func formatSubmissionsPage(rows []submissionRow, p util.Page) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎤 <b>Submissions (Page %d/%d)</b>\n\n", p.Number+1, p.Count)
	for _, r := range pageSlice(rows, p) {
		fmt.Fprintf(&sb, "🆔 %d | 👤 @%s | 📅 Day %d | %s\n",
			r.Submission.ID, html.EscapeString(r.Username), r.Day, statusLabel(r.Submission.Status))
	}
	return sb.String()
}

func formatAllSubmissions(rows []submissionRow) string {
	var sb strings.Builder
	sb.WriteString("📝 All Submissions:\n\n")
	for _, r := range rows {
		fmt.Fprintf(&sb, "🆔 %d | 👤 @%s | 📅 Day %d | %s\n🔗 Path: %s\n%s\n",
			r.Submission.ID, r.Username, r.Day, statusLabel(r.Submission.Status), r.Submission.VoiceFilePath, separator)
	}
	return sb.String()
}

func formatAllUsers(users []models.User) string {
	var sb strings.Builder
	sb.WriteString("📊 All Users:\n\n")
	for _, u := range users {
		fmt.Fprintf(&sb, "🆔 ID: %d\n👤 @%s\n✅ Approved: %s\n📌 Task: %d | ✅ Finished: %s\n📅 Joined: %s\n%s\n",
			u.ID, u.Username, yesNo(u.Approved), u.CurrentTask, yesNo(u.Finished), u.JoinedAt.Format(dateFmt), separator)
	}
	return sb.String()
}

func formatUnapproved(users []models.User) string {
	var sb strings.Builder
	sb.WriteString("🔄 Pending Approvals:\n\n")
	for _, u := range users {
		fmt.Fprintf(&sb, "🆔 %d - @%s\n📅 Joined: %s\n%s\n", u.ID, u.Username, u.JoinedAt.Format(dateFmt), separator)
	}
	return sb.String()
}

func formatAllTasks(tasks []models.Task) string {
	var sb strings.Builder
	sb.WriteString("📝 All Tasks:\n\n")
	for _, t := range tasks {
		fmt.Fprintf(&sb, "Day %d: %s\n", t.DayNumber, t.Text)
	}
	sb.WriteString("\nUse /remove_task <day> to delete a task")
	return sb.String()
}

// splitMessage cuts text into chunks of at most max runes, preferring line breaks.
func splitMessage(text string, max int) []string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return []string{text}
	}
	var (
		chunks []string
		cur    strings.Builder
		n      int
	)
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			n = 0
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		ln := utf8.RuneCountInString(line)
		if n+ln > max {
			flush()
		}
		for ln > max {
			r := []rune(line)
			chunks = append(chunks, string(r[:max]))
			line = string(r[max:])
			ln -= max
		}
		cur.WriteString(line)
		n += ln
	}
	flush()
	return chunks
}

// errorText maps engine failures onto the message shown to the sender.
func (b *Bot) errorText(err error) string {
	var text string
	switch {
	case errors.Is(err, database.ErrNotFound):
		text = "❌ Not found."
	case errors.Is(err, database.ErrConflict):
		text = "❌ Already exists."
	case errors.Is(err, lifecycle.ErrInvalidState):
		text = "ℹ️ Nothing to do: " + lastSegment(err)
	case errors.Is(err, lifecycle.ErrPreconditionFailed), errors.Is(err, lifecycle.ErrInvalidArgument):
		text = "⚠️ " + lastSegment(err)
	default:
		text = "❌ Something went wrong. Please try again later."
	}
	if b.support != "" {
		text += "\n\nIf you have any questions, please message " + b.support
	}
	return text
}

// lastSegment returns the detail part of a lifecycle error.
func lastSegment(err error) string {
	var le *lifecycle.Error
	if errors.As(err, &le) && le.Msg != "" {
		return le.Msg
	}
	return err.Error()
}
