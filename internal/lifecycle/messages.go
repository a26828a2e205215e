package lifecycle

import (
	"fmt"

	"github.com/akyairhashvil/marathon/internal/models"
)

const (
	msgUserApproved = "🎉 Your account has been approved!\n\nYou can now access all marathon features with /start"
	msgFinished     = "🎉 Congratulations on completing the marathon!\nAn admin will review your submissions and send your certificate soon."
)

// Reply is one of the canned answers a user can give to a task.
type Reply string

const (
	ReplyConfirm  Reply = "confirm"
	ReplyLater    Reply = "later"
	ReplyQuestion Reply = "question"
)

// Text returns the user-facing wording of the reply.
func (r Reply) Text() string {
	switch r {
	case ReplyConfirm:
		return "✅ I'll complete this task right away!"
	case ReplyLater:
		return "⏳ I'll come back to this task later today."
	case ReplyQuestion:
		return "❓ I have a question about this task."
	default:
		return "🤔 I'm working on this task."
	}
}

func reviewMessage(d models.Decision, feedback string) string {
	switch d {
	case models.DecisionApprove:
		return fmt.Sprintf("✅ Your submission was approved!\n\n📝 Feedback: %s", feedback)
	case models.DecisionReject:
		return fmt.Sprintf("❌ Your submission was rejected.\n\n📝 Feedback: %s", feedback)
	default:
		return fmt.Sprintf("🔁 Please redo this task:\n\n%s\n\nSubmit your new attempt with /submit_voice", feedback)
	}
}

func newSubmissionMessage(sub models.Submission, user models.User, task models.Task) string {
	return fmt.Sprintf("🎤 New submission #%d from @%s\nTask: Day %d\nFile: %s",
		sub.ID, user.Username, task.DayNumber, sub.VoiceFilePath)
}

func assignedTaskMessage(task models.Task) string {
	return fmt.Sprintf("📣 Admin sent you task %d:\n\n%s", task.DayNumber, task.Text)
}

func taskReplyMessage(user models.User, task models.Task, r Reply) string {
	return fmt.Sprintf("🗣️ User @%s responded to task %d:\n%s", user.Username, task.DayNumber, r.Text())
}

func certificateCaption(user models.User) string {
	return fmt.Sprintf("🏆 Certificate of completion for @%s", user.Username)
}
