package bot

import (
	"strings"

	"github.com/akyairhashvil/marathon/internal/models"
)

func (b *Bot) routeMessage(r *request) {
	m := r.msg
	if m.Document != nil && strings.HasPrefix(strings.TrimSpace(m.Caption), "/send_certificate") {
		b.sendCertificate(r, m.Caption)
		return
	}
	if m.Voice != nil {
		b.submitVoice(r)
		return
	}
	if !m.IsCommand() {
		// A plain message from an admin with an open review prompt is the feedback.
		if b.engine.IsAdmin(r.handle) {
			if p, ok := b.reviews.take(r.handle); ok {
				b.completeReview(r, p.submissionID, p.decision, m.Text)
			}
		}
		return
	}

	args := strings.Fields(m.CommandArguments())
	r.logger.Info("Command received", "command", m.Command())
	switch m.Command() {
	case "start":
		b.start(r)
	case "my_status":
		b.myStatus(r)
	case "submit_voice":
		b.submitVoice(r)
	case "finish":
		b.finish(r)
	case "help":
		b.help(r)

	case "admin_help":
		b.admin(r, b.adminHelp)
	case "dashboard":
		b.admin(r, b.dashboard)
	case "approve":
		b.admin(r, func(r *request) { b.approveUser(r, args) })
	case "unapproved":
		b.admin(r, b.listUnapproved)
	case "all_users":
		b.admin(r, b.allUsers)
	case "remove_user":
		b.admin(r, func(r *request) { b.removeUser(r, args) })
	case "add_task":
		b.admin(r, func(r *request) { b.addTask(r, args) })
	case "remove_task":
		b.admin(r, func(r *request) { b.removeTask(r, args) })
	case "all_tasks":
		b.admin(r, b.allTasks)
	case "send_task":
		b.admin(r, func(r *request) { b.sendTask(r, args) })
	case "all_submissions":
		b.admin(r, b.allSubmissions)
	case "review":
		b.admin(r, func(r *request) { b.startReview(r, args) })
	case "approve_feedback":
		b.admin(r, func(r *request) { b.feedbackCommand(r, models.DecisionApprove, args) })
	case "reject_feedback":
		b.admin(r, func(r *request) { b.feedbackCommand(r, models.DecisionReject, args) })
	case "redo_feedback":
		b.admin(r, func(r *request) { b.feedbackCommand(r, models.DecisionRedo, args) })
	case "cancel":
		b.admin(r, b.cancelReview)
	case "send_certificate":
		b.admin(r, func(r *request) { b.sendCertificate(r, m.Text) })
	}
}

func (b *Bot) routeCallback(r *request, data string) {
	cb, err := parseCallback(data)
	if err != nil {
		r.logger.Warn("Ignoring callback", "data", data, "error", err)
		return
	}
	r.logger.Info("Callback received", "kind", cb.Kind)
	switch cb.Kind {
	case cbParticipate:
		b.participate(r)
	case cbLearnMore:
		b.learnMore(r)
	case cbStartMenu:
		b.startMenu(r)
	case cbShowMyTasks:
		b.showMyTasks(r)
	case cbCurrentTask:
		b.currentTask(r)
	case cbMyStatus:
		b.myStatus(r)
	case cbHelp:
		b.help(r)
	case cbHelpSubmitVoice:
		b.helpSubmitVoice(r)
	case cbSelectTask:
		b.selectTask(r, int(cb.N))
	case cbSuggestedReply:
		b.suggestedReply(r, cb.Arg, int(cb.N))

	case cbViewUsers:
		b.admin(r, func(r *request) { b.viewUsers(r, int(cb.N)) })
	case cbViewTasks:
		b.admin(r, func(r *request) { b.viewTasks(r, int(cb.N)) })
	case cbViewSubs:
		b.admin(r, func(r *request) { b.viewSubmissions(r, int(cb.N)) })
	case cbApprove:
		b.admin(r, func(r *request) { b.reviewButton(r, cb.N, models.DecisionApprove) })
	case cbReject:
		b.admin(r, func(r *request) { b.reviewButton(r, cb.N, models.DecisionReject) })
	case cbRedo:
		b.admin(r, func(r *request) { b.reviewButton(r, cb.N, models.DecisionRedo) })
	}
}

// admin runs h only for configured administrators.
func (b *Bot) admin(r *request, h func(*request)) {
	if !b.engine.IsAdmin(r.handle) {
		r.logger.Warn("Rejected admin action from non-admin")
		b.reply(r, "❌ Admin only command", nil)
		return
	}
	h(r)
}
