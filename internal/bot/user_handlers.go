package bot

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/akyairhashvil/marathon/internal/database"
	"github.com/akyairhashvil/marathon/internal/lifecycle"
	"github.com/akyairhashvil/marathon/internal/models"
)

const (
	msgNotRegistered   = "⚠️ Please register first."
	msgPendingApproval = "⌛ Your registration is pending approval\n\nWe'll notify you when you're approved!"
	msgMainMenu        = "🏆 Main Menu - Speaking Marathon\n\nChoose an option below:"
	msgSubmitHowTo     = "🎤 To submit your task, please record a voice message right here in the chat. Your teacher will review it and give feedback!"
)

// currentUser loads the sender, replying with the join prompt when unknown.
func (b *Bot) currentUser(r *request) (models.User, bool) {
	u, err := b.engine.UserByHandle(r.ctx, r.handle)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(r, msgNotRegistered, joinKeyboard())
		return models.User{}, false
	}
	if err != nil {
		r.logger.Error("User lookup failed", "error", err)
		b.reply(r, b.errorText(err), nil)
		return models.User{}, false
	}
	return u, true
}

// approvedUser additionally requires the sender to be approved.
func (b *Bot) approvedUser(r *request) (models.User, bool) {
	u, ok := b.currentUser(r)
	if !ok {
		return u, false
	}
	if !u.Approved {
		b.reply(r, "⏳ You're not approved yet. Please wait for admin confirmation.",
			withSupport(nil, b.supportRow("ℹ️ Support")))
		return u, false
	}
	return u, true
}

func (b *Bot) start(r *request) {
	u, err := b.engine.UserByHandle(r.ctx, r.handle)
	switch {
	case errors.Is(err, database.ErrNotFound):
		text := "🌟 Welcome to the Marathon Bot! Choose an option:"
		if b.support != "" {
			text += "\n\nIf you have any questions, please message " + b.support
		}
		b.reply(r, text, welcomeKeyboard())
	case err != nil:
		r.logger.Error("User lookup failed", "error", err)
		b.reply(r, b.errorText(err), nil)
	case u.Approved:
		b.reply(r, msgMainMenu, mainMenuKeyboard())
	default:
		b.reply(r, msgPendingApproval, withSupport(nil, b.supportRow("ℹ️ Contact Support")))
	}
}

func (b *Bot) startMenu(r *request) {
	if _, ok := b.currentUser(r); ok {
		b.start(r)
	}
}

func (b *Bot) participate(r *request) {
	u, created, err := b.engine.RegisterUser(r.ctx, r.handle, r.username)
	if err != nil {
		r.logger.Error("Registration failed", "error", err)
		b.reply(r, b.errorText(err), nil)
		return
	}
	r.logger.Info("Participate", "user_id", u.ID, "created", created)

	text := "🎉 To join the marathon:\n\n" +
		"1. Contact the organizer for payment\n" +
		"2. Send your username with payment\n" +
		"3. Wait for admin approval\n\n" +
		"You'll get a notification when approved!"
	rows := [][]tgbotapi.InlineKeyboardButton{row(button("🔙 Back", cbStartMenu))}
	b.reply(r, text, withSupport(rows, b.supportRow("📞 Contact Admin")))
}

func (b *Bot) learnMore(r *request) {
	b.reply(r,
		"🏅 Speaking Challenge:\n• Daily voice tasks\n• Teacher feedback\n• Certificate on finish\n\nChoose an option:",
		keyboard(
			row(button("🏃 Join Now", cbParticipate)),
			row(button("🔙 Back", cbStartMenu)),
		))
}

func (b *Bot) help(r *request) {
	text := "🆘 Help Center\n\nHere's what you can do:\n" +
		"• Use buttons to navigate\n" +
		"• Send voice messages for tasks\n" +
		"• Use /finish when you are done\n" +
		"• Contact support if stuck"
	if b.support != "" {
		text += "\n\nIf you have any questions, please message " + b.support
	}
	rows := [][]tgbotapi.InlineKeyboardButton{row(button("🔙 Main Menu", cbStartMenu))}
	b.reply(r, text, withSupport(rows, b.supportRow("📞 Contact Support")))
}

func (b *Bot) helpSubmitVoice(r *request) {
	b.reply(r, msgSubmitHowTo, nil)
}

func (b *Bot) myStatus(r *request) {
	u, ok := b.currentUser(r)
	if !ok {
		return
	}
	var p models.Progress
	if u.Approved {
		var err error
		if p, err = b.engine.Progress(r.ctx, u.ID); err != nil {
			r.logger.Error("Progress failed", "error", err)
		}
	}
	b.reply(r, formatUserStatus(u, p), statusKeyboard(u))
}

func (b *Bot) showMyTasks(r *request) {
	u, ok := b.approvedUser(r)
	if !ok {
		return
	}
	pending, err := b.engine.PendingTasks(r.ctx, u.ID)
	if err != nil {
		r.logger.Error("Pending tasks failed", "error", err)
		b.reply(r, b.errorText(err), nil)
		return
	}
	if len(pending) == 0 {
		b.reply(r, "🎉 You've completed all tasks! An admin will review your submissions soon.",
			keyboard(row(button("🏆 My Status", cbMyStatus))))
		return
	}
	b.reply(r, "📋 Your pending tasks:\nChoose which one to work on:", pendingTasksKeyboard(pending))
}

func (b *Bot) currentTask(r *request) {
	u, ok := b.approvedUser(r)
	if !ok {
		return
	}
	res, err := b.engine.CurrentTask(r.ctx, u.ID)
	if errors.Is(err, lifecycle.ErrPreconditionFailed) {
		b.reply(r, "No current task assigned yet. Pick one from your task list.", myTasksKeyboard())
		return
	}
	if err != nil {
		r.logger.Error("Current task failed", "error", err)
		b.reply(r, b.errorText(err), nil)
		return
	}
	if res.Exhausted {
		b.reply(r, "🎉 You've completed all available tasks!\n\nAn admin will send your certificate soon.", nil)
		return
	}
	b.reply(r, formatTask(res.Task)+"\n\nHow would you like to respond?", taskReplyKeyboard(res.Task.DayNumber))
}

func (b *Bot) selectTask(r *request, day int) {
	u, ok := b.approvedUser(r)
	if !ok {
		return
	}
	_, task, err := b.engine.SelectTask(r.ctx, u.ID, day)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(r, "Task not found.", myTasksKeyboard())
		return
	}
	if err != nil {
		r.logger.Error("Select task failed", "day", day, "error", err)
		b.reply(r, b.errorText(err), nil)
		return
	}
	b.reply(r, formatTask(task)+"\n\nHow would you like to respond?", taskReplyKeyboard(task.DayNumber))
}

func (b *Bot) suggestedReply(r *request, action string, day int) {
	u, ok := b.approvedUser(r)
	if !ok {
		return
	}
	res, err := b.engine.RespondToTask(r.ctx, u.ID, day, lifecycle.Reply(action))
	if errors.Is(err, database.ErrNotFound) {
		b.reply(r, "Task not found.", nil)
		return
	}
	if err != nil {
		r.logger.Error("Suggested reply failed", "error", err)
		b.reply(r, b.errorText(err), nil)
		return
	}
	b.reply(r, fmt.Sprintf("%s\n\nYour response: %s", formatTask(res.Task), res.Response),
		keyboard(
			row(button("ℹ️ How to submit", cbHelpSubmitVoice)),
			row(button("📋 My Tasks", cbShowMyTasks)),
		))
}

func (b *Bot) submitVoice(r *request) {
	u, ok := b.approvedUser(r)
	if !ok {
		return
	}
	if r.msg == nil || r.msg.Voice == nil {
		b.reply(r, "❗ Please send a voice message.", myTasksKeyboard())
		return
	}

	if _, err := b.engine.ActiveTask(r.ctx, u.ID); err != nil {
		if errors.Is(err, lifecycle.ErrPreconditionFailed) {
			b.reply(r, "❗ No active task found.", myTasksKeyboard())
			return
		}
		r.logger.Error("Active task lookup failed", "error", err)
		b.reply(r, b.errorText(err), nil)
		return
	}

	body, err := b.files.Fetch(r.ctx, r.msg.Voice.FileID)
	if err != nil {
		r.logger.Error("Voice download failed", "error", err)
		b.reply(r, "❌ Failed to save voice. Please try again.", myTasksKeyboard())
		return
	}
	defer body.Close()

	res, err := b.engine.SubmitVoice(r.ctx, u.ID, body)
	if errors.Is(err, lifecycle.ErrPreconditionFailed) {
		b.reply(r, "❗ No active task found.", myTasksKeyboard())
		return
	}
	if err != nil {
		r.logger.Error("Submission failed", "error", err)
		b.reply(r, b.errorText(err), nil)
		return
	}
	r.logger.Info("Voice submitted", "submission_id", res.Submission.ID, "warnings", len(res.Warnings))
	b.reply(r, "🎤 Voice submission received!", myTasksKeyboard())
}

func (b *Bot) finish(r *request) {
	u, ok := b.currentUser(r)
	if !ok {
		return
	}
	if _, err := b.engine.MarkFinished(r.ctx, u.ID); err != nil {
		r.logger.Error("Finish failed", "error", err)
		b.reply(r, b.errorText(err), nil)
		return
	}
	b.reply(r, lifecycle.FinishedMessage(), nil)
}
