package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/akyairhashvil/marathon/internal/config"
	"github.com/akyairhashvil/marathon/internal/lifecycle"
	"github.com/akyairhashvil/marathon/internal/models"
	"github.com/akyairhashvil/marathon/internal/util"
)

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func keyboard(rows ...[]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

// supportRow links to the support contact when it is a Telegram username.
func (b *Bot) supportRow(label string) []tgbotapi.InlineKeyboardButton {
	name, ok := strings.CutPrefix(strings.TrimSpace(b.support), "@")
	if !ok || name == "" {
		return nil
	}
	return row(tgbotapi.NewInlineKeyboardButtonURL(label, "https://t.me/"+name))
}

func withSupport(rows [][]tgbotapi.InlineKeyboardButton, support []tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	if support != nil {
		rows = append(rows, support)
	}
	if len(rows) == 0 {
		return nil
	}
	return keyboard(rows...)
}

func welcomeKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(row(button("🏃 Join", cbParticipate), button("ℹ️ Learn More", cbLearnMore)))
}

func joinKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(row(button("🏃 Join", cbParticipate)))
}

func mainMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(
		row(button("📋 My Tasks", cbShowMyTasks), button("🎤 Current Task", cbCurrentTask)),
		row(button("🏆 My Status", cbMyStatus), button("ℹ️ Help", cbHelp)),
	)
}

func myTasksKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(row(button("📋 My Tasks", cbShowMyTasks)))
}

func statusKeyboard(u models.User) *tgbotapi.InlineKeyboardMarkup {
	if !u.Approved || u.Finished {
		return nil
	}
	return keyboard(
		row(button("📋 My Tasks", cbShowMyTasks)),
		row(button("🎤 Current Task", cbCurrentTask)),
	)
}

func taskReplyKeyboard(day int) *tgbotapi.InlineKeyboardMarkup {
	return keyboard(
		row(button("👍 I'll do it now", suggestedReplyData(string(lifecycle.ReplyConfirm), day))),
		row(button("🕒 I'll do it later", suggestedReplyData(string(lifecycle.ReplyLater), day))),
		row(button("❓ Need clarification", suggestedReplyData(string(lifecycle.ReplyQuestion), day))),
		row(button("ℹ️ How to submit", cbHelpSubmitVoice)),
		row(button("📋 My Tasks", cbShowMyTasks)),
	)
}

func pendingTasksKeyboard(tasks []models.Task) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks)+1)
	for _, t := range tasks {
		label := fmt.Sprintf("Day %d: %s", t.DayNumber, util.Truncate(t.Text, config.TaskLabelWidth, config.TruncationSuffix))
		rows = append(rows, row(button(label, selectTaskData(t.DayNumber))))
	}
	rows = append(rows, row(button("🔙 Main Menu", cbStartMenu)))
	return keyboard(rows...)
}

func reviewKeyboard(id int64) *tgbotapi.InlineKeyboardMarkup {
	return keyboard(
		row(button("✅ Approve", reviewData(cbApprove, id))),
		row(button("🔁 Request Redo", reviewData(cbRedo, id))),
		row(button("❌ Reject", reviewData(cbReject, id))),
	)
}

func dashboardKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(
		row(button("👥 View Users", pageData(cbViewUsers, 0))),
		row(button("📝 View Tasks", pageData(cbViewTasks, 0))),
		row(button("🎤 View Submissions", pageData(cbViewSubs, 0))),
	)
}

// paginationKeyboard returns nil when everything fits on one page.
func paginationKeyboard(prefix string, p util.Page) *tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	if p.HasPrev() {
		buttons = append(buttons, button("⏪ Prev", pageData(prefix, p.Number-1)))
	}
	if p.HasNext() {
		buttons = append(buttons, button("Next ⏩", pageData(prefix, p.Number+1)))
	}
	if len(buttons) == 0 {
		return nil
	}
	return keyboard(buttons)
}
