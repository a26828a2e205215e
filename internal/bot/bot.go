// Package bot routes Telegram updates to the lifecycle engine and renders
// the replies. It holds no marathon state of its own beyond in-flight review
// prompts.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/akyairhashvil/marathon/internal/lifecycle"
)

// API is the part of tgbotapi.BotAPI the router needs.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Updater is the long-poll source of updates.
type Updater interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Options struct {
	SupportContact string
	Workers        int
	Logger         *slog.Logger
}

type Bot struct {
	api     API
	engine  *lifecycle.Engine
	files   FileFetcher
	support string
	workers int
	reviews *reviewSessions
	logger  *slog.Logger
}

func New(api API, engine *lifecycle.Engine, files FileFetcher, opts Options) *Bot {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Bot{
		api:     api,
		engine:  engine,
		files:   files,
		support: opts.SupportContact,
		workers: opts.Workers,
		reviews: newReviewSessions(),
		logger:  opts.Logger,
	}
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context, updater Updater) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := updater.GetUpdatesChan(cfg)
	b.logger.Info("Bot polling for updates", "workers", b.workers)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case u, ok := <-updates:
					if !ok {
						return
					}
					b.HandleUpdate(ctx, u)
				}
			}
		}()
	}

	<-ctx.Done()
	updater.StopReceivingUpdates()
	wg.Wait()
	b.logger.Info("Bot stopped")
	return nil
}

// request is one inbound event with the identity of its sender.
type request struct {
	ctx      context.Context
	logger   *slog.Logger
	chatID   int64
	handle   string
	username string
	msg      *tgbotapi.Message
	callback *tgbotapi.CallbackQuery
}

// HandleUpdate processes a single update. Panics are recovered and logged.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	logger := b.logger.With("request_id", uuid.NewString(), "update_id", u.UpdateID)
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Update handler panicked", "panic", fmt.Sprint(rec))
		}
	}()

	switch {
	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
			return
		}
		r := b.newRequest(ctx, logger, cq.Message.Chat.ID, cq.From)
		r.callback = cq
		b.answerCallback(r)
		b.routeCallback(r, cq.Data)
	case u.Message != nil:
		m := u.Message
		if m.From == nil || m.Chat == nil {
			return
		}
		r := b.newRequest(ctx, logger, m.Chat.ID, m.From)
		r.msg = m
		b.routeMessage(r)
	}
}

func (b *Bot) newRequest(ctx context.Context, logger *slog.Logger, chatID int64, from *tgbotapi.User) *request {
	handle := strconv.FormatInt(from.ID, 10)
	return &request{
		ctx:      ctx,
		logger:   logger.With("handle", handle),
		chatID:   chatID,
		handle:   handle,
		username: from.UserName,
	}
}

func (b *Bot) answerCallback(r *request) {
	if _, err := b.api.Request(tgbotapi.NewCallback(r.callback.ID, "")); err != nil {
		r.logger.Debug("Callback answer failed", "error", err)
	}
}

// reply edits the message a button belongs to, or sends a new message.
func (b *Bot) reply(r *request, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	b.send(r, text, markup, "")
}

func (b *Bot) replyHTML(r *request, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	b.send(r, text, markup, tgbotapi.ModeHTML)
}

func (b *Bot) send(r *request, text string, markup *tgbotapi.InlineKeyboardMarkup, mode string) {
	var c tgbotapi.Chattable
	if r.callback != nil && r.callback.Message != nil {
		edit := tgbotapi.NewEditMessageText(r.chatID, r.callback.Message.MessageID, text)
		edit.ReplyMarkup = markup
		edit.ParseMode = mode
		c = edit
	} else {
		m := tgbotapi.NewMessage(r.chatID, text)
		if markup != nil {
			m.ReplyMarkup = *markup
		}
		m.ParseMode = mode
		c = m
	}
	if _, err := b.api.Send(c); err != nil {
		r.logger.Warn("Reply failed", "error", err)
	}
}

// replyChunks sends long text as several messages.
func (b *Bot) replyChunks(r *request, text string) {
	for _, part := range splitMessage(text, maxChunk) {
		m := tgbotapi.NewMessage(r.chatID, part)
		if _, err := b.api.Send(m); err != nil {
			r.logger.Warn("Reply failed", "error", err)
			return
		}
	}
}

// warn reports notification failures of an otherwise successful operation.
func (b *Bot) warn(r *request, warnings []error, text string) {
	if len(warnings) == 0 {
		return
	}
	r.logger.Warn("Operation completed with warnings", "count", len(warnings))
	b.replyChunks(r, text)
}
