package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/akyairhashvil/marathon/internal/config"
	"github.com/akyairhashvil/marathon/internal/util"
)

// BotAPI is the part of tgbotapi.BotAPI the sender uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BlobResolver turns a blob reference into a local file path.
type BlobResolver interface {
	Path(ref string) (string, error)
}

// Telegram sends messages through the Bot API. Handles are numeric chat ids.
type Telegram struct {
	api   BotAPI
	blobs BlobResolver
}

func NewTelegram(api BotAPI, blobs BlobResolver) *Telegram {
	return &Telegram{api: api, blobs: blobs}
}

func (t *Telegram) Send(ctx context.Context, msg Message) error {
	chatID, err := strconv.ParseInt(msg.Handle, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad chat id %q", ErrRecipientUnreachable, msg.Handle)
	}
	chattable, err := t.build(chatID, msg)
	if err != nil {
		return err
	}

	// tgbotapi has no context support; stop waiting when ctx ends.
	done := make(chan error, 1)
	go func() {
		_, err := t.api.Send(chattable)
		done <- err
	}()
	select {
	case err := <-done:
		return classifyTelegram(err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Telegram) build(chatID int64, msg Message) (tgbotapi.Chattable, error) {
	if msg.Attachment == "" {
		return tgbotapi.NewMessage(chatID, msg.Text), nil
	}
	if t.blobs == nil {
		return nil, errors.New("attachment given but no blob store configured")
	}
	path, err := t.blobs.Path(msg.Attachment)
	if err != nil {
		return nil, err
	}
	file := tgbotapi.FilePath(path)
	caption := util.Truncate(msg.Text, config.MaxCaptionLength, config.TruncationSuffix)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ogg", ".oga", ".opus":
		voice := tgbotapi.NewVoice(chatID, file)
		voice.Caption = caption
		return voice, nil
	default:
		doc := tgbotapi.NewDocument(chatID, file)
		doc.Caption = caption
		return doc, nil
	}
}

// classifyTelegram marks errors where the chat itself rejects delivery.
func classifyTelegram(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusBadRequest, http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrRecipientUnreachable, apiErr.Message)
		}
	}
	return err
}
