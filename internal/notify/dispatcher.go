// Package notify delivers user and administrator notifications. Delivery is
// best-effort: failures are logged here and reported as ErrNotificationFailed
// so callers can surface a warning without failing their own operation.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/akyairhashvil/marathon/internal/config"
	"github.com/akyairhashvil/marathon/internal/util"
)

var (
	ErrNotificationFailed = errors.New("notification failed")
	// ErrRecipientUnreachable marks failures that retrying will not fix.
	ErrRecipientUnreachable = errors.New("recipient unreachable")
)

// Message is one outbound notification. Attachment is a blob reference.
type Message struct {
	Handle     string `json:"handle"`
	Text       string `json:"text"`
	Attachment string `json:"attachment,omitempty"`
}

// Sender moves a message over a transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	maxLen  int
	logger  *slog.Logger
}

func NewDispatcher(sender Sender, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = config.DefaultNotifyTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sender: sender, timeout: timeout, maxLen: config.MaxMessageLength, logger: logger}
}

func (d *Dispatcher) Notify(ctx context.Context, handle, text string) error {
	return d.deliver(ctx, Message{Handle: handle, Text: text})
}

func (d *Dispatcher) NotifyWithAttachment(ctx context.Context, handle, text, blobRef string) error {
	return d.deliver(ctx, Message{Handle: handle, Text: text, Attachment: blobRef})
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) error {
	msg.Handle = strings.TrimSpace(msg.Handle)
	if msg.Handle == "" {
		d.logger.Warn("Notification skipped", "reason", "empty handle")
		return fmt.Errorf("%w: empty handle", ErrNotificationFailed)
	}
	msg.Text = util.Truncate(msg.Text, d.maxLen, config.TruncationSuffix)

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.sender.Send(ctx, msg); err != nil {
		d.logger.Warn("Notification delivery failed",
			"handle", msg.Handle,
			"attachment", msg.Attachment != "",
			"error", err,
		)
		return fmt.Errorf("%w: %s: %w", ErrNotificationFailed, msg.Handle, err)
	}
	d.logger.Debug("Notification delivered", "handle", msg.Handle, "attachment", msg.Attachment != "")
	return nil
}
