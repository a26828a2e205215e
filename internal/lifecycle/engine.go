// Package lifecycle drives a participant through the marathon: registration,
// approval, task focus, voice submissions, reviews and certificate issuance.
//
// Every state change is committed to the store before any notification is
// attempted. Notification failures never undo a committed change; they are
// returned as warnings on the operation's result. Writers of a user's task
// pointer are serialized on the user's key, and reviews additionally on the
// submission's key (submission first, then user).
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/akyairhashvil/marathon/internal/certificate"
	"github.com/akyairhashvil/marathon/internal/config"
	"github.com/akyairhashvil/marathon/internal/database"
	"github.com/akyairhashvil/marathon/internal/lock"
	"github.com/akyairhashvil/marathon/internal/progress"
)

// Deps wires an Engine. Store and Notifier are required.
type Deps struct {
	Store    database.Repository
	Notifier Notifier
	Locker   lock.Locker
	Blobs    BlobStore
	Admins   config.Admins
	Logger   *slog.Logger
	Now      func() time.Time
}

type Engine struct {
	store    database.Repository
	tracker  *progress.Tracker
	gate     *certificate.Gate
	notifier Notifier
	locker   lock.Locker
	blobs    BlobStore
	admins   config.Admins
	logger   *slog.Logger
	now      func() time.Time
}

func New(d Deps) (*Engine, error) {
	if d.Store == nil {
		return nil, errors.New("lifecycle: store is required")
	}
	if d.Notifier == nil {
		return nil, errors.New("lifecycle: notifier is required")
	}
	if d.Locker == nil {
		d.Locker = lock.NewKeyed()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	tracker := progress.NewTracker(d.Store)
	return &Engine{
		store:    d.Store,
		tracker:  tracker,
		gate:     certificate.NewGate(tracker),
		notifier: d.Notifier,
		locker:   d.Locker,
		blobs:    d.Blobs,
		admins:   d.Admins,
		logger:   d.Logger,
		now:      d.Now,
	}, nil
}

// IsAdmin reports whether handle is in the configured administrator list.
func (e *Engine) IsAdmin(handle string) bool {
	return e.admins.Contains(handle)
}

func (e *Engine) lockUser(ctx context.Context, id int64) (func(), error) {
	return e.locker.Lock(ctx, lock.UserKey(id))
}

// warnings collects non-fatal notification failures for one operation.
type warnings []error

func (w *warnings) add(err error) {
	if err != nil {
		*w = append(*w, err)
	}
}

func (e *Engine) notify(ctx context.Context, op, handle, text string, w *warnings) {
	if err := e.notifier.Notify(ctx, handle, text); err != nil {
		e.logger.Warn("Notification failed", "op", op, "handle", handle, "error", err)
		w.add(err)
	}
}

func (e *Engine) notifyAttachment(ctx context.Context, op, handle, text, ref string, w *warnings) {
	if err := e.notifier.NotifyWithAttachment(ctx, handle, text, ref); err != nil {
		e.logger.Warn("Notification failed", "op", op, "handle", handle, "blob", ref, "error", err)
		w.add(err)
	}
}

func (e *Engine) notifyAdmins(ctx context.Context, op, text, ref string, w *warnings) {
	for _, handle := range e.admins.Handles() {
		if ref == "" {
			e.notify(ctx, op, handle, text, w)
			continue
		}
		e.notifyAttachment(ctx, op, handle, text, ref, w)
	}
}
