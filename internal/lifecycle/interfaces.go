package lifecycle

import (
	"context"
	"io"
)

//go:generate mockgen -source=interfaces.go -destination=mock_interfaces_test.go -package=lifecycle

// Notifier is the outbound notification contract. Implementations report
// delivery failures; the engine turns them into warnings and never rolls back.
type Notifier interface {
	Notify(ctx context.Context, handle, text string) error
	NotifyWithAttachment(ctx context.Context, handle, text, blobRef string) error
}

// BlobStore persists binary content and returns a reference to it.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error)
	Delete(key string) error
}
