package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/akyairhashvil/marathon/internal/database"
)

// ExportSnapshot writes a JSON snapshot of the store into dir and returns the
// file path. A non-empty passphrase seals the snapshot.
func ExportSnapshot(ctx context.Context, snap Snapshotter, dir, passphrase string, now time.Time) (string, error) {
	payload, err := snap.ExportSnapshot(ctx, database.ExportOptions{
		EncryptOutput: passphrase != "",
		Passphrase:    passphrase,
	})
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filename := filepath.Join(dir, fmt.Sprintf("marathon_export_%s.json", now.Format("20060102_150405")))
	if err := os.WriteFile(filename, payload, 0o600); err != nil {
		return "", err
	}
	return filename, nil
}
