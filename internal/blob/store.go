// Package blob persists binary content (voice recordings, certificates)
// under a storage root. References handed out are relative keys.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/akyairhashvil/marathon/internal/config"
	"github.com/google/uuid"
)

var ErrInvalidKey = errors.New("invalid blob key")

// Store is a directory-backed blob store.
type Store struct {
	root string
}

// New creates root and the well-known subdirectories if missing.
func New(root string) (*Store, error) {
	for _, dir := range []string{root, filepath.Join(root, config.VoiceDir), filepath.Join(root, config.CertificatesDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	return &Store{root: root}, nil
}

// VoiceKey names a new voice recording for the user and task.
func VoiceKey(userID, taskID int64) string {
	return path.Join(config.VoiceDir, fmt.Sprintf("voice_%d_%d_%s.ogg", userID, taskID, uuid.NewString()))
}

// CertificateKey names the certificate file for a user; ext defaults to pdf.
func CertificateKey(userID int64, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		ext = config.CertificateExt
	}
	return path.Join(config.CertificatesDir, fmt.Sprintf("%d.%s", userID, ext))
}

// Put writes r to key, replacing any previous content, and returns the key.
// The write goes to a temp file first so readers never see a partial blob.
func (s *Store) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	full, err := s.Path(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".blob-*")
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

// Open returns a reader for a stored blob.
func (s *Store) Open(key string) (io.ReadCloser, error) {
	full, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Delete removes a stored blob. A missing blob is not an error.
func (s *Store) Delete(key string) error {
	full, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Path resolves key to a file path under the root, rejecting escapes.
func (s *Store) Path(key string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(key, `\`, "/"))
	if clean == "." || clean == "" || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
