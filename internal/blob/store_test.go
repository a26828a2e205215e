package blob

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPutOpenRoundTrip(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for _, dir := range []string{"voice", "certificates"} {
		if _, err := os.Stat(filepath.Join(root, dir)); err != nil {
			t.Fatalf("expected %s dir: %v", dir, err)
		}
	}

	key := VoiceKey(3, 7)
	if !strings.HasPrefix(key, "voice/voice_3_7_") || !strings.HasSuffix(key, ".ogg") {
		t.Fatalf("unexpected voice key %q", key)
	}
	ref, err := s.Put(context.Background(), key, strings.NewReader("OggS"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if ref != key {
		t.Fatalf("expected ref %q, got %q", key, ref)
	}
	rc, err := s.Open(ref)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil || string(data) != "OggS" {
		t.Fatalf("unexpected blob content %q (%v)", data, err)
	}

	// Overwrite keeps a single file.
	if _, err := s.Put(context.Background(), key, strings.NewReader("new")); err != nil {
		t.Fatalf("Put overwrite failed: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(root, "voice"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 file after overwrite, got %d", len(entries))
	}
}

func TestPathRejectsEscapes(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for _, key := range []string{"", "../etc/passwd", "/abs/file", `..\win`, "voice/../../x"} {
		if _, err := s.Path(key); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("expected ErrInvalidKey for %q, got %v", key, err)
		}
	}
}

func TestCertificateKey(t *testing.T) {
	cases := map[string]string{
		"":     "certificates/5.pdf",
		"PNG":  "certificates/5.png",
		".jpg": "certificates/5.jpg",
		"a/b":  "certificates/5.pdf",
	}
	for ext, want := range cases {
		if got := CertificateKey(5, ext); got != want {
			t.Fatalf("CertificateKey(%q) = %q, want %q", ext, got, want)
		}
	}
}

func TestPutCancelled(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Put(ctx, "voice/x.ogg", strings.NewReader("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ref, err := s.Put(context.Background(), VoiceKey(1, 1), strings.NewReader("OggS"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Delete(ref); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Open(ref); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected blob to be gone, got %v", err)
	}
	if err := s.Delete(ref); err != nil {
		t.Fatalf("deleting a missing blob should succeed, got %v", err)
	}
	if err := s.Delete("../escape"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
