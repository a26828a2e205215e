package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ADMIN_IDS", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("STORAGE_DIR", "")
	t.Setenv("NOTIFY_TIMEOUT", "")

	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBPath == "" || cfg.StorageDir == "" {
		t.Fatalf("expected default paths, got %q and %q", cfg.DBPath, cfg.StorageDir)
	}
	if cfg.NotifyTimeoutDuration() != DefaultNotifyTimeout {
		t.Fatalf("expected default notify timeout, got %s", cfg.NotifyTimeoutDuration())
	}
	if cfg.QueueEnabled() {
		t.Fatalf("queue should be disabled without REDIS_URL")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ADMIN_IDS", "100, 200,100")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("NOTIFY_TIMEOUT", "3s")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	admins := cfg.Admins()
	if admins.Len() != 2 {
		t.Fatalf("expected 2 unique admins, got %d", admins.Len())
	}
	if !admins.Contains("200") || admins.Contains("300") {
		t.Fatalf("unexpected admin membership: %v", admins.Handles())
	}
	if cfg.NotifyTimeoutDuration() != 3*time.Second {
		t.Fatalf("expected 3s, got %s", cfg.NotifyTimeoutDuration())
	}
	if !cfg.QueueEnabled() {
		t.Fatalf("queue should be enabled with REDIS_URL")
	}
}

func TestParseAdminsRejectsSpaces(t *testing.T) {
	if _, err := ParseAdmins("1,bad handle"); err == nil {
		t.Fatalf("expected error for handle with space")
	}
}

func TestAdminsHandlesIsCopy(t *testing.T) {
	a := NewAdmins("1", "2")
	h := a.Handles()
	h[0] = "mutated"
	if a.Handles()[0] != "1" {
		t.Fatalf("Handles must not expose internal slice")
	}
}
