// Package config holds static constants and the runtime configuration loaded from the
// environment and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime configuration. It is built once at startup and read-only afterwards.
type Config struct {
	// TelegramToken is the bot API token; required by cmd/bot and cmd/worker.
	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`
	// AdminIDs is a comma-separated list of administrator contact handles.
	AdminIDs string `mapstructure:"ADMIN_IDS"`
	// DBPath is the sqlite database file. Defaults to <data dir>/marathon.db.
	DBPath string `mapstructure:"DB_PATH"`
	// StorageDir is the root for voice recordings and certificates.
	StorageDir string `mapstructure:"STORAGE_DIR"`
	// RedisURL enables queued notification delivery and cross-process row locks when set.
	RedisURL string `mapstructure:"REDIS_URL"`
	// HTTPAddr enables the read-only status API when set (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is "json" or "text".
	LogFormat string `mapstructure:"LOG_FORMAT"`
	// NotifyTimeout bounds a single delivery attempt (e.g. "10s").
	NotifyTimeout string `mapstructure:"NOTIFY_TIMEOUT"`
	// AdminPassphraseHash is the bcrypt hash that unlocks the admin console. Empty disables the lock.
	AdminPassphraseHash string `mapstructure:"ADMIN_PASSPHRASE_HASH"`
	// SupportContact is appended to user-facing error messages.
	SupportContact string `mapstructure:"SUPPORT_CONTACT"`
}

// Load reads .env (if present), then builds and validates Config from the environment.
// dataDir supplies defaults for DB_PATH and STORAGE_DIR.
func Load(dataDir string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("TELEGRAM_TOKEN", "")
	v.SetDefault("ADMIN_IDS", "")
	v.SetDefault("DB_PATH", filepath.Join(dataDir, DBFileName))
	v.SetDefault("STORAGE_DIR", filepath.Join(dataDir, "storage"))
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("HTTP_ADDR", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("NOTIFY_TIMEOUT", DefaultNotifyTimeout.String())
	v.SetDefault("ADMIN_PASSPHRASE_HASH", "")
	v.SetDefault("SUPPORT_CONTACT", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks fields that every entrypoint depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("config: DB_PATH must be set")
	}
	if strings.TrimSpace(c.StorageDir) == "" {
		return errors.New("config: STORAGE_DIR must be set")
	}
	if _, err := ParseAdmins(c.AdminIDs); err != nil {
		return err
	}
	return nil
}

// Admins returns the parsed administrator handle list.
func (c *Config) Admins() Admins {
	admins, _ := ParseAdmins(c.AdminIDs)
	return admins
}

// NotifyTimeoutDuration parses NotifyTimeout. Returns DefaultNotifyTimeout if unset or invalid.
func (c *Config) NotifyTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.NotifyTimeout)
	if err != nil || d <= 0 {
		return DefaultNotifyTimeout
	}
	return d
}

// QueueEnabled reports whether notifications go through the Redis-backed queue.
func (c *Config) QueueEnabled() bool {
	return c != nil && strings.TrimSpace(c.RedisURL) != ""
}

// Admins is the immutable set of administrator contact handles.
type Admins struct {
	handles []string
	index   map[string]struct{}
}

// ParseAdmins splits a comma-separated handle list. Handles must not contain spaces.
func ParseAdmins(raw string) (Admins, error) {
	a := Admins{index: make(map[string]struct{})}
	for _, part := range strings.Split(raw, ",") {
		h := strings.TrimSpace(part)
		if h == "" {
			continue
		}
		if strings.ContainsAny(h, " \t") {
			return Admins{}, fmt.Errorf("config: invalid admin handle %q", h)
		}
		if _, dup := a.index[h]; dup {
			continue
		}
		a.index[h] = struct{}{}
		a.handles = append(a.handles, h)
	}
	return a, nil
}

// NewAdmins builds an Admins set from explicit handles.
func NewAdmins(handles ...string) Admins {
	a, _ := ParseAdmins(strings.Join(handles, ","))
	return a
}

// Handles returns a copy of the handle list in configuration order.
func (a Admins) Handles() []string {
	out := make([]string, len(a.handles))
	copy(out, a.handles)
	return out
}

// Contains reports whether handle is an administrator.
func (a Admins) Contains(handle string) bool {
	_, ok := a.index[handle]
	return ok
}

// Len returns the number of administrators.
func (a Admins) Len() int {
	return len(a.handles)
}
