package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/akyairhashvil/marathon/internal/config"
	"github.com/akyairhashvil/marathon/internal/util"
)

const (
	maxTotalAttempts  = 3 * config.MaxPassphraseAttempts
	passphraseBackoff = 30 * time.Second
)

// AuthResult represents the outcome of an unlock attempt.
type AuthResult struct {
	Success     bool
	ShouldRetry bool
	Message     string
}

// authHandler checks the console passphrase against its bcrypt hash and
// backs off after repeated failures.
type authHandler struct {
	hash        string
	failures    int
	total       int
	lockedUntil time.Time
	now         func() time.Time
}

func newAuthHandler(hash string, now func() time.Time) *authHandler {
	if now == nil {
		now = time.Now
	}
	return &authHandler{hash: hash, now: now}
}

// Required reports whether the console starts locked.
func (h *authHandler) Required() bool {
	return h.hash != ""
}

func (h *authHandler) ValidatePassphrase(entered string) AuthResult {
	if !h.Required() {
		return AuthResult{Success: true}
	}
	if wait := h.lockedUntil.Sub(h.now()); wait > 0 {
		remaining := wait.Round(time.Second)
		if remaining < time.Second {
			remaining = time.Second
		}
		return AuthResult{ShouldRetry: true, Message: fmt.Sprintf("Too many attempts. Try again in %s", remaining)}
	}
	if entered == "" {
		return AuthResult{ShouldRetry: true, Message: "Passphrase required"}
	}

	err := util.VerifyPassphrase(h.hash, entered)
	if err == nil {
		h.failures, h.total = 0, 0
		return AuthResult{Success: true}
	}
	if !errors.Is(err, util.ErrPassphraseMismatch) {
		return AuthResult{ShouldRetry: false, Message: fmt.Sprintf("Invalid passphrase hash: %v", err)}
	}

	h.failures++
	h.total++
	if h.total >= maxTotalAttempts {
		return AuthResult{ShouldRetry: false, Message: "Too many failed attempts"}
	}
	if h.failures >= config.MaxPassphraseAttempts {
		h.failures = 0
		h.lockedUntil = h.now().Add(passphraseBackoff)
	}
	return AuthResult{ShouldRetry: true, Message: "Incorrect passphrase"}
}
