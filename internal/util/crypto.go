package util

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var ErrPassphraseMismatch = errors.New("passphrase does not match")

// HashPassphrase returns a bcrypt hash suitable for ADMIN_PASSPHRASE_HASH.
func HashPassphrase(pass string) (string, error) {
	if err := ValidatePassphrase(pass); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassphrase compares pass against a bcrypt hash.
func VerifyPassphrase(hash, pass string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPassphraseMismatch
	}
	return err
}

func ValidatePassphrase(pass string) error {
	if len(pass) < 8 {
		return fmt.Errorf("passphrase must be at least 8 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range pass {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("passphrase must contain a letter and a digit")
	}
	return nil
}
