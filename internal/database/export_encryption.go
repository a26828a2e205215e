package database

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
)

var ErrPassphraseRequired = errors.New("snapshot is encrypted; passphrase required")

type encryptedExport struct {
	Encrypted bool   `json:"encrypted"`
	Nonce     string `json:"nonce"`
	Data      string `json:"data"`
}

func newGCM(passphrase string) (cipher.AEAD, error) {
	hash := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(hash[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encryptData(payload []byte, passphrase string) ([]byte, error) {
	gcm, err := newGCM(passphrase)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	ciphertext := gcm.Seal(nil, nonce, payload, nil)
	wrapped := encryptedExport{
		Encrypted: true,
		Nonce:     base64.StdEncoding.EncodeToString(nonce),
		Data:      base64.StdEncoding.EncodeToString(ciphertext),
	}
	return json.Marshal(wrapped)
}

// maybeDecrypt returns payload unchanged unless it is an encrypted envelope.
func maybeDecrypt(payload []byte, passphrase string) ([]byte, error) {
	var env encryptedExport
	if err := json.Unmarshal(payload, &env); err != nil || !env.Encrypted {
		return payload, nil
	}
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, err
	}
	gcm, err := newGCM(passphrase)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, data, nil)
}
