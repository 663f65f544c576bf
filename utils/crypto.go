package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

var credCipher cipher.AEAD

// InitCipher prepares the AES-GCM cipher for tournament room credentials.
// hexKey must be 64 hex chars (32 bytes). An empty key generates a random
// one for development — encrypted values then do not survive a restart.
func InitCipher(hexKey string) error {
	var key []byte
	if hexKey == "" {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return err
		}
		log.Warn().Msg("⚠️  CREDENTIALS_KEY not set, using a random key (dev only)")
	} else {
		var err error
		key, err = hex.DecodeString(hexKey)
		if err != nil || len(key) != 32 {
			return fmt.Errorf("CREDENTIALS_KEY must be 64 hex chars")
		}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	credCipher, err = cipher.NewGCM(block)
	return err
}

// Encrypt returns base64(nonce || ciphertext); "" passes through.
func Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, credCipher.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := credCipher.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func Decrypt(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	ns := credCipher.NonceSize()
	if len(raw) < ns {
		return "", fmt.Errorf("ciphertext too short")
	}
	plain, err := credCipher.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
