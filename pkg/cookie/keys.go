package cookie

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	keySize         = 32
	minSecretLength = 32
	signingInfo     = "paywidget/cookie-signing/v1"
)

// deriveKey expands a master secret into a purpose-bound signing key so the
// raw APP_SECRET never keys an HMAC directly.
func deriveKey(secret string) ([]byte, error) {
	key := make([]byte, keySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(signingInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// GenerateSecret returns a random hex secret long enough for New.
func GenerateSecret() (string, error) {
	b := make([]byte, keySize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
