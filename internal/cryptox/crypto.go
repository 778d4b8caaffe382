// Package cryptox seals small local records (the stored session) with
// AES-256-GCM under a key derived from a per-install secret.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"io"

	"github.com/yudo-scheduler/yudo/internal/common"
	"golang.org/x/crypto/hkdf"
)

const (
	KeySize    = 32
	SecretSize = 32
)

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// NewSecret returns a fresh random install secret.
func NewSecret() []byte {
	return common.GenerateRandByteArray(SecretSize)
}

// DeriveKey expands secret into a KeySize key bound to purpose. Different
// purposes yield unrelated keys from the same secret.
func DeriveKey(secret []byte, purpose string) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, nil, []byte(purpose))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Seal encrypts plaintext and returns nonce||ciphertext.
func Seal(plaintext, key []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := common.GenerateRandByteArray(aead.NonceSize())
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal.
func Open(sealed, key []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, ErrCiphertextTooShort
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
