package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	nonceSize = 12
	tagSize   = 16
)

// ErrDecryption is returned for any failure while decrypting: malformed
// base64, truncated payload, or authentication tag mismatch. Callers never
// receive partial plaintext.
var ErrDecryption = errors.New("decryption failed")

// Engine performs layered AES-256-GCM encryption under two independent
// deployment secrets. Each key is derived once from its secret via SHA-256;
// the secrets are static per deployment and never user-supplied per record.
type Engine struct {
	keyA []byte
	keyB []byte
}

// NewEngine derives both 256-bit keys from the given secrets.
func NewEngine(secretA, secretB string) *Engine {
	a := sha256.Sum256([]byte(secretA))
	b := sha256.Sum256([]byte(secretB))
	return &Engine{keyA: a[:], keyB: b[:]}
}

// EncryptLayered encrypts plaintext under the first key, then re-encrypts
// the resulting encoded string under the second key. The returned value is
// safe for storage and transit.
func (e *Engine) EncryptLayered(plaintext string) (string, error) {
	inner, err := seal(e.keyA, []byte(plaintext))
	if err != nil {
		return "", err
	}
	outer, err := seal(e.keyB, []byte(inner))
	if err != nil {
		return "", err
	}
	return outer, nil
}

// DecryptLayered is the exact inverse of EncryptLayered: it removes the
// outer layer first, then the inner one. Any verification failure in either
// layer yields ErrDecryption.
func (e *Engine) DecryptLayered(blob string) (string, error) {
	inner, err := open(e.keyB, blob)
	if err != nil {
		return "", err
	}
	plaintext, err := open(e.keyA, string(inner))
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// seal encrypts plaintext with AES-GCM under key using a fresh random nonce
// and returns base64(nonce || tag || ciphertext).
func seal(key, plaintext []byte) (string, error) {
	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Go appends the tag after the ciphertext; the stored layout keeps the
	// tag directly after the nonce instead.
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	payload := make([]byte, 0, nonceSize+tagSize+len(ciphertext))
	payload = append(payload, nonce...)
	payload = append(payload, tag...)
	payload = append(payload, ciphertext...)

	return base64.StdEncoding.EncodeToString(payload), nil
}

// open reverses seal. It fails closed with ErrDecryption for any malformed
// or tampered input.
func open(key []byte, encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrDecryption
	}
	if len(raw) < nonceSize+tagSize {
		return nil, ErrDecryption
	}

	nonce := raw[:nonceSize]
	tag := raw[nonceSize : nonceSize+tagSize]
	ciphertext := raw[nonceSize+tagSize:]

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}
