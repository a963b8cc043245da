package security

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dbpilot/aegis/internal/models"
	"golang.org/x/crypto/chacha20poly1305"
)

// DemoSession is the payload sealed into a demo-session token. The expiry
// lives inside the ciphertext so it cannot be tampered with client-side.
type DemoSession struct {
	SessionID string    `json:"session_id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DemoSessionCipher seals and opens demo-session tokens with
// ChaCha20-Poly1305. Tokens are nonce-prefixed ciphertext, base64url encoded.
type DemoSessionCipher struct {
	aead cipher.AEAD
}

// NewDemoSessionCipher creates a cipher from a 32-byte key
func NewDemoSessionCipher(key []byte) (*DemoSessionCipher, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create demo session cipher: %w", err)
	}
	return &DemoSessionCipher{aead: aead}, nil
}

// Seal encrypts the session into an opaque token string
func (c *DemoSessionCipher) Seal(session *DemoSession) (string, error) {
	plaintext, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("failed to marshal demo session: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a token and rejects expired or tampered sessions. Tamper and
// decode failures return ErrSessionInvalid; a valid but stale session returns
// ErrSessionExpired.
func (c *DemoSessionCipher) Open(token string) (*DemoSession, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, models.ErrSessionInvalid
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return nil, models.ErrSessionInvalid
	}

	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return nil, models.ErrSessionInvalid
	}

	var session DemoSession
	if err := json.Unmarshal(plaintext, &session); err != nil {
		return nil, models.ErrSessionInvalid
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, models.ErrSessionExpired
	}

	return &session, nil
}
