package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"sync"
	"time"
)

const csrfTokenBytes = 32

// csrfToken is the single active token slot for one session
type csrfToken struct {
	value  string
	expiry time.Time
}

// CSRFManager issues and validates per-session CSRF tokens. Each session has
// exactly one active token: issuing or rotating invalidates the previous one,
// and validation accepts only an exact match against the current token with
// no grace period. State is in-memory only; a process restart forces
// re-issuance, which is intentional.
type CSRFManager struct {
	mu       sync.RWMutex
	sessions map[string]*csrfToken
	ttl      time.Duration
}

// NewCSRFManager creates a CSRF manager with the given token lifetime and
// starts a background sweep for expired slots.
func NewCSRFManager(ttl time.Duration) *CSRFManager {
	m := &CSRFManager{
		sessions: make(map[string]*csrfToken),
		ttl:      ttl,
	}

	go m.cleanupExpired()

	return m
}

// GetToken returns the session's current token, generating a new one if none
// exists or the current token has expired. Within the validity window the
// call is idempotent.
func (m *CSRFManager) GetToken(sessionID string) (string, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tok, ok := m.sessions[sessionID]; ok && time.Now().Before(tok.expiry) {
		return tok.value, tok.expiry, nil
	}

	return m.issueLocked(sessionID)
}

// Validate reports whether candidate exactly matches the session's current,
// unexpired token. Comparison is constant-time.
func (m *CSRFManager) Validate(sessionID, candidate string) bool {
	m.mu.RLock()
	tok, ok := m.sessions[sessionID]
	m.mu.RUnlock()

	if !ok || candidate == "" {
		return false
	}
	if time.Now().After(tok.expiry) {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(tok.value), []byte(candidate)) == 1
}

// Rotate discards the session's current token unconditionally and issues a
// replacement. Any outstanding copy of the old token stops validating.
func (m *CSRFManager) Rotate(sessionID string) (string, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return m.issueLocked(sessionID)
}

// issueLocked generates and stores a fresh token. Caller holds m.mu.
func (m *CSRFManager) issueLocked(sessionID string) (string, time.Time, error) {
	raw := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", time.Time{}, err
	}

	tok := &csrfToken{
		value:  hex.EncodeToString(raw),
		expiry: time.Now().Add(m.ttl),
	}
	m.sessions[sessionID] = tok

	return tok.value, tok.expiry, nil
}

// cleanupExpired periodically removes expired token slots
func (m *CSRFManager) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		now := time.Now()
		for sessionID, tok := range m.sessions {
			if now.After(tok.expiry) {
				delete(m.sessions, sessionID)
			}
		}
		m.mu.Unlock()
	}
}
