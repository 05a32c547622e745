// Package token implements the one-time upload token that authorizes a
// single credential-bundle upload.
//
// The token is a 128-bit random value rendered as hex, valid for 10
// minutes, persisted as a small JSON file so it survives a restart
// within its TTL. Expiry is lazy: nothing sweeps the file, validation
// just compares against the clock. At most one unexpired token exists
// at a time, and a successful upload consumes it regardless of the
// remaining TTL.
package token

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TTL is how long an issued upload token remains valid.
const TTL = 10 * time.Minute

// ErrTokenExists is returned by Issue while an unexpired token is outstanding.
var ErrTokenExists = errors.New("an unexpired upload token already exists")

// Token is an issued upload token.
type Token struct {
	Value     string `json:"token"`
	ExpiresAt int64  `json:"expires"` // unix millis
}

// Remaining returns the validity window left on the token.
func (t Token) Remaining(now time.Time) time.Duration {
	return time.UnixMilli(t.ExpiresAt).Sub(now)
}

// Manager issues, validates and consumes the single upload token slot.
type Manager struct {
	path string
	ttl  time.Duration
	mu   sync.Mutex

	now func() time.Time // test hook
}

// NewManager creates a manager persisting to path (e.g. data/upload_token.json).
func NewManager(path string) *Manager {
	return &Manager{path: path, ttl: TTL, now: time.Now}
}

// Issue mints a fresh token and persists it. It refuses to overwrite an
// unexpired token so an outstanding one is never silently invalidated.
func (m *Manager) Issue() (Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.read(); ok {
		return cur, ErrTokenExists
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return Token{}, err
	}
	t := Token{
		Value:     hex.EncodeToString(buf),
		ExpiresAt: m.now().Add(m.ttl).UnixMilli(),
	}
	if err := m.write(t); err != nil {
		return Token{}, err
	}
	slog.Info("upload token issued", "expires_in", m.ttl)
	return t, nil
}

// Current returns the persisted token if one exists and has not expired.
func (m *Manager) Current() (Token, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read()
}

// Validate reports whether candidate matches the persisted, unexpired
// token. Any persistence fault counts as "no token". Validation alone
// does not consume the token.
func (m *Manager) Validate(candidate string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.read()
	if !ok || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(cur.Value)) == 1
}

// Consume deletes the persisted token. Idempotent; called exactly once
// after a validated upload has fully decoded.
func (m *Manager) Consume() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		slog.Error("failed to clear upload token", "error", err)
		return
	}
	slog.Info("upload token consumed")
}

// read loads the token file. Missing, unreadable, malformed or expired
// all report "no token"; only real I/O faults are logged.
func (m *Manager) read() (Token, bool) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read upload token", "error", err)
		}
		return Token{}, false
	}
	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		slog.Warn("malformed upload token file", "error", err)
		return Token{}, false
	}
	if t.Value == "" || m.now().UnixMilli() > t.ExpiresAt {
		return Token{}, false
	}
	return t, true
}

func (m *Manager) write(t Token) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0700); err != nil {
		return err
	}
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0600)
}
