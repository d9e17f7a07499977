// Package auth implements the shared-password session gate for the
// dashboard API.
package auth

import (
	"crypto/subtle"
	"sync"
	"time"

	"github.com/google/uuid"
)

// sessionTTL bounds how long an issued token stays valid.
const sessionTTL = 12 * time.Hour

// State holds the issued session tokens. With an empty password the gate
// is disabled and everything passes.
type State struct {
	mu       sync.Mutex
	password string
	sessions map[string]time.Time
	now      func() time.Time
}

// NewState creates the session store. An empty password disables auth.
func NewState(password string) *State {
	return &State{
		password: password,
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Enabled reports whether a password is configured.
func (s *State) Enabled() bool {
	return s.password != ""
}

// Login checks the password and issues a session token.
func (s *State) Login(password string) (string, bool) {
	if !s.Enabled() {
		return "", false
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		return "", false
	}

	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = s.now().Add(sessionTTL)
	return token, true
}

// Logout revokes a token. Revoking an unknown token is a no-op.
func (s *State) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Valid reports whether a token is live, dropping it once expired.
func (s *State) Valid(token string) bool {
	if !s.Enabled() {
		return true
	}
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.sessions[token]
	if !ok {
		return false
	}
	if s.now().After(expiry) {
		delete(s.sessions, token)
		return false
	}
	return true
}
