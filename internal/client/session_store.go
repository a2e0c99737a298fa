package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Session is the dispatcher authority persisted on the client.
type Session struct {
	Authorized bool      `json:"authorized" yaml:"authorized"`
	Token      string    `json:"token" yaml:"token"`
	ExpiresAt  time.Time `json:"expiresAt" yaml:"expiresAt"`
}

// ValidAt reports whether the session grants authority at now: the flag is set and now is
// strictly before the expiry.
func (s Session) ValidAt(now time.Time) bool {
	return s.Authorized && s.Token != "" && now.Before(s.ExpiresAt)
}

// SessionStore persists at most one session.
type SessionStore interface {
	// Load returns ErrNoSession when nothing is stored.
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

var ErrNoSession = errors.New("no stored session")

// FileSessionStore keeps the session in a YAML file readable only by the owner.
type FileSessionStore struct {
	Path string
}

func (f FileSessionStore) Load() (Session, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to read session file: %w", err)
	}
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("failed to parse session file: %w", err)
	}
	if !s.Authorized && s.Token == "" {
		return Session{}, ErrNoSession
	}
	return s, nil
}

func (f FileSessionStore) Save(s Session) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}
	if err := os.WriteFile(f.Path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (f FileSessionStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// MemorySessionStore keeps the session for the lifetime of the process.
type MemorySessionStore struct {
	mu      sync.Mutex
	session *Session
}

func (m *MemorySessionStore) Load() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, ErrNoSession
	}
	return *m.session, nil
}

func (m *MemorySessionStore) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &s
	return nil
}

func (m *MemorySessionStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

// SessionState is the outcome of CheckSession.
type SessionState string

const (
	SessionValid   SessionState = "valid"
	SessionExpired SessionState = "expired"
	SessionAbsent  SessionState = "absent"
)

// CheckSession inspects the stored session at now. The first time it sees an expired
// session it clears it from the store.
func CheckSession(store SessionStore, now time.Time) (SessionState, Session, error) {
	s, err := store.Load()
	if errors.Is(err, ErrNoSession) {
		return SessionAbsent, Session{}, nil
	}
	if err != nil {
		return SessionAbsent, Session{}, err
	}
	if s.ValidAt(now) {
		return SessionValid, s, nil
	}
	if err := store.Clear(); err != nil {
		return SessionExpired, s, err
	}
	return SessionExpired, s, nil
}
