// Package domain contains core concepts of the chat system.
// This file defines Session entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"chatd/errors"
)

// Session is the server-side state for one connected actor. A session owns
// exactly one connection and a connection belongs to exactly one session;
// the transport layer enforces that pairing, the domain only tracks identity.
type Session struct {
	ID       uuid.UUID
	JoinedAt time.Time

	mu   sync.RWMutex
	name string
}

func NewSession() *Session {
	return &Session{
		ID:       uuid.New(),
		JoinedAt: time.Now().UTC(),
	}
}

// Name returns the login name bound to the session, or the empty string
// while the session is unauthenticated.
func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// Authenticated reports whether a login name has been bound. Authenticated
// sessions are implicitly members of the public room.
func (s *Session) Authenticated() bool {
	return s.Name() != ""
}

// Bind sets the login name, at most once per session lifetime.
// Name uniqueness across sessions is the registry's concern, not the
// session's; callers must hold the registry lock when binding.
func (s *Session) Bind(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.name != "" {
		return errors.ErrAlreadyLoggedIn
	}
	s.name = name
	return nil
}
