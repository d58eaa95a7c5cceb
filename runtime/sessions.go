// Package runtime holds the shared registries and the message router.
// These are the only shared mutable resources in the server; each registry
// guards its own maps with a single RWMutex. When a caller needs both
// registries, the session registry is always taken before the room registry.
package runtime

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"chatd/contract"
	"chatd/domain"
	"chatd/errors"
)

// SessionRegistry maps each live connection to its session and outbound
// queue, and enforces login-name uniqueness across all sessions.
type SessionRegistry struct {
	mu       sync.RWMutex
	log      *slog.Logger
	sessions map[uuid.UUID]*domain.Session
	sinks    map[uuid.UUID]contract.NotificationSink
	names    map[string]uuid.UUID
	order    []string // login names, in authentication order
}

func NewSessionRegistry(log *slog.Logger) *SessionRegistry {
	return &SessionRegistry{
		log:      log,
		sessions: make(map[uuid.UUID]*domain.Session),
		sinks:    make(map[uuid.UUID]contract.NotificationSink),
		names:    make(map[string]uuid.UUID),
	}
}

// Register creates an unauthenticated session owning the given sink.
// It always succeeds.
func (r *SessionRegistry) Register(sink contract.NotificationSink) *domain.Session {
	sess := domain.NewSession()

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.sinks[sess.ID] = sink
	r.mu.Unlock()

	r.log.Debug("Session registered", "session_id", sess.ID)
	return sess
}

// Lookup resolves a session and its sink by id.
func (r *SessionRegistry) Lookup(id uuid.UUID) (*domain.Session, contract.NotificationSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, nil, false
	}
	return sess, r.sinks[id], true
}

// Authenticate binds a login name to the session. At most one of any set of
// concurrent calls with the same name succeeds; the others get
// ErrLoginConflict. A session that already holds a name gets
// ErrAlreadyLoggedIn. The empty name is refused: it is the unauthenticated
// marker and must never enter the name table. Login is silent: no other
// session is notified.
func (r *SessionRegistry) Authenticate(id uuid.UUID, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty login name", errors.ErrInvalidName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		return errors.ErrNotConnected
	}
	if owner, taken := r.names[name]; taken && owner != id {
		return fmt.Errorf("%w: %q", errors.ErrLoginConflict, name)
	}
	if err := sess.Bind(name); err != nil {
		return err
	}
	r.names[name] = id
	r.order = append(r.order, name)

	r.log.Info("Session authenticated", "session_id", id, "name", name)
	return nil
}

// ListNames snapshots the authenticated login names in insertion order.
func (r *SessionRegistry) ListNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]string, len(r.order))
	copy(res, r.order)
	return res
}

// Unregister removes the session and closes its queue. It is idempotent;
// callers drop the session from the room registry separately, session
// registry first.
func (r *SessionRegistry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		return
	}
	if name := sess.Name(); name != "" {
		delete(r.names, name)
		for i, n := range r.order {
			if n == name {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	if sink, ok := r.sinks[id]; ok {
		_ = sink.Close()
	}
	delete(r.sessions, id)
	delete(r.sinks, id)

	r.log.Debug("Session unregistered", "session_id", id)
}

// BroadcastAuthenticated enqueues a notification to every authenticated
// session except the sender, and returns the recipient count. The read lock
// keeps the recipient set consistent for the whole enqueue pass: this is the
// delivery path for the public room, whose membership is derived from the
// authentication state rather than stored.
func (r *SessionRegistry) BroadcastAuthenticated(sender uuid.UUID, n domain.Notification) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for id, sess := range r.sessions {
		if id == sender || !sess.Authenticated() {
			continue
		}
		if sink, ok := r.sinks[id]; ok && sink.Consume(n) == nil {
			count++
		}
	}
	return count
}

// Deliver enqueues a notification to the single session holding `name`.
func (r *SessionRegistry) Deliver(name string, n domain.Notification) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.names[name]
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrUserNotFound, name)
	}
	sink, ok := r.sinks[id]
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrUserNotFound, name)
	}
	return sink.Consume(n)
}

func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionRegistry) CountAuthenticated() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
