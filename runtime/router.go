package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"chatd/domain"
	"chatd/errors"
)

// Router resolves a post or direct-message target to its recipient set and
// enqueues delivery. It holds no state of its own; recipient sets are
// computed and enqueued inside the owning registry's lock.
type Router struct {
	log      *slog.Logger
	sessions *SessionRegistry
	rooms    *RoomRegistry
}

func NewRouter(log *slog.Logger, sessions *SessionRegistry, rooms *RoomRegistry) *Router {
	return &Router{log: log, sessions: sessions, rooms: rooms}
}

// Post broadcasts text to every member of the room except the sender and
// returns the number of recipients. The public room routes through the
// session registry, since its membership is the set of authenticated
// sessions.
func (r *Router) Post(sess *domain.Session, text, room string) (int, error) {
	n := r.notification(sess, text)

	if room == domain.PublicRoomName {
		if !sess.Authenticated() {
			return 0, fmt.Errorf("%w: %q", errors.ErrNotMember, room)
		}
		count := r.sessions.BroadcastAuthenticated(sess.ID, n)
		r.log.Debug("Message posted", "room", room, "from", sess.Name(), "recipients", count)
		return count, nil
	}

	count, err := r.rooms.Broadcast(sess, room, n)
	if err != nil {
		return 0, err
	}
	r.log.Debug("Message posted", "room", room, "from", sess.Name(), "recipients", count)
	return count, nil
}

// Direct enqueues one notification to exactly the target session.
func (r *Router) Direct(sess *domain.Session, to, text string) error {
	if to == sess.Name() {
		return errors.ErrSelfMessage
	}
	if err := r.sessions.Deliver(to, r.notification(sess, text)); err != nil {
		return err
	}
	r.log.Debug("Direct message delivered", "from", sess.Name(), "to", to)
	return nil
}

func (r *Router) notification(sess *domain.Session, text string) domain.Notification {
	return domain.Notification{
		From: sess.Name(),
		Text: text,
		At:   time.Now().UTC(),
	}
}
