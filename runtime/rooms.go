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

// RoomRegistry maps room names to rooms. The public room is created at
// construction and never destroyed; its membership is handled by the session
// registry. Private rooms that become empty stay in the registry until
// shutdown: retention is the documented policy, not an accident.
type RoomRegistry struct {
	mu    sync.RWMutex
	log   *slog.Logger
	rooms map[string]*domain.Room
	order []string // room names, in creation order; public is always first
	sinks map[uuid.UUID]contract.NotificationSink
}

func NewRoomRegistry(log *slog.Logger) *RoomRegistry {
	r := &RoomRegistry{
		log:   log,
		rooms: make(map[string]*domain.Room),
		sinks: make(map[uuid.UUID]contract.NotificationSink),
	}
	public := domain.NewRoom(domain.PublicRoomName, "server",
		"open room for every logged-in user", domain.VisibilityPublic)
	r.rooms[public.Name] = public
	r.order = append(r.order, public.Name)
	return r
}

// List snapshots every room in creation order, public first.
func (r *RoomRegistry) List() []domain.RoomSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]domain.RoomSummary, 0, len(r.order))
	for _, name := range r.order {
		res = append(res, r.rooms[name].Summary())
	}
	return res
}

// Create registers a private room owned by the creating session, with the
// creator as its only member. The caller has already checked that the
// session is authenticated.
func (r *RoomRegistry) Create(sess *domain.Session, sink contract.NotificationSink, name, description string) error {
	if err := domain.ValidateCreateRoom(domain.CreateRoomRequest{
		Name:        name,
		Description: description,
	}); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.rooms[name]; taken {
		return fmt.Errorf("%w: %q", errors.ErrRoomExists, name)
	}
	room := domain.NewRoom(name, sess.Name(), description, domain.VisibilityPrivate)
	room.AddMember(sess)
	r.rooms[name] = room
	r.order = append(r.order, name)
	r.sinks[sess.ID] = sink

	r.log.Info("Room created", "room", name, "owner", sess.Name())
	return nil
}

// Join adds the session to the room's membership. Joining twice is a no-op
// success; joining the public room is a no-op as well, since authenticated
// sessions are already members.
func (r *RoomRegistry) Join(sess *domain.Session, sink contract.NotificationSink, name string) error {
	if name == domain.PublicRoomName {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[name]
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrRoomNotFound, name)
	}
	room.AddMember(sess)
	r.sinks[sess.ID] = sink
	return nil
}

// Leave removes the session from the room. The public room cannot be left;
// disconnecting is the only way out of it.
func (r *RoomRegistry) Leave(sess *domain.Session, name string) error {
	if name == domain.PublicRoomName {
		return errors.ErrCannotLeavePublic
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[name]
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrRoomNotFound, name)
	}
	if !room.HasMember(sess.ID) {
		return fmt.Errorf("%w: %q", errors.ErrNotMember, name)
	}
	room.RemoveMember(sess.ID)
	return nil
}

// Broadcast enqueues a notification to every member of the room except the
// sender and returns the recipient count. Membership check and enqueue run
// under one lock acquisition, so no recipient joining or leaving mid-post
// sees a partially applied delivery. A nonexistent room mutates nothing.
func (r *RoomRegistry) Broadcast(sender *domain.Session, name string, n domain.Notification) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", errors.ErrRoomNotFound, name)
	}
	if !room.HasMember(sender.ID) {
		return 0, fmt.Errorf("%w: %q", errors.ErrNotMember, name)
	}

	count := 0
	for _, member := range room.Members() {
		if member.ID == sender.ID {
			continue
		}
		if sink, ok := r.sinks[member.ID]; ok && sink.Consume(n) == nil {
			count++
		}
	}
	return count, nil
}

// DropSession removes the session from every room's membership. Called on
// disconnect, after the session registry has released the session.
func (r *RoomRegistry) DropSession(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		room.RemoveMember(id)
	}
	delete(r.sinks, id)
}

func (r *RoomRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// MemberCount reports the stored membership size of a room. For the public
// room this is always zero; its membership is derived, not stored.
func (r *RoomRegistry) MemberCount(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[name]
	if !ok {
		return 0
	}
	return room.MemberCount()
}
