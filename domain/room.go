package domain

import (
	"time"

	"github.com/google/uuid"
)

// PublicRoomName is the always-present room. Its membership is never stored:
// a session is a public member iff it is authenticated.
const PublicRoomName = "public"

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Room is a named message-routing scope. The members map is guarded by the
// room registry's lock; rooms never synchronize themselves.
type Room struct {
	Name        string
	Owner       string
	Description string
	Visibility  Visibility
	CreatedAt   time.Time

	members map[uuid.UUID]*Session
}

// RoomSummary is the listing projection of a room.
type RoomSummary struct {
	Name        string
	Owner       string
	Description string
}

func NewRoom(name, owner, description string, visibility Visibility) *Room {
	return &Room{
		Name:        name,
		Owner:       owner,
		Description: description,
		Visibility:  visibility,
		CreatedAt:   time.Now().UTC(),
		members:     make(map[uuid.UUID]*Session),
	}
}

func (r *Room) Summary() RoomSummary {
	return RoomSummary{Name: r.Name, Owner: r.Owner, Description: r.Description}
}

// AddMember is idempotent: joining a room twice is a no-op success.
func (r *Room) AddMember(s *Session) {
	r.members[s.ID] = s
}

func (r *Room) RemoveMember(id uuid.UUID) {
	delete(r.members, id)
}

func (r *Room) HasMember(id uuid.UUID) bool {
	_, ok := r.members[id]
	return ok
}

func (r *Room) MemberCount() int {
	return len(r.members)
}

func (r *Room) Members() []*Session {
	res := make([]*Session, 0, len(r.members))
	for _, s := range r.members {
		res = append(res, s)
	}
	return res
}
