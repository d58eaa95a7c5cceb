//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"log/slog"

	"github.com/google/uuid"

	"chatd/contract"
	"chatd/domain"
	"chatd/errors"
	"chatd/runtime"
)

// IChatService is the single entry point the transport layer dispatches
// into. It owns the per-connection state gate: operations requiring an
// authenticated session fail with ErrNotAuthenticated, except login itself
// and the read-only listings, which support discovery before login.
type IChatService interface {
	Register(sink contract.NotificationSink) *domain.Session
	Unregister(id uuid.UUID)
	Login(id uuid.UUID, name string) error
	ListUsers() []string
	ListRooms() []domain.RoomSummary
	CreateRoom(id uuid.UUID, name, description string) error
	JoinRoom(id uuid.UUID, name string) error
	LeaveRoom(id uuid.UUID, name string) error
	Post(id uuid.UUID, text, room string) (int, error)
	DirectMessage(id uuid.UUID, to, text string) error
}

type ChatService struct {
	log      *slog.Logger
	sessions *runtime.SessionRegistry
	rooms    *runtime.RoomRegistry
	router   *runtime.Router
}

func NewChatService(log *slog.Logger, sessions *runtime.SessionRegistry,
	rooms *runtime.RoomRegistry, router *runtime.Router) *ChatService {
	return &ChatService{log: log, sessions: sessions, rooms: rooms, router: router}
}

func (s *ChatService) Register(sink contract.NotificationSink) *domain.Session {
	return s.sessions.Register(sink)
}

// Unregister tears a session down: membership first, then the session
// itself, so the registries converge even when called twice.
func (s *ChatService) Unregister(id uuid.UUID) {
	s.rooms.DropSession(id)
	s.sessions.Unregister(id)
}

func (s *ChatService) Login(id uuid.UUID, name string) error {
	return s.sessions.Authenticate(id, name)
}

func (s *ChatService) ListUsers() []string {
	return s.sessions.ListNames()
}

func (s *ChatService) ListRooms() []domain.RoomSummary {
	return s.rooms.List()
}

func (s *ChatService) CreateRoom(id uuid.UUID, name, description string) error {
	sess, sink, err := s.authenticated(id)
	if err != nil {
		return err
	}
	return s.rooms.Create(sess, sink, name, description)
}

func (s *ChatService) JoinRoom(id uuid.UUID, name string) error {
	sess, sink, err := s.authenticated(id)
	if err != nil {
		return err
	}
	return s.rooms.Join(sess, sink, name)
}

func (s *ChatService) LeaveRoom(id uuid.UUID, name string) error {
	sess, _, err := s.authenticated(id)
	if err != nil {
		return err
	}
	return s.rooms.Leave(sess, name)
}

func (s *ChatService) Post(id uuid.UUID, text, room string) (int, error) {
	sess, _, err := s.authenticated(id)
	if err != nil {
		return 0, err
	}
	return s.router.Post(sess, text, room)
}

func (s *ChatService) DirectMessage(id uuid.UUID, to, text string) error {
	sess, _, err := s.authenticated(id)
	if err != nil {
		return err
	}
	return s.router.Direct(sess, to, text)
}

func (s *ChatService) authenticated(id uuid.UUID) (*domain.Session, contract.NotificationSink, error) {
	sess, sink, ok := s.sessions.Lookup(id)
	if !ok {
		return nil, nil, errors.ErrNotConnected
	}
	if !sess.Authenticated() {
		return nil, nil, errors.ErrNotAuthenticated
	}
	return sess, sink, nil
}
