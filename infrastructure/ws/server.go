// Package ws is the websocket transport of the chat server. Each accepted
// connection gets one session, one inbound request handler (the read loop)
// and one outbound delivery drainer, running concurrently. Both write on the
// same connection behind a mutex so frames never interleave.
package ws

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"chatd/domain"
	"chatd/errors"
	"chatd/services"
	"chatd/sink"
	"chatd/wire"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	log          *slog.Logger
	chat         services.IChatService
	addr         string
	queueSize    int
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

func NewServer(log *slog.Logger, chat services.IChatService, addr string,
	queueSize int, writeTimeout time.Duration) *Server {
	return &Server{
		log:          log,
		chat:         chat,
		addr:         addr,
		queueSize:    queueSize,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handler exposes the chat endpoint. Split from Run so tests can mount it
// on an httptest server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleConn)
	return mux
}

// Run makes the server a supervised worker: it serves until the context is
// canceled, then shuts the listener down gracefully and returns nil.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("chat server error: %w", err)
		}
	}()
	s.log.Info("Chat server listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errChan:
		return err
	}
}

func (s *Server) handleConn(w http.ResponseWriter, req *http.Request) {
	ws, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "remote", req.RemoteAddr, "error", err)
		return
	}

	queue := sink.NewChannelSink(s.log, s.queueSize)
	sess := s.chat.Register(queue)
	c := &conn{
		log:          s.log,
		ws:           ws,
		chat:         s.chat,
		sess:         sess,
		queue:        queue,
		writeTimeout: s.writeTimeout,
	}

	go c.drain()
	c.serve()
}

// conn is the server side of one client connection.
type conn struct {
	log          *slog.Logger
	ws           *websocket.Conn
	chat         services.IChatService
	sess         *domain.Session
	queue        *sink.ChannelSink
	writeTimeout time.Duration

	writeMu sync.Mutex
}

// serve is the inbound request handler. Every request gets exactly one
// response. A transport failure is local to this session: the loop exits,
// cleanup runs, and no other session is affected.
func (c *conn) serve() {
	defer func() {
		c.chat.Unregister(c.sess.ID)
		_ = c.ws.Close()
		c.log.Debug("Connection closed", "session_id", c.sess.ID)
	}()

	for {
		var f wire.Frame
		if err := c.ws.ReadJSON(&f); err != nil {
			c.log.Debug("Read failed, dropping session",
				"session_id", c.sess.ID, "error", err)
			return
		}
		if f.Kind != wire.KindRequest || f.Request == nil {
			if err := c.write(wire.ResponseFrame(wire.Fail(0, errors.ErrBadRequest))); err != nil {
				return
			}
			continue
		}

		req := *f.Request
		resp := c.dispatch(req)
		if err := c.write(wire.ResponseFrame(resp)); err != nil {
			return
		}
		if req.Op == wire.OpDisconnect {
			return
		}
	}
}

// drain is the outbound delivery goroutine. It runs until the session's
// queue is closed by unregistration, independent of request traffic.
func (c *conn) drain() {
	for n := range c.queue.Queue() {
		frame := wire.NotificationFrame(wire.Notification{
			From: n.From,
			Text: n.Text,
			At:   n.At,
		})
		if err := c.write(frame); err != nil {
			c.log.Debug("Delivery failed, dropping session",
				"session_id", c.sess.ID, "error", err)
			_ = c.ws.Close()
			return
		}
	}
}

func (c *conn) dispatch(req wire.Request) wire.Response {
	id := c.sess.ID

	switch req.Op {
	case wire.OpLogin:
		return result(req.ID, c.chat.Login(id, req.Name))
	case wire.OpListUsers:
		resp := wire.Ack(req.ID)
		resp.Users = c.chat.ListUsers()
		return resp
	case wire.OpListRooms:
		resp := wire.Ack(req.ID)
		resp.Rooms = lo.Map(c.chat.ListRooms(), func(r domain.RoomSummary, _ int) wire.RoomInfo {
			return wire.RoomInfo{Name: r.Name, Owner: r.Owner, Description: r.Description}
		})
		return resp
	case wire.OpCreateRoom:
		return result(req.ID, c.chat.CreateRoom(id, req.Name, req.Description))
	case wire.OpJoinRoom:
		return result(req.ID, c.chat.JoinRoom(id, req.Name))
	case wire.OpLeaveRoom:
		return result(req.ID, c.chat.LeaveRoom(id, req.Name))
	case wire.OpPost:
		count, err := c.chat.Post(id, req.Text, req.Room)
		resp := result(req.ID, err)
		resp.Recipients = count
		return resp
	case wire.OpDirect:
		return result(req.ID, c.chat.DirectMessage(id, req.To, req.Text))
	case wire.OpDisconnect:
		return wire.Ack(req.ID)
	default:
		return wire.Fail(req.ID, errors.ErrBadRequest)
	}
}

func result(id uint64, err error) wire.Response {
	if err != nil {
		return wire.Fail(id, err)
	}
	return wire.Ack(id)
}

// write serializes every frame written on the connection, whether it comes
// from the request handler or the drainer.
func (c *conn) write(f wire.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteJSON(f)
}
