// Package client implements the Go chat client. One websocket connection
// carries two logical channels: correlated request/response calls and an
// asynchronous notification stream consumed through NextMessage.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"chatd/errors"
	"chatd/wire"
)

const (
	defaultWriteTimeout = 10 * time.Second
	notificationBuffer  = 64
)

type ChatClient struct {
	log  *slog.Logger
	conn *websocket.Conn

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan wire.Response
	closed  bool

	nextID        atomic.Uint64
	notifications chan wire.Notification
	done          chan struct{}
}

// Dial connects to the chat server and starts the read loop splitting
// responses from notifications.
func Dial(ctx context.Context, url string, log *slog.Logger) (*ChatClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}

	c := &ChatClient{
		log:           log,
		conn:          conn,
		pending:       make(map[uint64]chan wire.Response),
		notifications: make(chan wire.Notification, notificationBuffer),
		done:          make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// readLoop is the single reader of the connection. Any frame matching a
// pending request resolves that call; notification frames feed the incoming
// message stream.
func (c *ChatClient) readLoop() {
	for {
		var f wire.Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			c.shutdown()
			return
		}

		switch f.Kind {
		case wire.KindResponse:
			if f.Response == nil {
				continue
			}
			c.mu.Lock()
			ch, ok := c.pending[f.Response.ID]
			delete(c.pending, f.Response.ID)
			c.mu.Unlock()
			if ok {
				ch <- *f.Response
			}
		case wire.KindNotification:
			if f.Notification == nil {
				continue
			}
			select {
			case c.notifications <- *f.Notification:
			default:
				// Keep the newest if the consumer lags behind.
				select {
				case <-c.notifications:
				default:
				}
				select {
				case c.notifications <- *f.Notification:
				default:
				}
			}
		default:
			c.log.Debug("Ignoring unexpected frame", "kind", f.Kind)
		}
	}
}

func (c *ChatClient) call(ctx context.Context, req wire.Request) (wire.Response, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return wire.Response{}, errors.ErrNotConnected
	}
	id := c.nextID.Add(1)
	req.ID = id
	ch := make(chan wire.Response, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.write(wire.RequestFrame(req)); err != nil {
		c.forget(id)
		return wire.Response{}, fmt.Errorf("%w: %v", errors.ErrNotConnected, err)
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		c.forget(id)
		return wire.Response{}, ctx.Err()
	case <-c.done:
		return wire.Response{}, errors.ErrNotConnected
	}
}

func (c *ChatClient) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *ChatClient) write(f wire.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	return c.conn.WriteJSON(f)
}

// exec runs a request whose response carries no payload.
func (c *ChatClient) exec(ctx context.Context, req wire.Request) error {
	resp, err := c.call(ctx, req)
	if err != nil {
		return err
	}
	return errors.FromCode(resp.Code)
}

func (c *ChatClient) Login(ctx context.Context, name string) error {
	return c.exec(ctx, wire.Request{Op: wire.OpLogin, Name: name})
}

func (c *ChatClient) ListUsers(ctx context.Context) ([]string, error) {
	resp, err := c.call(ctx, wire.Request{Op: wire.OpListUsers})
	if err != nil {
		return nil, err
	}
	if err := errors.FromCode(resp.Code); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *ChatClient) ListRooms(ctx context.Context) ([]wire.RoomInfo, error) {
	resp, err := c.call(ctx, wire.Request{Op: wire.OpListRooms})
	if err != nil {
		return nil, err
	}
	if err := errors.FromCode(resp.Code); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}

func (c *ChatClient) CreateRoom(ctx context.Context, name, description string) error {
	return c.exec(ctx, wire.Request{Op: wire.OpCreateRoom, Name: name, Description: description})
}

func (c *ChatClient) JoinRoom(ctx context.Context, name string) error {
	return c.exec(ctx, wire.Request{Op: wire.OpJoinRoom, Name: name})
}

func (c *ChatClient) LeaveRoom(ctx context.Context, name string) error {
	return c.exec(ctx, wire.Request{Op: wire.OpLeaveRoom, Name: name})
}

// Post broadcasts text to a room and returns the recipient count.
func (c *ChatClient) Post(ctx context.Context, text, room string) (int, error) {
	resp, err := c.call(ctx, wire.Request{Op: wire.OpPost, Text: text, Room: room})
	if err != nil {
		return 0, err
	}
	if err := errors.FromCode(resp.Code); err != nil {
		return 0, err
	}
	return resp.Recipients, nil
}

func (c *ChatClient) DirectMessage(ctx context.Context, to, text string) error {
	return c.exec(ctx, wire.Request{Op: wire.OpDirect, To: to, Text: text})
}

// NextMessage blocks until a notification arrives, the context is canceled,
// or the client disconnects. Notifications already buffered are drained
// before a disconnection is reported.
func (c *ChatClient) NextMessage(ctx context.Context) (wire.Notification, error) {
	select {
	case n := <-c.notifications:
		return n, nil
	default:
	}

	select {
	case n := <-c.notifications:
		return n, nil
	case <-ctx.Done():
		return wire.Notification{}, ctx.Err()
	case <-c.done:
		return wire.Notification{}, errors.ErrNotConnected
	}
}

// Disconnect closes the connection. Calling it on an already-closed client
// fails with ErrNotConnected, as does every other operation afterwards.
// Concurrent calls resolve against the same state flip, so exactly one of
// them succeeds.
func (c *ChatClient) Disconnect() error {
	// Best effort: tell the server we are leaving before tearing down. The
	// write is harmless if another caller is closing at the same time.
	c.mu.Lock()
	open := !c.closed
	c.mu.Unlock()
	if open {
		_ = c.write(wire.RequestFrame(wire.Request{Op: wire.OpDisconnect}))
	}

	if !c.shutdown() {
		return errors.ErrNotConnected
	}
	return nil
}

// shutdown releases every pending caller and reports whether this call was
// the one that closed the client.
func (c *ChatClient) shutdown() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.closed = true
	c.pending = make(map[uint64]chan wire.Response)
	close(c.done)
	c.mu.Unlock()

	_ = c.conn.Close()
	return true
}
