// Package wire defines the frames exchanged between client and server.
//
// One websocket connection multiplexes two logical channels: correlated
// request/response traffic and an asynchronous notification stream. The two
// are kept structurally distinct through the Frame envelope, so a response
// is never mistaken for a notification and vice versa.
package wire

import (
	"time"

	"chatd/errors"
)

type Op string

const (
	OpLogin      Op = "login"
	OpListUsers  Op = "users"
	OpListRooms  Op = "rooms"
	OpCreateRoom Op = "create"
	OpJoinRoom   Op = "join"
	OpLeaveRoom  Op = "leave"
	OpPost       Op = "post"
	OpDirect     Op = "dm"
	OpDisconnect Op = "quit"
)

type Kind string

const (
	KindRequest      Kind = "request"
	KindResponse     Kind = "response"
	KindNotification Kind = "notification"
)

// Request carries one operation. The client assigns a monotonically
// increasing ID which the server echoes in the matching Response.
type Request struct {
	ID          uint64 `json:"id"`
	Op          Op     `json:"op"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Room        string `json:"room,omitempty"`
	To          string `json:"to,omitempty"`
	Text        string `json:"text,omitempty"`
}

type RoomInfo struct {
	Name        string `json:"name"`
	Owner       string `json:"owner"`
	Description string `json:"description"`
}

// Response answers exactly one Request. Code is CodeOK on success, otherwise
// one of the closed error codes.
type Response struct {
	ID         uint64      `json:"id"`
	Code       errors.Code `json:"code"`
	Users      []string    `json:"users,omitempty"`
	Rooms      []RoomInfo  `json:"rooms,omitempty"`
	Recipients int         `json:"recipients,omitempty"`
}

// Notification is pushed to a recipient independently of any request.
type Notification struct {
	From string    `json:"from"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Frame is the envelope written on the websocket. Exactly one of the three
// payload fields is set, according to Kind.
type Frame struct {
	Kind         Kind          `json:"kind"`
	Request      *Request      `json:"request,omitempty"`
	Response     *Response     `json:"response,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

func RequestFrame(req Request) Frame {
	return Frame{Kind: KindRequest, Request: &req}
}

func ResponseFrame(resp Response) Frame {
	return Frame{Kind: KindResponse, Response: &resp}
}

func NotificationFrame(n Notification) Frame {
	return Frame{Kind: KindNotification, Notification: &n}
}

// Ack builds the success response for a request.
func Ack(id uint64) Response {
	return Response{ID: id, Code: errors.CodeOK}
}

// Fail builds the error response for a request.
func Fail(id uint64, err error) Response {
	return Response{ID: id, Code: errors.CodeOf(err)}
}
