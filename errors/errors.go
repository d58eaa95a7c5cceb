package errors

import "fmt"

var (
	ErrLoginConflict     = fmt.Errorf("login name already held by another session")
	ErrAlreadyLoggedIn   = fmt.Errorf("session already logged in")
	ErrNotAuthenticated  = fmt.Errorf("session is not authenticated")
	ErrInvalidName       = fmt.Errorf("invalid room name")
	ErrRoomExists        = fmt.Errorf("room already exists")
	ErrRoomNotFound      = fmt.Errorf("room not found")
	ErrNotMember         = fmt.Errorf("session is not a member of the room")
	ErrCannotLeavePublic = fmt.Errorf("the public room cannot be left")
	ErrUserNotFound      = fmt.Errorf("no session holds that login name")
	ErrSelfMessage       = fmt.Errorf("cannot send a direct message to yourself")
	ErrNotConnected      = fmt.Errorf("client is not connected")
	ErrQueueClosed       = fmt.Errorf("notification queue is closed")
	ErrBadRequest        = fmt.Errorf("malformed request")
	ErrWorkerPanic       = fmt.Errorf("worker panic")
)
