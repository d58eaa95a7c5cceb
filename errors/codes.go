package errors

import (
	stderrors "errors"
	"fmt"
)

// Code is the wire representation of an error kind. Every operation of the
// protocol resolves to exactly one code, so a client never has to interpret
// an opaque failure.
type Code string

const (
	CodeOK                Code = "ok"
	CodeLoginConflict     Code = "login_conflict"
	CodeAlreadyLoggedIn   Code = "already_logged_in"
	CodeNotAuthenticated  Code = "not_authenticated"
	CodeInvalidName       Code = "invalid_name"
	CodeRoomExists        Code = "room_exists"
	CodeRoomNotFound      Code = "room_not_found"
	CodeNotMember         Code = "not_member"
	CodeCannotLeavePublic Code = "cannot_leave_public"
	CodeUserNotFound      Code = "user_not_found"
	CodeSelfMessage       Code = "self_message"
	CodeBadRequest        Code = "bad_request"
)

var codes = map[Code]error{
	CodeLoginConflict:     ErrLoginConflict,
	CodeAlreadyLoggedIn:   ErrAlreadyLoggedIn,
	CodeNotAuthenticated:  ErrNotAuthenticated,
	CodeInvalidName:       ErrInvalidName,
	CodeRoomExists:        ErrRoomExists,
	CodeRoomNotFound:      ErrRoomNotFound,
	CodeNotMember:         ErrNotMember,
	CodeCannotLeavePublic: ErrCannotLeavePublic,
	CodeUserNotFound:      ErrUserNotFound,
	CodeSelfMessage:       ErrSelfMessage,
	CodeBadRequest:        ErrBadRequest,
}

// CodeOf maps a domain error onto its wire code. Wrapped errors are handled
// through errors.Is, so registries may add context with fmt.Errorf("%w: ...").
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	for code, sentinel := range codes {
		if stderrors.Is(err, sentinel) {
			return code
		}
	}
	return CodeBadRequest
}

// FromCode maps a wire code back onto its sentinel. The client uses it so
// callers can match responses with errors.Is against the same taxonomy the
// server returned.
func FromCode(code Code) error {
	if code == CodeOK {
		return nil
	}
	if err, ok := codes[code]; ok {
		return err
	}
	return fmt.Errorf("%w: unknown code %q", ErrBadRequest, code)
}
