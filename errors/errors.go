package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrTransport        = fmt.Errorf("transport error")
	ErrHandshake        = fmt.Errorf("handshake failed")
	ErrRoomNotFound     = fmt.Errorf("room not found")
	ErrAlreadyMember    = fmt.Errorf("already a member of this room")
	ErrAlreadyInRoom    = fmt.Errorf("already a member of another room")
	ErrNotInRoom        = fmt.Errorf("not in a room")
	ErrInvalidUsername  = fmt.Errorf("invalid username")
	ErrUsernameTaken    = fmt.Errorf("username already taken")
	ErrInvalidRoomName  = fmt.Errorf("invalid room name")
	ErrUnknownTransform = fmt.Errorf("unknown transform")
	ErrInvalidPayload   = fmt.Errorf("invalid payload")
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrEmptyWords       = fmt.Errorf("no words have been found")
	ErrInvalidConfig    = fmt.Errorf("invalid configuration")
	ErrLineTooLong      = fmt.Errorf("line too long")
)

// UserMessage returns the plain text line reported back to a session for a
// failed operation. Unknown errors are reported generically so internals
// never leak to peers.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, ErrRoomNotFound):
		return "Room not found"
	case stderrors.Is(err, ErrAlreadyMember):
		return "You are already in this room"
	case stderrors.Is(err, ErrAlreadyInRoom):
		return "Leave your current room first"
	case stderrors.Is(err, ErrNotInRoom):
		return "You are not in a room, use /join <room>"
	case stderrors.Is(err, ErrInvalidRoomName):
		return "Invalid room name"
	case stderrors.Is(err, ErrInvalidPayload):
		return "Invalid payload"
	case stderrors.Is(err, ErrUsernameTaken):
		return "Username already taken"
	case stderrors.Is(err, ErrInvalidUsername):
		return "Invalid username"
	default:
		return "Internal error"
	}
}
