// Package domain contains core concepts of the chat system.
// This file defines Participant entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import "github.com/google/uuid"

// Member is a participant as seen by a Room.
//
// The room a member belongs to is kept by the member itself as a plain room
// name, never as a pointer. BindRoom and UnbindRoom are compare-and-swap
// operations: BindRoom only succeeds when the member is in no room, and
// UnbindRoom only clears the name if it still designates the given room.
// A Room only calls them while holding its own lock, which keeps both views of
// the membership consistent and a member in at most one room at a time.
type Member interface {
	ID() uuid.UUID
	Name() string
	Send(payload []byte) error
	Room() string
	BindRoom(room string) bool
	UnbindRoom(room string) bool
}
