// Package projection builds read models from observed events.
// Does not emit events or interact with sessions directly.
package projection

import (
	"cipher-chat/domain/event"
	"context"
	"sync"
	"time"
)

// RoomActivity is the read model of one room.
type RoomActivity struct {
	Messages     int
	LastAuthor   string
	LastActivity time.Time
}

// Activity counts the messages posted per room.
type Activity struct {
	mu    sync.RWMutex
	rooms map[string]RoomActivity
}

func NewActivity() *Activity {
	return &Activity{rooms: make(map[string]RoomActivity)}
}

func (a *Activity) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessagePosted:
		a.mu.Lock()
		defer a.mu.Unlock()
		current := a.rooms[evt.Room]
		current.Messages++
		if !evt.At.Before(current.LastActivity) {
			current.LastActivity = evt.At
			current.LastAuthor = evt.Author
		}
		a.rooms[evt.Room] = current
	}
	return nil
}

// Room returns the activity of a room, zero if nothing was posted yet.
func (a *Activity) Room(name string) RoomActivity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.rooms[name]
}
