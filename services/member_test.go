package services

import (
	"sync"

	"github.com/google/uuid"
)

type fakeMember struct {
	id   uuid.UUID
	name string

	mu       sync.Mutex
	room     string
	received []string
}

func newFakeMember(name string) *fakeMember {
	return &fakeMember{id: uuid.New(), name: name}
}

func (f *fakeMember) ID() uuid.UUID { return f.id }
func (f *fakeMember) Name() string  { return f.name }

func (f *fakeMember) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, string(payload))
	return nil
}

func (f *fakeMember) Room() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.room
}

func (f *fakeMember) BindRoom(room string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.room != "" {
		return false
	}
	f.room = room
	return true
}

func (f *fakeMember) UnbindRoom(room string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.room != room {
		return false
	}
	f.room = ""
	return true
}

func (f *fakeMember) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.received...)
}
