package runtime

import (
	"cipher-chat/contract"
	"cipher-chat/domain"
	"cipher-chat/errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var _ contract.IRoomRegistry = (*Registry)(nil)

var validate = validator.New()

type roomName struct {
	Name string `validate:"required,max=32,printascii,excludesall=:/"`
}

// Registry maps room names to rooms. Rooms are never removed while the
// process runs, so an empty room keeps its history for returning users.
type Registry struct {
	mu          sync.RWMutex
	log         *slog.Logger
	rooms       map[string]*domain.Room
	order       []string // creation order
	dynamic     bool
	roomOptions []domain.RoomOption
}

// NewRegistry creates an empty registry. With dynamic set, Resolve creates
// unknown rooms on first reference. Options are applied to every room.
func NewRegistry(log *slog.Logger, dynamic bool, opts ...domain.RoomOption) *Registry {
	return &Registry{
		log:         log,
		rooms:       make(map[string]*domain.Room),
		dynamic:     dynamic,
		roomOptions: opts,
	}
}

// NormalizeRoomName lowercases and validates a room name.
func NormalizeRoomName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if err := validate.Struct(roomName{Name: name}); err != nil {
		return "", fmt.Errorf("%w: %q", errors.ErrInvalidRoomName, name)
	}
	return name, nil
}

// Register creates the fixed rooms available at startup.
func (r *Registry) Register(names ...string) error {
	for _, name := range names {
		if _, err := r.GetOrCreate(name); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Get(name string) (*domain.Room, error) {
	normalized, err := NormalizeRoomName(name)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[normalized]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrRoomNotFound, normalized)
	}
	return room, nil
}

// GetOrCreate returns the room for name, creating it if needed. Concurrent
// first accesses for the same name always get the same room.
func (r *Registry) GetOrCreate(name string) (*domain.Room, error) {
	normalized, err := NormalizeRoomName(name)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	room, ok := r.rooms[normalized]
	r.mu.RUnlock()
	if ok {
		return room, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another session may have created it between both locks
	if room, ok := r.rooms[normalized]; ok {
		return room, nil
	}
	room = domain.NewRoom(normalized, r.roomOptions...)
	r.rooms[normalized] = room
	r.order = append(r.order, normalized)
	r.log.Info("Room created", "room", normalized)
	return room, nil
}

// Resolve is what a join request uses: GetOrCreate when dynamic rooms are
// enabled, Get otherwise.
func (r *Registry) Resolve(name string) (*domain.Room, error) {
	if r.dynamic {
		return r.GetOrCreate(name)
	}
	return r.Get(name)
}

// List returns a snapshot of the room names in creation order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Rooms returns a snapshot of the rooms in creation order.
func (r *Registry) Rooms() []*domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make([]*domain.Room, 0, len(r.order))
	for _, name := range r.order {
		rooms = append(rooms, r.rooms[name])
	}
	return rooms
}
