package domain

import (
	"cipher-chat/errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Room owns a set of members and an append-only history.
// Join, Leave and Broadcast are serialized by the room lock; different rooms
// never contend with each other. Lock order is room first, member second.
type Room struct {
	name         string
	mu           sync.Mutex
	members      []Member // join order
	history      []Message
	historyLimit int
	replay       int
	notices      bool
	publish      func(Message)
}

type RoomOption func(*Room)

// WithHistoryLimit bounds the in-memory history to the last n messages. Zero keeps everything.
func WithHistoryLimit(n int) RoomOption {
	return func(r *Room) { r.historyLimit = max(n, 0) }
}

// WithReplay sends the last n messages of the history to every joining member.
func WithReplay(n int) RoomOption {
	return func(r *Room) { r.replay = max(n, 0) }
}

// WithNotices toggles the join and leave notices sent to the other members.
func WithNotices(enabled bool) RoomOption {
	return func(r *Room) { r.notices = enabled }
}

// WithPublisher registers a hook called with every broadcast message, in room order,
// while the room lock is held. It must not block.
func WithPublisher(publish func(Message)) RoomOption {
	return func(r *Room) { r.publish = publish }
}

func NewRoom(name string, opts ...RoomOption) *Room {
	r := &Room{name: name, notices: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Delivery reports the outcome of one broadcast.
type Delivery struct {
	Delivered int
	Dropped   []Member // members whose transport failed, removed from the room
}

func (r *Room) Name() string {
	return r.name
}

// Join adds the member and binds it to this room in the same critical section.
// A member already in this room gets ErrAlreadyMember, a member still bound to
// another room gets ErrAlreadyInRoom.
func (r *Room) Join(m Member) (Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(m.ID()) >= 0 {
		return Delivery{}, errors.ErrAlreadyMember
	}
	if !m.BindRoom(r.name) {
		if m.Room() == r.name {
			return Delivery{}, errors.ErrAlreadyMember
		}
		return Delivery{}, fmt.Errorf("%w: %s", errors.ErrAlreadyInRoom, m.Room())
	}
	r.members = append(r.members, m)

	// Replay errors are not fatal here, the next broadcast drops a dead member
	for _, msg := range r.recentLocked(r.replay) {
		if err := m.Send(msg.Format()); err != nil {
			break
		}
	}

	if !r.notices {
		return Delivery{}, nil
	}
	return r.deliverLocked([]byte(fmt.Sprintf("*** %s joined %s\n", m.Name(), r.name)), m.ID()), nil
}

// Leave removes the member if present. It is idempotent and reports whether
// the member was removed.
func (r *Room) Leave(m Member) (Delivery, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(m.ID())
	if idx < 0 {
		return Delivery{}, false
	}
	r.members = append(r.members[:idx], r.members[idx+1:]...)
	m.UnbindRoom(r.name)

	if !r.notices {
		return Delivery{}, true
	}
	return r.deliverLocked([]byte(fmt.Sprintf("*** %s left %s\n", m.Name(), r.name)), uuid.Nil), true
}

// Broadcast appends the message to the history then delivers it to every
// member except exclude. A failed delivery never aborts the others: the
// failing member is removed and reported in the Delivery.
func (r *Room) Broadcast(msg Message, exclude Member) Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.appendLocked(msg)

	excluded := uuid.Nil
	if exclude != nil {
		excluded = exclude.ID()
	}
	delivery := r.deliverLocked(msg.Format(), excluded)

	if r.publish != nil {
		r.publish(msg)
	}
	return delivery
}

// ListMembers returns a snapshot of the member names in join order.
func (r *Room) ListMembers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Map(r.members, func(m Member, _ int) string { return m.Name() })
}

func (r *Room) Contains(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexOf(id) >= 0
}

func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// History returns a copy of the whole history.
func (r *Room) History() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.history...)
}

// Recent returns a copy of the last n messages.
func (r *Room) Recent(n int) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recentLocked(n)
}

func (r *Room) recentLocked(n int) []Message {
	if n <= 0 || len(r.history) == 0 {
		return nil
	}
	start := max(len(r.history)-n, 0)
	return append([]Message(nil), r.history[start:]...)
}

func (r *Room) appendLocked(msg Message) {
	if r.historyLimit > 0 && len(r.history) >= r.historyLimit {
		copy(r.history, r.history[len(r.history)-r.historyLimit+1:])
		r.history = r.history[:r.historyLimit-1]
	}
	r.history = append(r.history, msg)
}

// deliverLocked writes payload to every member but excluded, then drops the
// members whose transport failed.
func (r *Room) deliverLocked(payload []byte, excluded uuid.UUID) Delivery {
	var delivery Delivery
	for _, m := range r.members {
		if m.ID() == excluded {
			continue
		}
		if err := m.Send(payload); err != nil {
			delivery.Dropped = append(delivery.Dropped, m)
			continue
		}
		delivery.Delivered++
	}
	for _, m := range delivery.Dropped {
		if idx := r.indexOf(m.ID()); idx >= 0 {
			r.members = append(r.members[:idx], r.members[idx+1:]...)
		}
		m.UnbindRoom(r.name)
	}
	return delivery
}

func (r *Room) indexOf(id uuid.UUID) int {
	for i, m := range r.members {
		if m.ID() == id {
			return i
		}
	}
	return -1
}
