package event

import (
	"cipher-chat/domain"
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	RoomName() string
}

// MessagePosted is emitted by a room once a message has been broadcast.
type MessagePosted struct {
	ID          uuid.UUID
	Room        string
	Author      string
	Content     string
	At          time.Time
	Transformed bool
}

func (m MessagePosted) RoomName() string {
	return m.Room
}

func FromMessage(m domain.Message) MessagePosted {
	return MessagePosted{
		ID:          m.ID,
		Room:        m.Room,
		Author:      m.Sender,
		Content:     m.Content,
		At:          m.CreatedAt,
		Transformed: m.Transformed,
	}
}
