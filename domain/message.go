// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	timeLayout = "15:04:05"
	// EchoSender is the sender label used when a message is echoed back to its author.
	EchoSender = "You"
)

// Message represents an immutable chat event.
type Message struct {
	ID          uuid.UUID // unique identifier
	Room        string
	Sender      string
	Content     string
	CreatedAt   time.Time
	Transformed bool // content went through a transform or was redacted
}

func NewMessage(room, sender, content string, transformed bool, at time.Time) Message {
	return Message{
		ID:          uuid.New(),
		Room:        room,
		Sender:      sender,
		Content:     content,
		CreatedAt:   at,
		Transformed: transformed,
	}
}

// Format renders the message as a delivered chat line: "[HH:MM:SS] sender: content\n".
func (m Message) Format() []byte {
	return m.FormatAs(m.Sender)
}

// FormatAs renders the message with another sender label.
func (m Message) FormatAs(sender string) []byte {
	return []byte("[" + m.CreatedAt.Format(timeLayout) + "] " + sender + ": " + m.Content + "\n")
}
