package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserMessage(t *testing.T) {
	req := require.New(t)

	req.Empty(UserMessage(nil))
	req.Equal("Room not found", UserMessage(ErrRoomNotFound))
	// Wrapped errors keep their user facing message
	req.Equal("Room not found", UserMessage(fmt.Errorf("join %q: %w", "lobby", ErrRoomNotFound)))
	req.Equal("You are already in this room", UserMessage(ErrAlreadyMember))
	req.Equal("Internal error", UserMessage(fmt.Errorf("boom")))
}
