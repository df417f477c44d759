package runtime

import (
	"cipher-chat/errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register_DefaultRooms(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), false)

	// Given no room exists
	req.Empty(registry.List())

	// When the default rooms are registered
	req.NoError(registry.Register("General", "secure"))

	// Then names are normalized and kept in creation order
	req.Equal([]string{"general", "secure"}, registry.List())
	room, err := registry.Get("GENERAL")
	req.NoError(err)
	req.Equal("general", room.Name())
}

func TestRegistry_Get_UnknownRoom(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), false)
	req.NoError(registry.Register("general"))

	_, err := registry.Get("lobby")
	req.ErrorIs(err, errors.ErrRoomNotFound)

	// Resolve does not create rooms when dynamic creation is disabled
	_, err = registry.Resolve("lobby")
	req.ErrorIs(err, errors.ErrRoomNotFound)
	req.Equal([]string{"general"}, registry.List())
}

func TestRegistry_Resolve_Dynamic(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), true)

	room, err := registry.Resolve("lobby")
	req.NoError(err)
	req.Equal("lobby", room.Name())

	again, err := registry.Resolve("lobby")
	req.NoError(err)
	req.Same(room, again)
}

func TestRegistry_InvalidNames(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), true)

	for _, name := range []string{"", "  ", "a:b", "a/b", "this-room-name-is-way-too-long-to-be-valid"} {
		_, err := registry.GetOrCreate(name)
		req.ErrorIs(err, errors.ErrInvalidRoomName, name)
	}
	req.Empty(registry.List())
}

func TestRegistry_GetOrCreate_ConcurrentFirstAccess(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), true)

	const n = 50
	var wg sync.WaitGroup
	rooms := make([]any, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room, err := registry.GetOrCreate(fmt.Sprintf("room%d", i%5))
			if err != nil {
				t.Error(err)
				return
			}
			rooms[i] = room
		}(i)
	}
	wg.Wait()

	// Then no duplicate room exists for the same name
	req.Len(registry.List(), 5)
	for i := 5; i < n; i++ {
		req.Same(rooms[i%5], rooms[i])
	}
	req.Len(registry.Rooms(), 5)
}
