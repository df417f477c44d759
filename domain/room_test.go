package domain

import (
	"cipher-chat/errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 1, 2, 13, 4, 5, 0, time.Local)

func TestRoom_Join_BindsMember(t *testing.T) {
	req := require.New(t)
	room := NewRoom("general")
	alice := newFakeMember("alice")

	// When a member joins
	_, err := room.Join(alice)

	// Then the room and the member agree on the membership
	req.NoError(err)
	req.True(room.Contains(alice.ID()))
	req.Equal("general", alice.Room())
	req.Equal([]string{"alice"}, room.ListMembers())
}

func TestRoom_Join_Twice_AlreadyMember(t *testing.T) {
	req := require.New(t)
	room := NewRoom("general")
	alice := newFakeMember("alice")

	_, err := room.Join(alice)
	req.NoError(err)

	// When the same member joins again
	_, err = room.Join(alice)

	// Then the second join is rejected without side effect
	req.ErrorIs(err, errors.ErrAlreadyMember)
	req.Equal(1, room.Len())
}

func TestRoom_Join_MemberOfAnotherRoom(t *testing.T) {
	req := require.New(t)
	general := NewRoom("general")
	secure := NewRoom("secure")
	alice := newFakeMember("alice")

	// Given alice is in general
	_, err := general.Join(alice)
	req.NoError(err)

	// When she joins secure without leaving general
	_, err = secure.Join(alice)

	// Then she stays in general only
	req.ErrorIs(err, errors.ErrAlreadyInRoom)
	req.Zero(secure.Len())
	req.Equal("general", alice.Room())
}

func TestRoom_Leave_Idempotent(t *testing.T) {
	req := require.New(t)
	room := NewRoom("general")
	alice := newFakeMember("alice")
	_, err := room.Join(alice)
	req.NoError(err)

	_, removed := room.Leave(alice)
	req.True(removed)
	req.Empty(alice.Room())

	// Leaving again does nothing
	_, removed = room.Leave(alice)
	req.False(removed)
	req.Zero(room.Len())
}

func TestRoom_Notices(t *testing.T) {
	req := require.New(t)
	room := NewRoom("general")
	alice := newFakeMember("alice")
	bob := newFakeMember("bob")

	_, err := room.Join(alice)
	req.NoError(err)
	_, err = room.Join(bob)
	req.NoError(err)
	room.Leave(bob)

	// Then alice saw bob coming and going, bob never saw his own notices
	req.Equal([]string{"*** bob joined general\n", "*** bob left general\n"}, alice.lines())
	req.Empty(bob.lines())
}

func TestRoom_Broadcast_ExcludesSender(t *testing.T) {
	req := require.New(t)
	room := NewRoom("general", WithNotices(false))
	alice := newFakeMember("alice")
	bob := newFakeMember("bob")
	carol := newFakeMember("carol")
	for _, m := range []*fakeMember{alice, bob, carol} {
		_, err := room.Join(m)
		req.NoError(err)
	}

	msg := NewMessage("general", "alice", "hello", false, at)

	// When alice broadcasts
	delivery := room.Broadcast(msg, alice)

	// Then every other member received it exactly once
	req.Equal(2, delivery.Delivered)
	req.Empty(delivery.Dropped)
	req.Equal([]string{"[13:04:05] alice: hello\n"}, bob.lines())
	req.Equal([]string{"[13:04:05] alice: hello\n"}, carol.lines())
	req.Empty(alice.lines())

	// And the history holds exactly one copy
	req.Equal([]Message{msg}, room.History())
}

func TestRoom_Broadcast_FailedMemberDoesNotAbortDelivery(t *testing.T) {
	req := require.New(t)
	room := NewRoom("general", WithNotices(false))
	alice := newFakeMember("alice")
	bob := newFakeMember("bob")
	carol := newFakeMember("carol")
	for _, m := range []*fakeMember{alice, bob, carol} {
		_, err := room.Join(m)
		req.NoError(err)
	}

	// Given bob's peer is gone
	bob.breakTransport()

	// When alice broadcasts
	delivery := room.Broadcast(NewMessage("general", "alice", "hi", false, at), alice)

	// Then carol still receives the message
	req.Equal(1, delivery.Delivered)
	req.Len(delivery.Dropped, 1)
	req.Equal("bob", delivery.Dropped[0].Name())
	req.Len(carol.lines(), 1)

	// And bob has been removed from the room on both sides
	req.Equal([]string{"alice", "carol"}, room.ListMembers())
	req.Empty(bob.Room())

	// And the history still got the message
	req.Len(room.History(), 1)
}

func TestRoom_Broadcast_Publishes(t *testing.T) {
	req := require.New(t)
	var published []Message
	room := NewRoom("general", WithPublisher(func(m Message) {
		published = append(published, m)
	}))

	first := NewMessage("general", "alice", "one", false, at)
	second := NewMessage("general", "alice", "two", false, at)
	room.Broadcast(first, nil)
	room.Broadcast(second, nil)

	req.Equal([]Message{first, second}, published)
}

func TestRoom_HistoryLimit(t *testing.T) {
	req := require.New(t)
	room := NewRoom("general", WithHistoryLimit(3))

	for i := 0; i < 5; i++ {
		room.Broadcast(NewMessage("general", "alice", fmt.Sprintf("m%d", i), false, at), nil)
	}

	history := room.History()
	req.Len(history, 3)
	req.Equal("m2", history[0].Content)
	req.Equal("m4", history[2].Content)
	req.Len(room.Recent(2), 2)
	req.Equal("m4", room.Recent(1)[0].Content)
}

func TestRoom_Join_ReplaysRecentHistory(t *testing.T) {
	req := require.New(t)
	room := NewRoom("general", WithReplay(2), WithNotices(false))
	for i := 0; i < 3; i++ {
		room.Broadcast(NewMessage("general", "alice", fmt.Sprintf("m%d", i), false, at), nil)
	}

	// When bob joins
	bob := newFakeMember("bob")
	_, err := room.Join(bob)
	req.NoError(err)

	// Then he receives the last two messages
	req.Equal([]string{"[13:04:05] alice: m1\n", "[13:04:05] alice: m2\n"}, bob.lines())
}

func TestRoom_ListMembers_IsSnapshot(t *testing.T) {
	req := require.New(t)
	room := NewRoom("general", WithNotices(false))
	alice := newFakeMember("alice")
	bob := newFakeMember("bob")
	_, _ = room.Join(alice)
	_, _ = room.Join(bob)

	snapshot := room.ListMembers()
	room.Leave(alice)

	// The snapshot is not affected by later membership changes
	req.Equal([]string{"alice", "bob"}, snapshot)
	req.Equal([]string{"bob"}, room.ListMembers())
}

func TestRoom_ConcurrentJoinLeave_MatchesSerialOutcome(t *testing.T) {
	req := require.New(t)
	room := NewRoom("general", WithNotices(false))

	const n = 200
	members := make([]*fakeMember, n)
	for i := range members {
		members[i] = newFakeMember(fmt.Sprintf("user%d", i))
	}

	// When every member joins concurrently and even members leave again
	var wg sync.WaitGroup
	for i, m := range members {
		wg.Add(1)
		go func(i int, m *fakeMember) {
			defer wg.Done()
			if _, err := room.Join(m); err != nil {
				t.Error(err)
				return
			}
			room.Broadcast(NewMessage("general", m.Name(), "ping", false, at), m)
			if i%2 == 0 {
				room.Leave(m)
			}
		}(i, m)
	}
	wg.Wait()

	// Then exactly the odd members remain, nothing lost or duplicated
	req.Equal(n/2, room.Len())
	for i, m := range members {
		req.Equal(i%2 == 1, room.Contains(m.ID()), m.Name())
		req.Equal(i%2 == 1, m.Room() == "general", m.Name())
	}
	req.Len(room.History(), n)
}

func TestRoom_ConcurrentJoin_MemberInAtMostOneRoom(t *testing.T) {
	req := require.New(t)
	rooms := []*Room{NewRoom("a"), NewRoom("b"), NewRoom("c"), NewRoom("d")}
	alice := newFakeMember("alice")

	// When alice is pushed into every room at once
	var wg sync.WaitGroup
	for _, r := range rooms {
		wg.Add(1)
		go func(r *Room) {
			defer wg.Done()
			_, _ = r.Join(alice)
		}(r)
	}
	wg.Wait()

	// Then exactly one room accepted her, the one she is bound to
	count := 0
	for _, r := range rooms {
		if r.Contains(alice.ID()) {
			count++
			req.Equal(r.Name(), alice.Room())
		}
	}
	req.Equal(1, count)
}
