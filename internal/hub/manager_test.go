package hub

import (
	"testing"

	"github.com/MaryRatiary/back-rise/internal/event"
	"github.com/MaryRatiary/back-rise/internal/presence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPresenceEdgesExactlyOncePerUser(t *testing.T) {
	h := NewHub(presence.NewRegistry(), zap.NewNop())
	t.Cleanup(h.Stop)

	observer := addTestClient(h, "observer", "Observer")

	// Two connections for the same user: one online edge only.
	first := newClient("alice", "Alice", nil, h)
	second := newClient("alice", "Alice", nil, h)
	h.addClient(first)
	h.addClient(second)

	got := readEvent(t, observer)
	assert.Equal(t, event.EventUserOnline, got.Event)
	assert.Equal(t, "alice", decodePayload[event.PresencePayload](t, got).UserID)
	assertNoEvent(t, observer)

	// Dropping one connection is silent; dropping the last one emits the
	// offline edge.
	h.removeClient(first)
	assertNoEvent(t, observer)
	assert.True(t, h.presence.IsOnline("alice"))

	h.removeClient(second)
	got = readEvent(t, observer)
	assert.Equal(t, event.EventUserOffline, got.Event)
	assert.Equal(t, "alice", decodePayload[event.PresencePayload](t, got).UserID)
	assert.False(t, h.presence.IsOnline("alice"))
}

func TestDisconnectCleansRoomMembership(t *testing.T) {
	h := NewHub(presence.NewRegistry(), zap.NewNop())
	t.Cleanup(h.Stop)

	c := addTestClient(h, "alice", "Alice")
	room := RoomTag("c1")
	h.joinRoom(c, room)

	b := h.shards[getShard(room)]
	b.RLock()
	require.Len(t, b.rooms[room], 1)
	b.RUnlock()

	h.removeClient(c)

	b.RLock()
	_, exists := b.rooms[room]
	b.RUnlock()
	assert.False(t, exists)
	assert.True(t, c.IsClosed())
	assert.Empty(t, c.joinedRooms())
}

func TestPublishToRoomSkipsSenderAndOtherRooms(t *testing.T) {
	h := NewHub(presence.NewRegistry(), zap.NewNop())
	t.Cleanup(h.Stop)

	sender := addTestClient(h, "alice", "Alice")
	member := addTestClient(h, "bob", "Bob")
	elsewhere := addTestClient(h, "carol", "Carol")

	h.joinRoom(sender, RoomTag("c1"))
	h.joinRoom(member, RoomTag("c1"))
	h.joinRoom(elsewhere, RoomTag("c2"))
	drainAll(sender, member, elsewhere)

	h.publishToRoom(event.NewEvent("ping", nil), RoomTag("c1"), sender)

	got := readEvent(t, member)
	assert.Equal(t, "ping", got.Event)
	assertNoEvent(t, sender)
	assertNoEvent(t, elsewhere)
}

func TestMonitorStats(t *testing.T) {
	h := NewHub(presence.NewRegistry(), zap.NewNop())
	t.Cleanup(h.Stop)
	monitor := NewMonitorService(h)

	stats := monitor.GetStats()
	assert.Equal(t, "idle", stats.Status)

	a := addTestClient(h, "alice", "Alice")
	a2 := addTestClient(h, "alice", "Alice")
	b := addTestClient(h, "bob", "Bob")
	h.joinRoom(a, RoomTag("c1"))
	h.joinRoom(b, RoomTag("c1"))
	h.joinRoom(a2, RoomTag("c2"))

	stats = monitor.GetStats()
	assert.Equal(t, "healthy", stats.Status)
	assert.Equal(t, 3, stats.Connections.TotalConnections)
	assert.Equal(t, 2, stats.Connections.TotalUsersOnline)
	assert.Equal(t, 2, stats.Rooms.TotalRooms)
	assert.ElementsMatch(t, []string{"alice", "bob"}, stats.OnlineUsers)
	assert.Len(t, stats.Clients, 3)
}
