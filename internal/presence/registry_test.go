package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id   string
	user string
}

func (f *fakeConn) ConnID() string { return f.id }
func (f *fakeConn) UserID() string { return f.user }

func TestRegistry_OnlineOfflineEdges(t *testing.T) {
	r := NewRegistry()

	phone := &fakeConn{id: "c1", user: "alice"}
	laptop := &fakeConn{id: "c2", user: "alice"}

	require.True(t, r.Register(phone), "first connection must report came-online")
	require.False(t, r.Register(laptop), "second device must not report came-online again")
	require.True(t, r.IsOnline("alice"))
	assert.Equal(t, 2, r.CountConnections())
	assert.Equal(t, 1, r.CountUsers())

	require.False(t, r.Unregister(phone), "one device left, no offline edge")
	require.True(t, r.IsOnline("alice"))
	require.True(t, r.Unregister(laptop), "last connection must report went-offline")
	require.False(t, r.IsOnline("alice"))
	assert.Empty(t, r.OnlineUsers())
}

func TestRegistry_UnregisterUnknown(t *testing.T) {
	r := NewRegistry()

	require.False(t, r.Unregister(&fakeConn{id: "ghost", user: "bob"}))

	r.Register(&fakeConn{id: "c1", user: "bob"})
	require.False(t, r.Unregister(&fakeConn{id: "other", user: "bob"}))
	require.True(t, r.IsOnline("bob"))
}

func TestRegistry_Snapshots(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeConn{id: "a1", user: "alice"})
	r.Register(&fakeConn{id: "a2", user: "alice"})
	r.Register(&fakeConn{id: "b1", user: "bob"})

	assert.ElementsMatch(t, []string{"alice", "bob"}, r.OnlineUsers())
	assert.Len(t, r.Connections(), 3)

	others := r.ConnectionsExcept("alice")
	require.Len(t, others, 1)
	assert.Equal(t, "bob", others[0].UserID())
}

func TestRegistry_ConcurrentRegisterUnregister(t *testing.T) {
	r := NewRegistry()

	const users = 8
	const connsPerUser = 50

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		for c := 0; c < connsPerUser; c++ {
			wg.Add(1)
			go func(u, c int) {
				defer wg.Done()
				conn := &fakeConn{
					id:   fmt.Sprintf("u%d-c%d", u, c),
					user: fmt.Sprintf("user-%d", u),
				}
				r.Register(conn)
				r.Unregister(conn)
			}(u, c)
		}
	}
	wg.Wait()

	assert.Equal(t, 0, r.CountConnections())
	assert.Empty(t, r.OnlineUsers())
}

func TestRegistry_OnlineOfflineEdgeCountUnderConcurrency(t *testing.T) {
	r := NewRegistry()

	const conns = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	onlineEdges := 0

	for c := 0; c < conns; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			if r.Register(&fakeConn{id: fmt.Sprintf("c%d", c), user: "carol"}) {
				mu.Lock()
				onlineEdges++
				mu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	assert.Equal(t, 1, onlineEdges, "exactly one came-online edge regardless of device count")

	offlineEdges := 0
	for c := 0; c < conns; c++ {
		if r.Unregister(&fakeConn{id: fmt.Sprintf("c%d", c), user: "carol"}) {
			offlineEdges++
		}
	}
	assert.Equal(t, 1, offlineEdges, "exactly one went-offline edge")
}
