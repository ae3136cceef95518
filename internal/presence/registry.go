package presence

import "sync"

// Conn is the minimal delivery surface the registry needs from a live
// connection. The hub's client satisfies it.
type Conn interface {
	// ConnID identifies the connection within its user's set.
	ConnID() string
	// UserID is the identity the connection was authenticated as.
	UserID() string
}

// Registry tracks which users currently have at least one live
// connection. It is the only process-wide mutable state of the realtime
// core; every method only mutates the in-memory map under the lock and
// never performs I/O.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[string]Conn // userID -> connID -> conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]map[string]Conn)}
}

// Register adds a connection under its user. It returns true when this
// is the user's first live connection, i.e. the user just came online.
// Additional devices for an already-online user return false so the
// caller raises the "online" event exactly once.
func (r *Registry) Register(c Conn) (cameOnline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[c.UserID()]
	if !ok {
		set = make(map[string]Conn)
		r.conns[c.UserID()] = set
	}
	set[c.ConnID()] = c
	return !ok
}

// Unregister removes a connection. It returns true when the removed
// connection was the user's last one, i.e. the user just went offline.
// Unknown connections are ignored.
func (r *Registry) Unregister(c Conn) (wentOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[c.UserID()]
	if !ok {
		return false
	}
	if _, ok := set[c.ConnID()]; !ok {
		return false
	}
	delete(set, c.ConnID())
	if len(set) == 0 {
		delete(r.conns, c.UserID())
		return true
	}
	return false
}

// IsOnline reports whether the user has at least one live connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}

// OnlineUsers returns the ids of all currently reachable users.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.conns))
	for userID := range r.conns {
		users = append(users, userID)
	}
	return users
}

// Connections returns a snapshot of every live connection. Callers
// deliver outside the lock.
func (r *Registry) Connections() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Conn, 0, len(r.conns))
	for _, set := range r.conns {
		for _, c := range set {
			out = append(out, c)
		}
	}
	return out
}

// ConnectionsExcept returns a snapshot of every live connection not
// belonging to userID. Used to notify "others" of presence changes.
func (r *Registry) ConnectionsExcept(userID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Conn
	for uid, set := range r.conns {
		if uid == userID {
			continue
		}
		for _, c := range set {
			out = append(out, c)
		}
	}
	return out
}

// CountConnections returns the number of live connections across all
// users.
func (r *Registry) CountConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, set := range r.conns {
		n += len(set)
	}
	return n
}

// CountUsers returns the number of distinct online users.
func (r *Registry) CountUsers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
