package realtime

import "sync"

// Presence maps authenticated users to their currently-open connection.
// One connection per user: registering while a previous connection exists
// replaces it (last socket wins). State is process-local and rebuilt from
// scratch on restart.
type Presence struct {
	mu     sync.RWMutex
	byUser map[string]Conn
	owner  map[string]string // connection id -> user id
}

// NewPresence creates an empty registry.
func NewPresence() *Presence {
	return &Presence{
		byUser: make(map[string]Conn),
		owner:  make(map[string]string),
	}
}

// Register records conn as the live connection for its user and returns the
// connection it displaced, if any. Idempotent per connection.
func (p *Presence) Register(conn Conn) (replaced Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.byUser[conn.UserID()]; ok && prev.ID() != conn.ID() {
		replaced = prev
		delete(p.owner, prev.ID())
	}
	p.byUser[conn.UserID()] = conn
	p.owner[conn.ID()] = conn.UserID()
	return replaced
}

// Unregister removes the entry owned by connID. It reports the user that
// went offline. A stale id (already replaced or never registered) is a
// no-op, so a late disconnect cannot evict a newer session.
func (p *Presence) Unregister(connID string) (userID string, removed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	userID, ok := p.owner[connID]
	if !ok {
		return "", false
	}
	delete(p.owner, connID)
	delete(p.byUser, userID)
	return userID, true
}

// Lookup returns the live connection for userID, if any.
func (p *Presence) Lookup(userID string) (Conn, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conn, ok := p.byUser[userID]
	return conn, ok
}

// Online reports whether userID has an open connection.
func (p *Presence) Online(userID string) bool {
	_, ok := p.Lookup(userID)
	return ok
}

// Connections snapshots all live connections.
func (p *Presence) Connections() []Conn {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Conn, 0, len(p.byUser))
	for _, c := range p.byUser {
		out = append(out, c)
	}
	return out
}

// Count returns the number of online users.
func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byUser)
}
