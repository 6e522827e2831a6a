package realtime

import "sync"

// Rooms groups connections by conversation id so a broadcast reaches exactly
// the connections currently viewing that conversation. Membership is not
// persisted; clients re-join the rooms they care about after reconnecting.
type Rooms struct {
	mu      sync.RWMutex
	members map[string]map[string]Conn // conversation id -> connection id -> conn
	joined  map[string]map[string]bool // connection id -> conversation ids
}

// NewRooms creates an empty room manager.
func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[string]map[string]Conn),
		joined:  make(map[string]map[string]bool),
	}
}

// Join adds conn to the named room. A connection may belong to any number of
// rooms at once.
func (r *Rooms) Join(conn Conn, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.members[conversationID]
	if room == nil {
		room = make(map[string]Conn)
		r.members[conversationID] = room
	}
	room[conn.ID()] = conn

	rooms := r.joined[conn.ID()]
	if rooms == nil {
		rooms = make(map[string]bool)
		r.joined[conn.ID()] = rooms
	}
	rooms[conversationID] = true
}

// Leave removes the connection from the named room.
func (r *Rooms) Leave(connID, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(connID, conversationID)
}

// Drop removes the connection from every room it joined. Called on
// disconnect.
func (r *Rooms) Drop(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for conversationID := range r.joined[connID] {
		r.removeLocked(connID, conversationID)
	}
}

func (r *Rooms) removeLocked(connID, conversationID string) {
	if room := r.members[conversationID]; room != nil {
		delete(room, connID)
		if len(room) == 0 {
			delete(r.members, conversationID)
		}
	}
	if rooms := r.joined[connID]; rooms != nil {
		delete(rooms, conversationID)
		if len(rooms) == 0 {
			delete(r.joined, connID)
		}
	}
}

// Broadcast delivers data to every member of the room and returns how many
// sends succeeded. An empty room drops the event; durability comes from the
// persisted message, not from this fan-out.
func (r *Rooms) Broadcast(conversationID string, data []byte) int {
	return r.BroadcastExcept(conversationID, "", data)
}

// BroadcastExcept is Broadcast skipping one connection, used for typing
// relays where the origin already knows.
func (r *Rooms) BroadcastExcept(conversationID, exceptConnID string, data []byte) int {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.members[conversationID]))
	for id, c := range r.members[conversationID] {
		if id != exceptConnID {
			conns = append(conns, c)
		}
	}
	r.mu.RUnlock()

	delivered := 0
	for _, c := range conns {
		if err := c.Send(data); err == nil {
			delivered++
		}
	}
	return delivered
}

// Contains reports whether the connection is currently in the room.
func (r *Rooms) Contains(connID, conversationID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.members[conversationID]
	_, ok := room[connID]
	return ok
}
