package realtime

import (
	"github.com/rs/zerolog"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/metrics"
)

// Hub owns the live connection state: the presence registry and the
// conversation rooms. It is constructed at server start and injected
// wherever real-time delivery happens, so nothing reaches for globals and
// tests can drive it with fake connections.
type Hub struct {
	presence *Presence
	rooms    *Rooms
	logger   zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		presence: NewPresence(),
		rooms:    NewRooms(),
		logger:   logger,
	}
}

// Presence exposes the registry for read-side checks.
func (h *Hub) Presence() *Presence { return h.presence }

// Rooms exposes the room manager.
func (h *Hub) Rooms() *Rooms { return h.rooms }

// Connect registers the connection, closes any connection it replaces, and
// announces the user to everyone else online.
func (h *Hub) Connect(conn Conn) {
	replaced := h.presence.Register(conn)
	if replaced != nil {
		h.rooms.Drop(replaced.ID())
		if closer, ok := replaced.(interface{ Close() }); ok {
			closer.Close()
		}
	} else {
		metrics.WSConnections.Inc()
	}

	h.logger.Debug().
		Str("user_id", conn.UserID()).
		Str("conn_id", conn.ID()).
		Bool("replaced", replaced != nil).
		Msg("connection registered")

	h.broadcastPresence(EventUserOnline, conn.UserID())
}

// Disconnect tears down room membership and presence for the connection and
// announces the user offline. Safe to call more than once; a connection that
// was already replaced changes nothing.
func (h *Hub) Disconnect(connID string) {
	h.rooms.Drop(connID)

	userID, removed := h.presence.Unregister(connID)
	if !removed {
		return
	}
	metrics.WSConnections.Dec()

	h.logger.Debug().
		Str("user_id", userID).
		Str("conn_id", connID).
		Msg("connection unregistered")

	h.broadcastPresence(EventUserOffline, userID)
}

// JoinConversation subscribes the connection to a conversation's events.
func (h *Hub) JoinConversation(conn Conn, conversationID string) {
	h.rooms.Join(conn, conversationID)
}

// LeaveConversation unsubscribes the connection.
func (h *Hub) LeaveConversation(connID, conversationID string) {
	h.rooms.Leave(connID, conversationID)
}

// BroadcastToConversation fans an event out to the conversation's room.
func (h *Hub) BroadcastToConversation(conversationID string, event Event) int {
	n := h.rooms.Broadcast(conversationID, event.Encode())
	metrics.RoomBroadcasts.WithLabelValues(event.Type).Inc()
	return n
}

// RelayTyping forwards a typing indicator to the room, skipping the origin.
// Not persisted.
func (h *Hub) RelayTyping(origin Conn, conversationID string, isTyping bool) {
	event := Event{Type: EventTyping, Payload: TypingPayload{
		ConversationID: conversationID,
		UserID:         origin.UserID(),
		IsTyping:       isTyping,
	}}
	h.rooms.BroadcastExcept(conversationID, origin.ID(), event.Encode())
}

// PushToUser delivers an event directly to a user's registered connection,
// independent of room membership. Returns false when the user is offline or
// the send fails; callers treat that as best-effort delivery, not an error.
func (h *Hub) PushToUser(userID string, event Event) bool {
	conn, ok := h.presence.Lookup(userID)
	if !ok {
		metrics.RealtimePushes.WithLabelValues(event.Type, "offline").Inc()
		return false
	}
	if err := conn.Send(event.Encode()); err != nil {
		metrics.RealtimePushes.WithLabelValues(event.Type, "failed").Inc()
		h.logger.Debug().
			Str("user_id", userID).
			Str("event", event.Type).
			Err(err).
			Msg("push dropped")
		return false
	}
	metrics.RealtimePushes.WithLabelValues(event.Type, "delivered").Inc()
	return true
}

// broadcastPresence announces an online/offline transition to every other
// connected user.
func (h *Hub) broadcastPresence(eventType, userID string) {
	data := Event{Type: eventType, Payload: PresencePayload{UserID: userID}}.Encode()
	for _, c := range h.presence.Connections() {
		if c.UserID() == userID {
			continue
		}
		_ = c.Send(data)
	}
}
