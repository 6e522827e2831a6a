package realtime

import "encoding/json"

// Server -> client event types.
const (
	EventNewMessage          = "new_message"
	EventConversationUpdated = "conversation_updated"
	EventNewNotification     = "new_notification"
	EventUserOnline          = "user_online"
	EventUserOffline         = "user_offline"
	EventTyping              = "typing"
)

// Client -> server event types.
const (
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
)

// Event is the envelope for everything sent over the real-time channel.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Encode marshals the event for the wire. Payloads are service-owned structs,
// so a marshal failure is a programming error and yields an empty envelope
// rather than a dropped event type.
func (e Event) Encode() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		data, _ = json.Marshal(Event{Type: e.Type})
	}
	return data
}

// PresencePayload accompanies user_online / user_offline events.
type PresencePayload struct {
	UserID string `json:"user_id"`
}

// TypingPayload is relayed verbatim to the room and never persisted.
type TypingPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
}

// ClientEvent is what a connected client sends over the socket.
type ClientEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	IsTyping       bool   `json:"is_typing,omitempty"`
}
