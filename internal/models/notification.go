package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationTypeMessage is the only type produced by this service.
const NotificationTypeMessage = "message"

// Notification is a durable per-recipient alert. One row is created per
// (message, non-sender participant) pair; only the read flag mutates.
type Notification struct {
	ID             uuid.UUID  `json:"id"`
	RecipientID    string     `json:"recipient_id"`
	Type           string     `json:"type"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	Read           bool       `json:"read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
