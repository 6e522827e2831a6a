package models

import (
	"time"

	"github.com/google/uuid"
)

// Message content types.
const (
	ContentText   = "text"
	ContentImage  = "image"
	ContentFile   = "file"
	ContentSystem = "system"
)

// Message is a single entry in a conversation. Rows are immutable once
// written; read state lives in per-recipient read receipts, not on the row.
// IDs are ULIDs, so lexicographic order matches creation order.
type Message struct {
	ID             string    `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	Content        string    `json:"content"`
	ContentType    string    `json:"content_type"`
	CreatedAt      time.Time `json:"created_at"`
}

// ValidContentType reports whether t is one of the accepted content types.
func ValidContentType(t string) bool {
	switch t {
	case ContentText, ContentImage, ContentFile, ContentSystem:
		return true
	}
	return false
}
