package models

import (
	"time"

	"github.com/google/uuid"
)

// LastMessage is the cached snapshot of a conversation's most recent message.
// It exists so that conversation list views render without joining messages.
type LastMessage struct {
	Content    string    `json:"content"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	SentAt     time.Time `json:"sent_at"`
}

// Conversation groups two or more marketplace users exchanging messages,
// optionally anchored to a job posting.
type Conversation struct {
	ID           uuid.UUID    `json:"id"`
	Participants []string     `json:"participants"`
	JobID        string       `json:"job_id,omitempty"`
	LastMessage  *LastMessage `json:"last_message,omitempty"`
	Archived     bool         `json:"archived"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the other participant of a two-party conversation,
// or "" when userID is not a participant or the conversation is a group.
func (c *Conversation) Counterpart(userID string) string {
	if len(c.Participants) != 2 || !c.HasParticipant(userID) {
		return ""
	}
	if c.Participants[0] == userID {
		return c.Participants[1]
	}
	return c.Participants[0]
}
