package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/models"
)

// DataStore is the persistence boundary for conversations, messages,
// notifications and cached profiles. Both PostgresStore (durable) and
// MemoryStore (volatile fallback) implement it; the backend is chosen once
// at startup and business logic never branches on which one it got.
//
// Point lookups return (nil, nil) when the row does not exist.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Profile cache
	SaveProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)

	// Conversation operations
	CreateConversation(ctx context.Context, c *models.Conversation) error
	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	FindDirectConversation(ctx context.Context, userA, userB string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	SetLastMessage(ctx context.Context, id uuid.UUID, last models.LastMessage) error

	// Message operations
	CreateMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit int, before string) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID uuid.UUID, userID string) (int64, error)
	UnreadCount(ctx context.Context, conversationID uuid.UUID, userID string) (int, error)

	// Notification operations
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID, recipientID string) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, recipientID string) error
	MarkConversationNotificationsRead(ctx context.Context, conversationID uuid.UUID, recipientID string) error
	DeleteNotification(ctx context.Context, id uuid.UUID, recipientID string) (bool, error)
}

// PairKey returns the canonical key identifying a two-party conversation.
// Sorting makes (a,b) and (b,a) collide, which keeps conversation creation
// idempotent per participant pair.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
