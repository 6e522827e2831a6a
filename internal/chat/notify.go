package chat

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/ids"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/metrics"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/models"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/realtime"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/store"
)

const (
	notificationTitle = "New message"
	previewLimit      = 50
)

// Notifier creates durable notifications for message recipients and pushes
// them live to whoever is online.
type Notifier struct {
	store  store.DataStore
	hub    *realtime.Hub
	logger zerolog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(ds store.DataStore, hub *realtime.Hub, logger zerolog.Logger) *Notifier {
	return &Notifier{store: ds, hub: hub, logger: logger}
}

// Dispatch persists one notification per participant other than the sender,
// then pushes each in real time if the recipient has a live connection.
// Offline recipients find the notification on their next fetch; that is the
// only delivery guarantee for them.
//
// The delivery service calls this exactly once per message. Failures here
// are logged and skipped; the message itself is already persisted and must
// not be rolled back by notification trouble.
func (n *Notifier) Dispatch(ctx context.Context, conv *models.Conversation, msg *models.Message) {
	for _, participant := range conv.Participants {
		if participant == msg.SenderID {
			continue
		}

		notif := &models.Notification{
			ID:             ids.NewUUID(),
			RecipientID:    participant,
			Type:           models.NotificationTypeMessage,
			Title:          notificationTitle,
			Body:           preview(msg.Content),
			ConversationID: conv.ID,
			CreatedAt:      msg.CreatedAt,
		}

		if err := n.store.CreateNotification(ctx, notif); err != nil {
			n.logger.Error().
				Str("recipient_id", participant).
				Str("message_id", msg.ID).
				Err(err).
				Msg("notification persist failed")
			continue
		}
		metrics.NotificationsCreated.Inc()

		n.hub.PushToUser(participant, realtime.Event{
			Type:    realtime.EventNewNotification,
			Payload: notif,
		})
	}
}

// List returns the recipient's notifications, newest first.
func (n *Notifier) List(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return n.store.ListNotifications(ctx, recipientID, limit)
}

// MarkRead flips a single notification owned by the recipient.
func (n *Notifier) MarkRead(ctx context.Context, id uuid.UUID, recipientID string) error {
	found, err := n.store.MarkNotificationRead(ctx, id, recipientID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead flips every unread notification for the recipient.
func (n *Notifier) MarkAllRead(ctx context.Context, recipientID string) error {
	return n.store.MarkAllNotificationsRead(ctx, recipientID)
}

// Delete removes a notification owned by the recipient.
func (n *Notifier) Delete(ctx context.Context, id uuid.UUID, recipientID string) error {
	found, err := n.store.DeleteNotification(ctx, id, recipientID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// preview truncates message content for the notification body. Counts runes,
// not bytes, so multibyte content is not cut mid-character.
func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLimit {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewLimit]) + "…"
}
