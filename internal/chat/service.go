package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/ids"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/metrics"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/models"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/realtime"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/store"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// Service implements conversation management and message delivery on top of
// whichever DataStore the process started with, fanning real-time events out
// through the hub.
type Service struct {
	store    store.DataStore
	hub      *realtime.Hub
	notifier *Notifier
	logger   zerolog.Logger
}

// NewService creates a Service.
func NewService(ds store.DataStore, hub *realtime.Hub, notifier *Notifier, logger zerolog.Logger) *Service {
	return &Service{store: ds, hub: hub, notifier: notifier, logger: logger}
}

// ConversationView is a conversation annotated for one viewer: their unread
// count, computed at read time, and the hydrated counterpart profile for
// two-party conversations.
type ConversationView struct {
	models.Conversation
	UnreadCount int             `json:"unread_count"`
	Counterpart *models.Profile `json:"counterpart,omitempty"`
}

// conversationUpdated is the payload pushed to participants who are not
// viewing the conversation, so their list and badge stay current.
type conversationUpdated struct {
	ConversationID uuid.UUID          `json:"conversation_id"`
	LastMessage    models.LastMessage `json:"last_message"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// SeedProfile refreshes the cached display metadata for a verified identity.
// Called whenever a user authenticates against this service; keeps
// counterpart hydration working without a profile-service round-trip.
func (s *Service) SeedProfile(ctx context.Context, identity models.Identity) {
	err := s.store.SaveProfile(ctx, &models.Profile{
		UserID:      identity.ID,
		DisplayName: identity.Name,
	})
	if err != nil {
		s.logger.Warn().Str("user_id", identity.ID).Err(err).Msg("profile seed failed")
	}
}

// CreateConversation finds or creates the two-party conversation between the
// creator and participantID. Creation is idempotent per participant pair: a
// second call returns the existing conversation. An optional opening message
// is sent through the normal delivery path.
func (s *Service) CreateConversation(ctx context.Context, creator models.Identity, participantID, jobID, openingMessage string) (*ConversationView, error) {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return nil, fmt.Errorf("%w: participant id is required", ErrValidation)
	}
	if participantID == creator.ID {
		return nil, fmt.Errorf("%w: cannot start a conversation with yourself", ErrValidation)
	}

	s.SeedProfile(ctx, creator)

	conv, err := s.store.FindDirectConversation(ctx, creator.ID, participantID)
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	if conv == nil {
		conv = &models.Conversation{
			ID:           ids.NewUUID(),
			Participants: []string{creator.ID, participantID},
			JobID:        jobID,
		}
		if err := s.store.CreateConversation(ctx, conv); err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
		metrics.ConversationsCreated.Inc()
	}

	if strings.TrimSpace(openingMessage) != "" {
		if _, err := s.SendMessage(ctx, conv.ID, creator, openingMessage, models.ContentText); err != nil {
			return nil, err
		}
		// Re-read for the lastMessage snapshot the send just wrote.
		conv, err = s.store.GetConversation(ctx, conv.ID)
		if err != nil {
			return nil, fmt.Errorf("reload conversation: %w", err)
		}
	}

	return s.view(ctx, conv, creator.ID), nil
}

// ListConversations returns the user's conversations, most recently active
// first, each with a freshly computed unread count.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]ConversationView, error) {
	convs, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	views := make([]ConversationView, 0, len(convs))
	for i := range convs {
		views = append(views, *s.view(ctx, &convs[i], userID))
	}
	return views, nil
}

// History returns messages in chronological order. The store query runs
// newest-first with an optional before-id cursor, then the page is reversed
// for display.
func (s *Service) History(ctx context.Context, conversationID uuid.UUID, userID string, limit int, before string) ([]models.Message, error) {
	if _, err := s.authorize(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	msgs, err := s.store.ListMessages(ctx, conversationID, limit, before)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// SendMessage validates, persists and fans out one message.
//
// Effects happen in a fixed order: persist the message, update the owning
// conversation's lastMessage cache, broadcast to the conversation room, push
// conversation_updated to every other participant who is online, dispatch
// notifications. The broadcast never fires before the persist succeeds, so a
// client that sees the event can always re-query history and find the row.
// Persistence failures abort everything; fan-out failures are swallowed.
func (s *Service) SendMessage(ctx context.Context, conversationID uuid.UUID, sender models.Identity, content, contentType string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content is empty", ErrValidation)
	}
	if contentType == "" {
		contentType = models.ContentText
	}
	if !models.ValidContentType(contentType) {
		return nil, fmt.Errorf("%w: unknown content type %q", ErrValidation, contentType)
	}

	conv, err := s.authorize(ctx, conversationID, sender.ID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:             ids.NewMessageID(),
		ConversationID: conv.ID,
		SenderID:       sender.ID,
		SenderName:     sender.Name,
		Content:        content,
		ContentType:    contentType,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	last := models.LastMessage{
		Content:    msg.Content,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		SentAt:     msg.CreatedAt,
	}
	if err := s.store.SetLastMessage(ctx, conv.ID, last); err != nil {
		return nil, fmt.Errorf("update conversation: %w", err)
	}
	metrics.MessagesSent.WithLabelValues(contentType).Inc()

	s.hub.BroadcastToConversation(conv.ID.String(), realtime.Event{
		Type:    realtime.EventNewMessage,
		Payload: msg,
	})

	update := realtime.Event{Type: realtime.EventConversationUpdated, Payload: conversationUpdated{
		ConversationID: conv.ID,
		LastMessage:    last,
		UpdatedAt:      msg.CreatedAt,
	}}
	for _, participant := range conv.Participants {
		if participant != sender.ID {
			s.hub.PushToUser(participant, update)
		}
	}

	s.notifier.Dispatch(ctx, conv, msg)

	return msg, nil
}

// MarkRead flips read state for every message in the conversation not sent
// by the user, and every notification of theirs referencing it. Returns how
// many messages were newly marked.
func (s *Service) MarkRead(ctx context.Context, conversationID uuid.UUID, userID string) (int64, error) {
	if _, err := s.authorize(ctx, conversationID, userID); err != nil {
		return 0, err
	}

	flipped, err := s.store.MarkMessagesRead(ctx, conversationID, userID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	if err := s.store.MarkConversationNotificationsRead(ctx, conversationID, userID); err != nil {
		return flipped, fmt.Errorf("mark notifications read: %w", err)
	}
	return flipped, nil
}

// authorize resolves the conversation and checks membership.
func (s *Service) authorize(ctx context.Context, conversationID uuid.UUID, userID string) (*models.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrNotFound
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrForbidden
	}
	return conv, nil
}

// view annotates a conversation for one viewer. Hydration is best-effort:
// a missing profile or a failed unread query degrades the view, it does not
// fail the request.
func (s *Service) view(ctx context.Context, conv *models.Conversation, userID string) *ConversationView {
	v := &ConversationView{Conversation: *conv}

	unread, err := s.store.UnreadCount(ctx, conv.ID, userID)
	if err != nil {
		s.logger.Warn().Str("conversation_id", conv.ID.String()).Err(err).Msg("unread count failed")
	} else {
		v.UnreadCount = unread
	}

	if counterpart := conv.Counterpart(userID); counterpart != "" {
		profile, err := s.store.GetProfile(ctx, counterpart)
		if err != nil {
			s.logger.Warn().Str("user_id", counterpart).Err(err).Msg("profile hydration failed")
		} else {
			v.Counterpart = profile
		}
	}
	return v
}
