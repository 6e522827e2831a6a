package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/models"
)

// MemoryStore is the volatile DataStore backend, used when the durable store
// is unreachable at startup and as the fixture for service tests. Contents
// are lost on process exit; nothing here is ever written to disk.
type MemoryStore struct {
	mu            sync.RWMutex
	profiles      map[string]models.Profile
	conversations map[uuid.UUID]*models.Conversation
	pairs         map[string]uuid.UUID
	messages      map[uuid.UUID][]models.Message
	reads         map[string]map[string]time.Time
	notifications map[uuid.UUID]*models.Notification
}

// NewMemoryStore creates an empty volatile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:      make(map[string]models.Profile),
		conversations: make(map[uuid.UUID]*models.Conversation),
		pairs:         make(map[string]uuid.UUID),
		messages:      make(map[uuid.UUID][]models.Message),
		reads:         make(map[string]map[string]time.Time),
		notifications: make(map[uuid.UUID]*models.Notification),
	}
}

// Close is a no-op; there is nothing to release.
func (s *MemoryStore) Close() {}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// SaveProfile upserts the cached display metadata for a user.
func (s *MemoryStore) SaveProfile(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	cp.UpdatedAt = time.Now()
	s.profiles[p.UserID] = cp
	return nil
}

// GetProfile retrieves a cached profile.
func (s *MemoryStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

// CreateConversation inserts a conversation, enforcing pair uniqueness for
// two-party conversations.
func (s *MemoryStore) CreateConversation(ctx context.Context, c *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pairKey string
	if len(c.Participants) == 2 {
		pairKey = PairKey(c.Participants[0], c.Participants[1])
		if _, exists := s.pairs[pairKey]; exists {
			return fmt.Errorf("conversation for pair %s already exists", pairKey)
		}
	}

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	cp := cloneConversation(c)
	s.conversations[c.ID] = cp
	if pairKey != "" {
		s.pairs[pairKey] = c.ID
	}
	return nil
}

// GetConversation retrieves a conversation by id.
func (s *MemoryStore) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	return cloneConversation(c), nil
}

// FindDirectConversation retrieves the two-party conversation between the
// given users, regardless of participant order.
func (s *MemoryStore) FindDirectConversation(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.pairs[PairKey(userA, userB)]
	if !ok {
		return nil, nil
	}
	return cloneConversation(s.conversations[id]), nil
}

// ListConversations retrieves a user's non-archived conversations, most
// recently active first.
func (s *MemoryStore) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Conversation
	for _, c := range s.conversations {
		if c.Archived || !c.HasParticipant(userID) {
			continue
		}
		out = append(out, *cloneConversation(c))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// SetLastMessage updates the cached last-message snapshot and bumps
// updated_at.
func (s *MemoryStore) SetLastMessage(ctx context.Context, id uuid.UUID, last models.LastMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return fmt.Errorf("conversation %s not found", id)
	}
	snap := last
	c.LastMessage = &snap
	c.UpdatedAt = last.SentAt
	return nil
}

// CreateMessage appends a message to its conversation. Messages arrive with
// monotonically increasing ULIDs, so append order is id order.
func (s *MemoryStore) CreateMessage(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[m.ConversationID]; !ok {
		return fmt.Errorf("conversation %s not found", m.ConversationID)
	}
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], *m)
	return nil
}

// ListMessages retrieves up to limit messages, newest first, optionally
// strictly older than the before cursor.
func (s *MemoryStore) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int, before string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[conversationID]
	out := make([]models.Message, 0, limit)
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		if before != "" && msgs[i].ID >= before {
			continue
		}
		out = append(out, msgs[i])
	}
	return out, nil
}

// MarkMessagesRead records read receipts for every message in the
// conversation not sent by userID.
func (s *MemoryStore) MarkMessagesRead(ctx context.Context, conversationID uuid.UUID, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var flipped int64
	for _, m := range s.messages[conversationID] {
		if m.SenderID == userID {
			continue
		}
		readers := s.reads[m.ID]
		if readers == nil {
			readers = make(map[string]time.Time)
			s.reads[m.ID] = readers
		}
		if _, seen := readers[userID]; !seen {
			readers[userID] = now
			flipped++
		}
	}
	return flipped, nil
}

// UnreadCount counts messages sent by others without a read receipt for
// userID.
func (s *MemoryStore) UnreadCount(ctx context.Context, conversationID uuid.UUID, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	for _, m := range s.messages[conversationID] {
		if m.SenderID == userID {
			continue
		}
		if _, seen := s.reads[m.ID][userID]; !seen {
			n++
		}
	}
	return n, nil
}

// CreateNotification inserts a notification.
func (s *MemoryStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

// ListNotifications retrieves a recipient's notifications, newest first.
func (s *MemoryStore) ListNotifications(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Notification
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkNotificationRead flips a single notification owned by recipientID.
func (s *MemoryStore) MarkNotificationRead(ctx context.Context, id uuid.UUID, recipientID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return false, nil
	}
	markRead(n)
	return true, nil
}

// MarkAllNotificationsRead flips every unread notification for a recipient.
func (s *MemoryStore) MarkAllNotificationsRead(ctx context.Context, recipientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			markRead(n)
		}
	}
	return nil
}

// MarkConversationNotificationsRead flips a recipient's unread notifications
// referencing the given conversation.
func (s *MemoryStore) MarkConversationNotificationsRead(ctx context.Context, conversationID uuid.UUID, recipientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.RecipientID == recipientID && n.ConversationID == conversationID {
			markRead(n)
		}
	}
	return nil
}

// DeleteNotification removes a notification owned by recipientID.
func (s *MemoryStore) DeleteNotification(ctx context.Context, id uuid.UUID, recipientID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return false, nil
	}
	delete(s.notifications, id)
	return true, nil
}

func markRead(n *models.Notification) {
	if n.Read {
		return
	}
	now := time.Now()
	n.Read = true
	n.ReadAt = &now
}

func cloneConversation(c *models.Conversation) *models.Conversation {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	if c.LastMessage != nil {
		snap := *c.LastMessage
		cp.LastMessage = &snap
	}
	return &cp
}
