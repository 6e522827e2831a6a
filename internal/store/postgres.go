package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/models"
)

// PostgresStore is the durable DataStore backend.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pool, verifies the connection and ensures the
// schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id UUID PRIMARY KEY,
		participants TEXT[] NOT NULL,
		pair_key TEXT UNIQUE,
		job_id TEXT NOT NULL DEFAULT '',
		last_content TEXT,
		last_sender_id TEXT,
		last_sender_name TEXT,
		last_sent_at TIMESTAMPTZ,
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		sender_id TEXT NOT NULL,
		sender_name TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		content_type TEXT NOT NULL DEFAULT 'text',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS message_reads (
		message_id TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		read_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (message_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		recipient_id TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'message',
		title TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		conversation_id UUID,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		read_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_participants ON conversations USING GIN (participants);
	CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, id);
	CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, created_at);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// SaveProfile upserts the cached display metadata for a user.
func (s *PostgresStore) SaveProfile(ctx context.Context, p *models.Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, display_name, avatar_url, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    avatar_url = EXCLUDED.avatar_url,
		    updated_at = NOW()
	`, p.UserID, p.DisplayName, p.AvatarURL)
	return err
}

// GetProfile retrieves a cached profile.
func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p := &models.Profile{}
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, display_name, avatar_url, updated_at
		FROM profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.DisplayName, &p.AvatarURL, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// CreateConversation inserts a conversation. Two-party conversations get a
// canonical pair key; a duplicate pair violates the unique constraint, which
// callers avoid by calling FindDirectConversation first.
func (s *PostgresStore) CreateConversation(ctx context.Context, c *models.Conversation) error {
	var pairKey *string
	if len(c.Participants) == 2 {
		k := PairKey(c.Participants[0], c.Participants[1])
		pairKey = &k
	}

	return s.pool.QueryRow(ctx, `
		INSERT INTO conversations (id, participants, pair_key, job_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, c.ID, c.Participants, pairKey, c.JobID).Scan(&c.CreatedAt, &c.UpdatedAt)
}

const conversationColumns = `
	id, participants, job_id,
	last_content, last_sender_id, last_sender_name, last_sent_at,
	archived, created_at, updated_at`

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	c := &models.Conversation{}
	var lastContent, lastSenderID, lastSenderName *string
	var lastSentAt *time.Time

	err := row.Scan(
		&c.ID,
		&c.Participants,
		&c.JobID,
		&lastContent,
		&lastSenderID,
		&lastSenderName,
		&lastSentAt,
		&c.Archived,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastSentAt != nil {
		c.LastMessage = &models.LastMessage{
			Content:    deref(lastContent),
			SenderID:   deref(lastSenderID),
			SenderName: deref(lastSenderName),
			SentAt:     *lastSentAt,
		}
	}
	return c, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GetConversation retrieves a conversation by id.
func (s *PostgresStore) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	c, err := scanConversation(s.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// FindDirectConversation retrieves the two-party conversation between the
// given users, regardless of participant order.
func (s *PostgresStore) FindDirectConversation(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	c, err := scanConversation(s.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations WHERE pair_key = $1
	`, PairKey(userA, userB)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// ListConversations retrieves a user's non-archived conversations, most
// recently active first.
func (s *PostgresStore) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE $1 = ANY(participants) AND NOT archived
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// SetLastMessage updates the cached last-message snapshot and bumps
// updated_at so list ordering follows activity.
func (s *PostgresStore) SetLastMessage(ctx context.Context, id uuid.UUID, last models.LastMessage) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE conversations
		SET last_content = $2, last_sender_id = $3, last_sender_name = $4,
		    last_sent_at = $5, updated_at = $5
		WHERE id = $1
	`, id, last.Content, last.SenderID, last.SenderName, last.SentAt)
	return err
}

// CreateMessage inserts a message row.
func (s *PostgresStore) CreateMessage(ctx context.Context, m *models.Message) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, sender_name, content, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, m.ConversationID, m.SenderID, m.SenderName, m.Content, m.ContentType, m.CreatedAt)
	return err
}

// ListMessages retrieves up to limit messages, newest first. When before is a
// message id, only strictly older messages are returned (cursor pagination).
func (s *PostgresStore) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int, before string) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, sender_id, sender_name, content, content_type, created_at
		FROM messages
		WHERE conversation_id = $1 AND ($2 = '' OR id < $2)
		ORDER BY id DESC
		LIMIT $3
	`, conversationID, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.SenderName, &m.Content, &m.ContentType, &m.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkMessagesRead records a read receipt for every message in the
// conversation not sent by userID. Existing receipts are left untouched.
func (s *PostgresStore) MarkMessagesRead(ctx context.Context, conversationID uuid.UUID, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO message_reads (message_id, user_id)
		SELECT m.id, $2 FROM messages m
		WHERE m.conversation_id = $1 AND m.sender_id <> $2
		ON CONFLICT DO NOTHING
	`, conversationID, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UnreadCount counts messages in the conversation sent by others and not yet
// covered by a read receipt for userID. Computed on demand, never cached.
func (s *PostgresStore) UnreadCount(ctx context.Context, conversationID uuid.UUID, userID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages m
		WHERE m.conversation_id = $1 AND m.sender_id <> $2
		AND NOT EXISTS (
			SELECT 1 FROM message_reads r
			WHERE r.message_id = m.id AND r.user_id = $2
		)
	`, conversationID, userID).Scan(&n)
	return n, err
}

// CreateNotification inserts a notification row.
func (s *PostgresStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, recipient_id, type, title, body, conversation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.RecipientID, n.Type, n.Title, n.Body, n.ConversationID, n.CreatedAt)
	return err
}

// ListNotifications retrieves a recipient's notifications, newest first.
func (s *PostgresStore) ListNotifications(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, recipient_id, type, title, body, conversation_id, is_read, read_at, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Body, &n.ConversationID, &n.Read, &n.ReadAt, &n.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead flips a single notification owned by recipientID.
// Returns false when no such notification exists for that recipient.
func (s *PostgresStore) MarkNotificationRead(ctx context.Context, id uuid.UUID, recipientID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND recipient_id = $2
	`, id, recipientID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkAllNotificationsRead flips every unread notification for a recipient.
func (s *PostgresStore) MarkAllNotificationsRead(ctx context.Context, recipientID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE recipient_id = $1 AND NOT is_read
	`, recipientID)
	return err
}

// MarkConversationNotificationsRead flips a recipient's unread notifications
// that reference the given conversation. Invoked by mark-conversation-read so
// the unread badge and the notification list agree.
func (s *PostgresStore) MarkConversationNotificationsRead(ctx context.Context, conversationID uuid.UUID, recipientID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE recipient_id = $1 AND conversation_id = $2 AND NOT is_read
	`, recipientID, conversationID)
	return err
}

// DeleteNotification removes a notification owned by recipientID.
func (s *PostgresStore) DeleteNotification(ctx context.Context, id uuid.UUID, recipientID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM notifications WHERE id = $1 AND recipient_id = $2
	`, id, recipientID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
