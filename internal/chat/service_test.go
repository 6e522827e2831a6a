package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/ids"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/models"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/realtime"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/store"
)

// testConn implements realtime.Conn and records everything pushed to it.
type testConn struct {
	mu     sync.Mutex
	id     string
	userID string
	sent   [][]byte
}

func (c *testConn) ID() string     { return c.id }
func (c *testConn) UserID() string { return c.userID }

func (c *testConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, data)
	return nil
}

// events decodes every frame sent to the connection.
func (c *testConn) events(t *testing.T) []realtime.Event {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]realtime.Event, 0, len(c.sent))
	for _, data := range c.sent {
		var e realtime.Event
		if err := json.Unmarshal(data, &e); err != nil {
			t.Fatal(err)
		}
		out = append(out, e)
	}
	return out
}

func countEvents(t *testing.T, c *testConn, eventType string) int {
	t.Helper()
	n := 0
	for _, e := range c.events(t) {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type fixture struct {
	store    *store.MemoryStore
	hub      *realtime.Hub
	notifier *Notifier
	service  *Service
}

func newFixture() *fixture {
	ms := store.NewMemoryStore()
	hub := realtime.NewHub(zerolog.Nop())
	notifier := NewNotifier(ms, hub, zerolog.Nop())
	return &fixture{
		store:    ms,
		hub:      hub,
		notifier: notifier,
		service:  NewService(ms, hub, notifier, zerolog.Nop()),
	}
}

// connect brings a user online and optionally joins them to a conversation
// room, mirroring what a websocket session does.
func (f *fixture) connect(userID string, rooms ...string) *testConn {
	conn := &testConn{id: "conn-" + userID, userID: userID}
	f.hub.Connect(conn)
	for _, room := range rooms {
		f.hub.JoinConversation(conn, room)
	}
	return conn
}

var (
	alice = models.Identity{ID: "alice", Name: "Alice"}
	bob   = models.Identity{ID: "bob", Name: "Bob"}
)

func createConversation(t *testing.T, f *fixture) *ConversationView {
	t.Helper()
	conv, err := f.service.CreateConversation(context.Background(), alice, bob.ID, "", "")
	if err != nil {
		t.Fatal(err)
	}
	return conv
}

func TestCreateConversationIdempotentPerPair(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.service.CreateConversation(ctx, alice, bob.ID, "job-7", "")
	if err != nil {
		t.Fatal(err)
	}
	// Same pair from the other side returns the existing conversation.
	second, err := f.service.CreateConversation(ctx, bob, alice.ID, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Fatal("expected the same conversation for the same pair")
	}

	convs, err := f.service.ListConversations(ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convs))
	}
	if convs[0].JobID != "job-7" {
		t.Fatalf("expected job anchor preserved, got %q", convs[0].JobID)
	}
}

func TestCreateConversationValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.service.CreateConversation(ctx, alice, "", "", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.service.CreateConversation(ctx, alice, alice.ID, "", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for self conversation, got %v", err)
	}
}

func TestCreateConversationWithOpeningMessage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	conv, err := f.service.CreateConversation(ctx, alice, bob.ID, "", "hi, still available?")
	if err != nil {
		t.Fatal(err)
	}
	if conv.LastMessage == nil || conv.LastMessage.Content != "hi, still available?" {
		t.Fatal("expected opening message in the last-message snapshot")
	}

	msgs, err := f.service.History(ctx, conv.ID, bob.ID, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].SenderID != alice.ID {
		t.Fatal("expected the opening message in history")
	}
}

func TestSendMessagePersistsAndCaches(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conv := createConversation(t, f)

	msg, err := f.service.SendMessage(ctx, conv.ID, alice, "  hello bob  ", "")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Content != "hello bob" {
		t.Fatalf("expected trimmed content, got %q", msg.Content)
	}
	if msg.ContentType != models.ContentText {
		t.Fatalf("expected default content type, got %q", msg.ContentType)
	}
	if msg.SenderName != "Alice" {
		t.Fatalf("expected hydrated sender name, got %q", msg.SenderName)
	}

	msgs, err := f.service.History(ctx, conv.ID, bob.ID, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(msgs))
	}

	reloaded, _ := f.store.GetConversation(ctx, conv.ID)
	if reloaded.LastMessage == nil {
		t.Fatal("expected last message snapshot")
	}
	if reloaded.LastMessage.Content != msg.Content ||
		reloaded.LastMessage.SenderID != msg.SenderID ||
		!reloaded.LastMessage.SentAt.Equal(msg.CreatedAt) {
		t.Fatal("snapshot should match the persisted message")
	}
}

func TestSendMessageRejectsWhitespaceWithoutSideEffects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conv := createConversation(t, f)

	_, err := f.service.SendMessage(ctx, conv.ID, alice, "   \n\t  ", "")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	msgs, _ := f.service.History(ctx, conv.ID, alice.ID, 0, "")
	if len(msgs) != 0 {
		t.Fatal("rejected message should not be persisted")
	}
	reloaded, _ := f.store.GetConversation(ctx, conv.ID)
	if reloaded.LastMessage != nil {
		t.Fatal("rejected message should not touch the snapshot")
	}
	notifs, _ := f.notifier.List(ctx, bob.ID, 50)
	if len(notifs) != 0 {
		t.Fatal("rejected message should not create notifications")
	}
}

func TestSendMessageRejectsUnknownContentType(t *testing.T) {
	f := newFixture()
	conv := createConversation(t, f)

	_, err := f.service.SendMessage(context.Background(), conv.ID, alice, "hello", "carrier_pigeon")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSendMessageAuthorization(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conv := createConversation(t, f)

	mallory := models.Identity{ID: "mallory", Name: "Mallory"}
	if _, err := f.service.SendMessage(ctx, conv.ID, mallory, "hi", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	if _, err := f.service.SendMessage(ctx, ids.NewUUID(), alice, "hi", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSendMessageFanOutBothOnline(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conv := createConversation(t, f)

	aliceConn := f.connect(alice.ID, conv.ID.String())
	bobConn := f.connect(bob.ID, conv.ID.String())

	if _, err := f.service.SendMessage(ctx, conv.ID, alice, "hello", ""); err != nil {
		t.Fatal(err)
	}

	// Both room members, sender included, get the message event.
	if countEvents(t, aliceConn, realtime.EventNewMessage) != 1 {
		t.Fatal("sender's connection should receive the room broadcast")
	}
	if countEvents(t, bobConn, realtime.EventNewMessage) != 1 {
		t.Fatal("recipient should receive the room broadcast")
	}

	var payload models.Message
	for _, e := range bobConn.events(t) {
		if e.Type == realtime.EventNewMessage {
			raw, _ := json.Marshal(e.Payload)
			if err := json.Unmarshal(raw, &payload); err != nil {
				t.Fatal(err)
			}
		}
	}
	if payload.SenderName != "Alice" || payload.Content != "hello" {
		t.Fatalf("unexpected message payload %+v", payload)
	}

	// conversation_updated and new_notification go only to the recipient.
	if countEvents(t, bobConn, realtime.EventConversationUpdated) != 1 {
		t.Fatal("recipient should receive conversation_updated")
	}
	if countEvents(t, aliceConn, realtime.EventConversationUpdated) != 0 {
		t.Fatal("sender should not receive conversation_updated")
	}
	if countEvents(t, bobConn, realtime.EventNewNotification) != 1 {
		t.Fatal("recipient should receive the live notification")
	}
	if countEvents(t, aliceConn, realtime.EventNewNotification) != 0 {
		t.Fatal("sender should never be notified of their own message")
	}
}

func TestSendMessageRecipientOffline(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conv := createConversation(t, f)

	// Only the sender is connected; bob is away.
	f.connect(alice.ID, conv.ID.String())

	if _, err := f.service.SendMessage(ctx, conv.ID, alice, "are you there?", ""); err != nil {
		t.Fatal(err)
	}

	// Everything bob needs survives for his next fetch.
	msgs, err := f.service.History(ctx, conv.ID, bob.ID, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 durable message, got %d", len(msgs))
	}

	notifs, err := f.notifier.List(ctx, bob.ID, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(notifs) != 1 || notifs[0].Read {
		t.Fatal("expected one unread durable notification")
	}

	views, _ := f.service.ListConversations(ctx, bob.ID)
	if len(views) != 1 || views[0].UnreadCount != 1 {
		t.Fatal("expected unread count 1 for bob")
	}
}

func TestNotificationsOnlyForNonSenders(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conv := createConversation(t, f)

	if _, err := f.service.SendMessage(ctx, conv.ID, alice, "hello", ""); err != nil {
		t.Fatal(err)
	}

	bobNotifs, _ := f.notifier.List(ctx, bob.ID, 50)
	if len(bobNotifs) != 1 {
		t.Fatalf("expected 1 notification for bob, got %d", len(bobNotifs))
	}
	if bobNotifs[0].ConversationID != conv.ID {
		t.Fatal("notification should reference the conversation")
	}
	aliceNotifs, _ := f.notifier.List(ctx, alice.ID, 50)
	if len(aliceNotifs) != 0 {
		t.Fatalf("sender should get no notification, got %d", len(aliceNotifs))
	}
}

func TestMarkReadClearsUnreadAndNotifications(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conv := createConversation(t, f)

	f.service.SendMessage(ctx, conv.ID, alice, "one", "")
	f.service.SendMessage(ctx, conv.ID, alice, "two", "")

	views, _ := f.service.ListConversations(ctx, bob.ID)
	if views[0].UnreadCount != 2 {
		t.Fatalf("expected 2 unread, got %d", views[0].UnreadCount)
	}

	flipped, err := f.service.MarkRead(ctx, conv.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if flipped != 2 {
		t.Fatalf("expected 2 newly marked, got %d", flipped)
	}

	views, _ = f.service.ListConversations(ctx, bob.ID)
	if views[0].UnreadCount != 0 {
		t.Fatalf("expected 0 unread after mark, got %d", views[0].UnreadCount)
	}

	notifs, _ := f.notifier.List(ctx, bob.ID, 50)
	for _, n := range notifs {
		if !n.Read {
			t.Fatal("conversation notifications should be read too")
		}
	}

	// Sender's own read state is unaffected by bob's mark.
	flipped, _ = f.service.MarkRead(ctx, conv.ID, bob.ID)
	if flipped != 0 {
		t.Fatalf("expected idempotent mark, got %d", flipped)
	}
}

func TestHistoryChronologicalAndPaged(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conv := createConversation(t, f)

	for _, content := range []string{"first", "second", "third"} {
		if _, err := f.service.SendMessage(ctx, conv.ID, alice, content, ""); err != nil {
			t.Fatal(err)
		}
	}

	msgs, err := f.service.History(ctx, conv.ID, bob.ID, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "first" || msgs[2].Content != "third" {
		t.Fatal("expected chronological order")
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i-1].ID >= msgs[i].ID {
			t.Fatal("message ids should be strictly increasing")
		}
	}

	// Page of the two oldest, using the newest as cursor.
	page, err := f.service.History(ctx, conv.ID, bob.ID, 5, msgs[2].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].Content != "first" || page[1].Content != "second" {
		t.Fatal("expected the two messages before the cursor, oldest first")
	}
}

func TestHistoryAuthorization(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conv := createConversation(t, f)

	mallory := models.Identity{ID: "mallory"}
	if _, err := f.service.History(ctx, conv.ID, mallory.ID, 0, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestListConversationsHydratesCounterpart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.service.SeedProfile(ctx, bob)
	createConversation(t, f)

	views, err := f.service.ListConversations(ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if views[0].Counterpart == nil || views[0].Counterpart.DisplayName != "Bob" {
		t.Fatal("expected hydrated counterpart profile")
	}

	// Bob never authenticated from carol's side; hydration degrades to nil.
	carol := models.Identity{ID: "carol", Name: "Carol"}
	if _, err := f.service.CreateConversation(ctx, carol, "dave", "", ""); err != nil {
		t.Fatal(err)
	}
	views, _ = f.service.ListConversations(ctx, carol.ID)
	if views[0].Counterpart != nil {
		t.Fatal("expected nil counterpart for unseen profile")
	}
}
