package realtime

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestHub() *Hub {
	return NewHub(zerolog.Nop())
}

func TestHubConnectClosesReplacedConnection(t *testing.T) {
	h := newTestHub()
	old := newFakeConn("c1", "alice")
	h.Connect(old)
	h.JoinConversation(old, "conv-1")

	fresh := newFakeConn("c2", "alice")
	h.Connect(fresh)

	if !old.closed {
		t.Fatal("replaced connection should be closed")
	}
	if h.Rooms().Contains("c1", "conv-1") {
		t.Fatal("replaced connection should be dropped from its rooms")
	}

	got, ok := h.Presence().Lookup("alice")
	if !ok || got.ID() != "c2" {
		t.Fatal("newest connection should own the presence entry")
	}
}

func TestHubDisconnectAnnouncesOffline(t *testing.T) {
	h := newTestHub()
	alice := newFakeConn("c1", "alice")
	bob := newFakeConn("c2", "bob")
	h.Connect(alice)
	h.Connect(bob)

	h.Disconnect("c1")

	if h.Presence().Online("alice") {
		t.Fatal("alice should be offline")
	}
	var sawOffline bool
	for _, m := range bob.messages() {
		if strings.Contains(m, EventUserOffline) && strings.Contains(m, "alice") {
			sawOffline = true
		}
	}
	if !sawOffline {
		t.Fatal("bob should see alice go offline")
	}
}

func TestHubStaleDisconnectKeepsUserOnline(t *testing.T) {
	h := newTestHub()
	h.Connect(newFakeConn("c1", "alice"))
	h.Connect(newFakeConn("c2", "alice"))

	// Teardown of the replaced socket arrives after the reconnect.
	h.Disconnect("c1")

	if !h.Presence().Online("alice") {
		t.Fatal("late disconnect of a replaced socket should not take alice offline")
	}
}

func TestHubPushToUser(t *testing.T) {
	h := newTestHub()
	bob := newFakeConn("c1", "bob")
	h.Connect(bob)

	if !h.PushToUser("bob", Event{Type: EventNewNotification}) {
		t.Fatal("push to online user should succeed")
	}
	if h.PushToUser("carol", Event{Type: EventNewNotification}) {
		t.Fatal("push to offline user should report false")
	}

	bob.failed = true
	if h.PushToUser("bob", Event{Type: EventNewNotification}) {
		t.Fatal("failed send should report false")
	}
}

func TestHubRelayTypingSkipsOrigin(t *testing.T) {
	h := newTestHub()
	alice := newFakeConn("c1", "alice")
	bob := newFakeConn("c2", "bob")
	h.Connect(alice)
	h.Connect(bob)
	h.JoinConversation(alice, "conv-1")
	h.JoinConversation(bob, "conv-1")

	aliceBefore := len(alice.messages())
	h.RelayTyping(alice, "conv-1", true)

	if len(alice.messages()) != aliceBefore {
		t.Fatal("origin should not receive its own typing event")
	}

	last := bob.messages()[len(bob.messages())-1]
	var event struct {
		Type    string        `json:"type"`
		Payload TypingPayload `json:"payload"`
	}
	if err := json.Unmarshal([]byte(last), &event); err != nil {
		t.Fatal(err)
	}
	if event.Type != EventTyping || event.Payload.UserID != "alice" || !event.Payload.IsTyping {
		t.Fatalf("unexpected typing event %s", last)
	}
}

func TestHubBroadcastToConversation(t *testing.T) {
	h := newTestHub()
	alice := newFakeConn("c1", "alice")
	bob := newFakeConn("c2", "bob")
	h.Connect(alice)
	h.Connect(bob)
	h.JoinConversation(alice, "conv-1")
	h.JoinConversation(bob, "conv-1")

	n := h.BroadcastToConversation("conv-1", Event{Type: EventNewMessage, Payload: map[string]string{"content": "hi"}})
	if n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}
}

func TestEventEncode(t *testing.T) {
	data := Event{Type: EventUserOnline, Payload: PresencePayload{UserID: "alice"}}.Encode()

	var decoded struct {
		Type    string          `json:"type"`
		Payload PresencePayload `json:"payload"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Type != EventUserOnline || decoded.Payload.UserID != "alice" {
		t.Fatalf("unexpected envelope %s", data)
	}
}
