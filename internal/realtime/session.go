package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Session is a websocket-backed Conn. Outbound traffic goes through a
// buffered channel drained by a single write loop, so Send never blocks a
// broadcaster on a slow client.
type Session struct {
	id       string
	identity models.Identity
	hub      *Hub
	ws       *websocket.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	logger   zerolog.Logger
}

// NewSession wraps an upgraded websocket connection for the given verified
// identity.
func NewSession(hub *Hub, ws *websocket.Conn, identity models.Identity, logger zerolog.Logger) *Session {
	return &Session{
		id:       uuid.NewString(),
		identity: identity,
		hub:      hub,
		ws:       ws,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// ID returns the connection identifier.
func (s *Session) ID() string { return s.id }

// UserID returns the authenticated user behind the connection.
func (s *Session) UserID() string { return s.identity.ID }

// Send enqueues data for delivery. A full buffer closes the connection to
// keep backpressure bounded; the client reconnects and re-joins its rooms.
func (s *Session) Send(data []byte) error {
	select {
	case <-s.done:
		return errors.New("session closed")
	case s.send <- data:
		return nil
	default:
		s.Close()
		return errors.New("session send buffer full")
	}
}

// Close terminates the session. Safe to call multiple times.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
		deadline := time.Now().Add(writeWait)
		_ = s.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), deadline)
		_ = s.ws.Close()
	})
}

// Run registers the session with the hub and pumps the socket until the
// client disconnects. It blocks; call it from the upgrade handler's
// goroutine. Disconnect tears down presence and room membership only;
// already-persisted messages and notifications are untouched.
func (s *Session) Run() {
	s.hub.Connect(s)
	go s.writeLoop()
	s.readLoop()
}

func (s *Session) readLoop() {
	defer func() {
		s.hub.Disconnect(s.id)
		s.Close()
	}()

	s.ws.SetReadLimit(maxMessageSize)
	_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		return s.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Debug().Str("user_id", s.identity.ID).Err(err).Msg("websocket read failed")
			}
			return
		}

		var event ClientEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			s.logger.Debug().Str("user_id", s.identity.ID).Msg("discarding malformed client event")
			continue
		}
		s.dispatch(event)
	}
}

func (s *Session) dispatch(event ClientEvent) {
	if event.ConversationID == "" {
		return
	}
	switch event.Type {
	case EventJoinConversation:
		s.hub.JoinConversation(s, event.ConversationID)
	case EventLeaveConversation:
		s.hub.LeaveConversation(s.id, event.ConversationID)
	case EventTyping:
		s.hub.RelayTyping(s, event.ConversationID, event.IsTyping)
	}
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.done:
			return
		case data := <-s.send:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
