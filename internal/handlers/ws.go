package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/api/middleware"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The bearer token is the trust anchor; origin enforcement belongs to
	// the marketplace gateway in front of this service.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and runs the real-time session until the
// client disconnects. Presence registration, room membership and the
// online/offline broadcasts all happen inside the session lifecycle.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	// Refresh the cached profile so counterpart hydration has fresh names.
	h.chat.SeedProfile(r.Context(), identity)

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Str("user_id", identity.ID).Err(err).Msg("websocket upgrade failed")
		return
	}

	session := realtime.NewSession(h.hub, ws, identity, h.logger)
	session.Run()
}
