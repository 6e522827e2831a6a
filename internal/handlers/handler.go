package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/chat"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/realtime"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store    store.DataStore
	chat     *chat.Service
	notifier *chat.Notifier
	hub      *realtime.Hub
	redis    *redis.Client // nil when rate limiting is disabled
	logger   zerolog.Logger
}

// NewHandler creates a Handler.
func NewHandler(ds store.DataStore, svc *chat.Service, notifier *chat.Notifier, hub *realtime.Hub, redisClient *redis.Client, logger zerolog.Logger) *Handler {
	return &Handler{
		store:    ds,
		chat:     svc,
		notifier: notifier,
		hub:      hub,
		redis:    redisClient,
		logger:   logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// serviceError maps the chat failure taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a persistence or programming failure and becomes
// an opaque 500.
func (h *Handler) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		h.Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, chat.ErrForbidden):
		h.Error(w, http.StatusForbidden, "not a participant")
	case errors.Is(err, chat.ErrValidation):
		h.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("request failed")
		h.Error(w, http.StatusInternalServerError, "internal error")
	}
}
