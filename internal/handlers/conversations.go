package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/api/middleware"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/models"
)

// CreateConversationRequest is the create-conversation request body.
type CreateConversationRequest struct {
	ParticipantID  string `json:"participant_id"`
	JobID          string `json:"job_id,omitempty"`
	OpeningMessage string `json:"opening_message,omitempty"`
}

// CreateConversation finds or creates the conversation between the caller
// and the named participant. Idempotent per participant pair.
func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	view, err := h.chat.CreateConversation(r.Context(), identity, req.ParticipantID, req.JobID, req.OpeningMessage)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, view)
}

// ListConversations returns the caller's conversations, each annotated with
// a freshly computed unread count.
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	views, err := h.chat.ListConversations(r.Context(), identity.ID)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]interface{}{"conversations": views})
}

// MarkConversationRead flips read state for every message and notification
// the caller has in the conversation.
func (h *Handler) MarkConversationRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	flipped, err := h.chat.MarkRead(r.Context(), conversationID, identity.ID)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]int64{"marked_read": flipped})
}

// SendMessageRequest is the send-message request body.
type SendMessageRequest struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"`
}

// SendMessage persists a message and acks it synchronously; real-time
// fan-out already happened as a side effect by the time the response is
// written, but is not part of the response contract.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	msg, err := h.chat.SendMessage(r.Context(), conversationID, identity, req.Content, req.ContentType)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, msg)
}

// HistoryResponse is the paginated message history response.
type HistoryResponse struct {
	Messages []models.Message `json:"messages"`
}

// GetHistory returns a page of messages in chronological order. Pagination
// walks backwards with a before-id cursor.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	before := r.URL.Query().Get("before")

	msgs, err := h.chat.History(r.Context(), conversationID, identity.ID, limit, before)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	h.JSON(w, http.StatusOK, HistoryResponse{Messages: msgs})
}
