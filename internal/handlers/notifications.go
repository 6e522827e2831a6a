package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/api/middleware"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/models"
)

// ListNotifications returns the caller's notifications, newest first.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	notifs, err := h.notifier.List(r.Context(), identity.ID, limit)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if notifs == nil {
		notifs = []models.Notification{}
	}

	h.JSON(w, http.StatusOK, map[string]interface{}{"notifications": notifs})
}

// MarkNotificationRead flips a single notification of the caller's.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.notifier.MarkRead(r.Context(), id, identity.ID); err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]bool{"read": true})
}

// MarkAllNotificationsRead flips every unread notification of the caller's.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.notifier.MarkAllRead(r.Context(), identity.ID); err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]bool{"read": true})
}

// DeleteNotification removes a notification of the caller's.
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.notifier.Delete(r.Context(), id, identity.ID); err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
