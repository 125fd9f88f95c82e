package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TheVish04/CAprep/internal/transport/http/middleware"
	"github.com/TheVish04/CAprep/internal/usecase"
)

// NotificationHandler serves the caller's notification feed. Every route is
// behind RequireAuth, so a missing identity is a wiring bug.
type NotificationHandler struct {
	notifications *usecase.NotificationService
}

func NewNotificationHandler(notifications *usecase.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	page, pageSize := pageParams(c)
	unreadOnly := c.Query("unread") == "true"
	notifications, total, err := h.notifications.List(c.Request.Context(), identity.UserID, unreadOnly, page, pageSize)
	if err != nil {
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: notifications, Total: total, Page: page, PageSize: pageSize})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	count, err := h.notifications.UnreadCount(c.Request.Context(), identity.UserID)
	if err != nil {
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), identity.UserID, c.Param("id")); err != nil {
		if errors.Is(err, usecase.ErrNotificationNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Notification not found")
			return
		}
		respondInternal(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	if err := h.notifications.MarkAllRead(c.Request.Context(), identity.UserID); err != nil {
		respondInternal(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), identity.UserID, c.Param("id")); err != nil {
		if errors.Is(err, usecase.ErrNotificationNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Notification not found")
			return
		}
		respondInternal(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
