package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/transport/http/middleware"
	"github.com/TheVish04/CAprep/internal/usecase"
)

// AdminHandler serves the admin console endpoints. Every route is behind
// RequireAuth and RequireAdmin.
type AdminHandler struct {
	admin    *usecase.AdminService
	contacts *usecase.ContactService
}

func NewAdminHandler(admin *usecase.AdminService, contacts *usecase.ContactService) *AdminHandler {
	return &AdminHandler{admin: admin, contacts: contacts}
}

func (h *AdminHandler) Analytics(c *gin.Context) {
	analytics, err := h.admin.Analytics(c.Request.Context())
	if err != nil {
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, pageSize := pageParams(c)
	users, total, err := h.admin.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		respondInternal(c, err)
		return
	}

	items := make([]*userResponse, 0, len(users))
	for i := range users {
		items = append(items, newUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, listResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	if err := h.admin.DeleteUser(c.Request.Context(), identity.UserID, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, usecase.ErrCannotDeleteSelf):
			respondError(c, http.StatusBadRequest, "CANNOT_DELETE_SELF", "You cannot delete your own account")
		case errors.Is(err, usecase.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "NOT_FOUND", "User not found")
		default:
			respondInternal(c, err)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) Broadcast(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	delivered, err := h.admin.Broadcast(c.Request.Context(), identity.UserID, req.Title, req.Message)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidAnnouncement) {
			respondError(c, http.StatusBadRequest, "INVALID_ANNOUNCEMENT", err.Error())
			return
		}
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivered": delivered})
}

func (h *AdminHandler) ClearCache(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	h.admin.ClearCache(c.Request.Context(), identity.UserID)
	c.JSON(http.StatusOK, gin.H{"message": "Cache cleared"})
}

func (h *AdminHandler) AuditLog(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := domain.AuditFilter{
		ActorID:  c.Query("actorId"),
		Action:   c.Query("action"),
		Page:     page,
		PageSize: pageSize,
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_FILTER", "since must be RFC 3339")
			return
		}
		filter.Since = t
	}
	if until := c.Query("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_FILTER", "until must be RFC 3339")
			return
		}
		filter.Until = t
	}

	entries, total, err := h.admin.AuditLog(c.Request.Context(), filter)
	if err != nil {
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: entries, Total: total, Page: page, PageSize: pageSize})
}

func (h *AdminHandler) ListContacts(c *gin.Context) {
	page, pageSize := pageParams(c)
	submissions, total, err := h.contacts.List(c.Request.Context(), page, pageSize)
	if err != nil {
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: submissions, Total: total, Page: page, PageSize: pageSize})
}
