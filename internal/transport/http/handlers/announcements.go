package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/transport/http/middleware"
	"github.com/TheVish04/CAprep/internal/usecase"
)

// AnnouncementHandler serves the announcement endpoints.
type AnnouncementHandler struct {
	announcements *usecase.AnnouncementService
}

func NewAnnouncementHandler(announcements *usecase.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements}
}

func (h *AnnouncementHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	announcements, total, err := h.announcements.List(c.Request.Context(), page, pageSize)
	if err != nil {
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: announcements, Total: total, Page: page, PageSize: pageSize})
}

func (h *AnnouncementHandler) Get(c *gin.Context) {
	announcement, err := h.announcements.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrAnnouncementNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Announcement not found")
			return
		}
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, announcement)
}

func (h *AnnouncementHandler) Create(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	announcement := &domain.Announcement{
		Title:     req.Title,
		Content:   req.Content,
		CreatedBy: identity.UserID,
	}
	created, err := h.announcements.Create(c.Request.Context(), announcement)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidAnnouncement) {
			respondError(c, http.StatusBadRequest, "INVALID_ANNOUNCEMENT", err.Error())
			return
		}
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *AnnouncementHandler) Update(c *gin.Context) {
	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	announcement := &domain.Announcement{
		ID:      c.Param("id"),
		Title:   req.Title,
		Content: req.Content,
	}
	updated, err := h.announcements.Update(c.Request.Context(), announcement)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrAnnouncementNotFound):
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Announcement not found")
		case errors.Is(err, usecase.ErrInvalidAnnouncement):
			respondError(c, http.StatusBadRequest, "INVALID_ANNOUNCEMENT", err.Error())
		default:
			respondInternal(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.announcements.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, usecase.ErrAnnouncementNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Announcement not found")
			return
		}
		respondInternal(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
