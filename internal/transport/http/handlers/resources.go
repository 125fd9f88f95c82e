package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/transport/http/middleware"
	"github.com/TheVish04/CAprep/internal/usecase"
)

// ResourceHandler serves the study material endpoints.
type ResourceHandler struct {
	resources *usecase.ResourceService
	users     *usecase.UserService
}

func NewResourceHandler(resources *usecase.ResourceService, users *usecase.UserService) *ResourceHandler {
	return &ResourceHandler{resources: resources, users: users}
}

func (h *ResourceHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := domain.ResourceFilter{
		Subject:   c.Query("subject"),
		ExamStage: c.Query("examStage"),
		Year:      c.Query("year"),
		Month:     c.Query("month"),
		PaperNo:   c.Query("paperNo"),
		Search:    c.Query("search"),
		Page:      page,
		PageSize:  pageSize,
	}

	if c.Query("bookmarked") == "true" {
		identity, ok := middleware.IdentityFrom(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
			return
		}
		user, err := h.users.Get(c.Request.Context(), identity.UserID)
		if err != nil {
			respondInternal(c, err)
			return
		}
		filter.Bookmarked = user.BookmarkedResources
		if filter.Bookmarked == nil {
			filter.Bookmarked = []string{}
		}
	}

	resources, total, err := h.resources.List(c.Request.Context(), filter)
	if err != nil {
		respondInternal(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse{Items: resources, Total: total, Page: page, PageSize: pageSize})
}

func (h *ResourceHandler) Get(c *gin.Context) {
	resource, err := h.resources.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrResourceNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, resource)
}

// Download redirects to a short lived presigned URL for the PDF.
func (h *ResourceHandler) Download(c *gin.Context) {
	url, err := h.resources.DownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrResourceNotFound):
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		case errors.Is(err, usecase.ErrStorageDisabled):
			respondError(c, http.StatusServiceUnavailable, "STORAGE_DISABLED", "File storage is not available")
		default:
			respondInternal(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Upload accepts a multipart form with a "file" part plus metadata fields.
func (h *ResourceHandler) Upload(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "A file part named \"file\" is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondInternal(c, err)
		return
	}
	defer file.Close()

	resource := &domain.Resource{
		Title:      c.PostForm("title"),
		Subject:    c.PostForm("subject"),
		ExamStage:  c.PostForm("examStage"),
		Year:       c.PostForm("year"),
		Month:      c.PostForm("month"),
		PaperNo:    c.PostForm("paperNo"),
		UploadedBy: identity.UserID,
	}

	created, err := h.resources.Upload(c.Request.Context(), resource, file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidResource):
			respondError(c, http.StatusBadRequest, "INVALID_RESOURCE", err.Error())
		case errors.Is(err, usecase.ErrStorageDisabled):
			respondError(c, http.StatusServiceUnavailable, "STORAGE_DISABLED", "File storage is not available")
		default:
			respondInternal(c, err)
		}
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ResourceHandler) Update(c *gin.Context) {
	var req struct {
		Title     string `json:"title" binding:"required"`
		Subject   string `json:"subject" binding:"required"`
		ExamStage string `json:"examStage"`
		Year      string `json:"year"`
		Month     string `json:"month"`
		PaperNo   string `json:"paperNo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resource := &domain.Resource{
		ID:        c.Param("id"),
		Title:     req.Title,
		Subject:   req.Subject,
		ExamStage: req.ExamStage,
		Year:      req.Year,
		Month:     req.Month,
		PaperNo:   req.PaperNo,
	}

	updated, err := h.resources.Update(c.Request.Context(), resource)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrResourceNotFound):
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		case errors.Is(err, usecase.ErrInvalidResource):
			respondError(c, http.StatusBadRequest, "INVALID_RESOURCE", err.Error())
		default:
			respondInternal(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *ResourceHandler) Delete(c *gin.Context) {
	if err := h.resources.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, usecase.ErrResourceNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		respondInternal(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
