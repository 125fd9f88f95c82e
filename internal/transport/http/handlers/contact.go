package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/usecase"
)

// ContactHandler serves the public contact form.
type ContactHandler struct {
	contacts *usecase.ContactService
}

func NewContactHandler(contacts *usecase.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

func (h *ContactHandler) Submit(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	submission := &domain.ContactSubmission{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := h.contacts.Submit(c.Request.Context(), submission); err != nil {
		if errors.Is(err, usecase.ErrInvalidSubmission) {
			respondError(c, http.StatusBadRequest, "INVALID_SUBMISSION", err.Error())
			return
		}
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Thanks for reaching out. We will get back to you soon."})
}
