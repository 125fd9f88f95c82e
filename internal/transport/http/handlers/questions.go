package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/transport/http/middleware"
	"github.com/TheVish04/CAprep/internal/usecase"
)

// QuestionHandler serves the question bank endpoints.
type QuestionHandler struct {
	questions *usecase.QuestionService
	users     *usecase.UserService
}

func NewQuestionHandler(questions *usecase.QuestionService, users *usecase.UserService) *QuestionHandler {
	return &QuestionHandler{questions: questions, users: users}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	return page, pageSize
}

func (h *QuestionHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := domain.QuestionFilter{
		Subject:        c.Query("subject"),
		ExamStage:      c.Query("examStage"),
		Year:           c.Query("year"),
		Month:          c.Query("month"),
		Group:          c.Query("group"),
		PaperNo:        c.Query("paperNo"),
		QuestionNumber: c.Query("questionNumber"),
		Search:         c.Query("search"),
		Page:           page,
		PageSize:       pageSize,
	}

	// bookmarked=true narrows the listing to the caller's bookmarks.
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
		filter.Bookmarked = user.BookmarkedQuestions
		if filter.Bookmarked == nil {
			filter.Bookmarked = []string{}
		}
	}

	questions, total, err := h.questions.List(c.Request.Context(), filter)
	if err != nil {
		respondInternal(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse{Items: questions, Total: total, Page: page, PageSize: pageSize})
}

// Sample serves a randomized quiz drawn from the question bank. Never
// cached, a replayed sample would defeat the point.
func (h *QuestionHandler) Sample(c *gin.Context) {
	count, _ := strconv.Atoi(c.DefaultQuery("count", "0"))
	filter := domain.QuestionFilter{
		Subject:   c.Query("subject"),
		ExamStage: c.Query("examStage"),
		Year:      c.Query("year"),
		PaperNo:   c.Query("paperNo"),
	}

	questions, err := h.questions.RandomSample(c.Request.Context(), filter, count)
	if err != nil {
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (h *QuestionHandler) Get(c *gin.Context) {
	question, err := h.questions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrQuestionNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Question not found")
			return
		}
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) Create(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	question, err := h.questions.Create(c.Request.Context(), req.toDomain())
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidQuestion) {
			respondError(c, http.StatusBadRequest, "INVALID_QUESTION", err.Error())
			return
		}
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

func (h *QuestionHandler) Update(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	question := req.toDomain()
	question.ID = c.Param("id")

	updated, err := h.questions.Update(c.Request.Context(), question)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrQuestionNotFound):
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Question not found")
		case errors.Is(err, usecase.ErrInvalidQuestion):
			respondError(c, http.StatusBadRequest, "INVALID_QUESTION", err.Error())
		default:
			respondInternal(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *QuestionHandler) Delete(c *gin.Context) {
	if err := h.questions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, usecase.ErrQuestionNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Question not found")
			return
		}
		respondInternal(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleBookmark flips a bookmark on the caller's profile.
func (h *QuestionHandler) ToggleBookmark(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	var req bookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	bookmarked, err := h.users.ToggleBookmark(c.Request.Context(), identity.UserID, req.Kind, req.TargetID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
			return
		}
		respondBadRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookmarked": bookmarked})
}
