package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/infra/ai"
	"github.com/TheVish04/CAprep/internal/usecase"
)

// QuizHandler serves AI generated practice quizzes.
type QuizHandler struct {
	quiz *usecase.QuizService
}

func NewQuizHandler(quiz *usecase.QuizService) *QuizHandler {
	return &QuizHandler{quiz: quiz}
}

func (h *QuizHandler) Generate(c *gin.Context) {
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	questions, err := h.quiz.Generate(c.Request.Context(), domain.QuizRequest{
		Subject:    req.Subject,
		ExamStage:  req.ExamStage,
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
		Count:      req.Count,
	})
	if err != nil {
		respondQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// Chat answers a free-form exam preparation question.
func (h *QuizHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	answer, err := h.quiz.Answer(c.Request.Context(), req.Question)
	if err != nil {
		respondQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

func respondQuizError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidQuizRequest):
		respondError(c, http.StatusBadRequest, "INVALID_QUIZ_REQUEST", err.Error())
	case errors.Is(err, ai.ErrNotConfigured):
		respondError(c, http.StatusServiceUnavailable, "QUIZ_UNAVAILABLE", "Quiz generation is not available")
	case errors.Is(err, ai.ErrBadResponse), errors.Is(err, ai.ErrUpstream):
		respondError(c, http.StatusBadGateway, "QUIZ_FAILED", "Quiz generation failed, try again")
	default:
		respondInternal(c, err)
	}
}
