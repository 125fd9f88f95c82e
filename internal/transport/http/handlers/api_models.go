// Package handlers holds the gin HTTP handlers. Each handler binds and
// validates its request body, calls one usecase, and maps the outcome onto
// the wire format.
package handlers

import (
	"time"

	"github.com/TheVish04/CAprep/internal/core/domain"
)

type sendOTPRequest struct {
	Email   string `json:"email" binding:"required"`
	Purpose string `json:"purpose"`
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type registerRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type tokenResponse struct {
	Token        string        `json:"token"`
	RefreshToken string        `json:"refreshToken,omitempty"`
	User         *userResponse `json:"user,omitempty"`
}

type userResponse struct {
	ID                  string    `json:"id"`
	FullName            string    `json:"fullName"`
	Email               string    `json:"email"`
	Role                string    `json:"role"`
	BookmarkedQuestions []string  `json:"bookmarkedQuestions"`
	BookmarkedResources []string  `json:"bookmarkedResources"`
	CreatedAt           time.Time `json:"createdAt"`
}

func newUserResponse(user *domain.User) *userResponse {
	return &userResponse{
		ID:                  user.ID,
		FullName:            user.FullName,
		Email:               user.Email,
		Role:                user.Role,
		BookmarkedQuestions: user.BookmarkedQuestions,
		BookmarkedResources: user.BookmarkedResources,
		CreatedAt:           user.CreatedAt,
	}
}

type questionRequest struct {
	Subject        string               `json:"subject" binding:"required"`
	ExamStage      string               `json:"examStage" binding:"required"`
	Year           string               `json:"year"`
	Month          string               `json:"month"`
	Group          string               `json:"group"`
	PaperNo        string               `json:"paperNo"`
	QuestionNumber string               `json:"questionNumber"`
	QuestionText   string               `json:"questionText" binding:"required"`
	AnswerText     string               `json:"answerText"`
	PageNumber     string               `json:"pageNumber"`
	SubQuestions   []domain.SubQuestion `json:"subQuestions"`
}

func (r *questionRequest) toDomain() *domain.Question {
	return &domain.Question{
		Subject:        r.Subject,
		ExamStage:      r.ExamStage,
		Year:           r.Year,
		Month:          r.Month,
		Group:          r.Group,
		PaperNo:        r.PaperNo,
		QuestionNumber: r.QuestionNumber,
		QuestionText:   r.QuestionText,
		AnswerText:     r.AnswerText,
		PageNumber:     r.PageNumber,
		SubQuestions:   r.SubQuestions,
	}
}

type announcementRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

type quizRequest struct {
	Subject    string `json:"subject" binding:"required"`
	ExamStage  string `json:"examStage"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

type chatRequest struct {
	Question string `json:"question" binding:"required"`
}

type broadcastRequest struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
}

type bookmarkRequest struct {
	Kind     string `json:"kind" binding:"required"`
	TargetID string `json:"targetId" binding:"required"`
}

type listResponse struct {
	Items    any `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}
