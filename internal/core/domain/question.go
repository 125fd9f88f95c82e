package domain

import "time"

// Option is a single answer choice on a multiple choice question.
type Option struct {
	OptionText string `json:"optionText"`
	IsCorrect  bool   `json:"isCorrect"`
}

// SubQuestion is an MCQ attached to a descriptive question.
type SubQuestion struct {
	SubQuestionNumber string   `json:"subQuestionNumber"`
	SubQuestionText   string   `json:"subQuestionText"`
	SubOptions        []Option `json:"subOptions"`
}

// Question is a single exam question with its answer and optional MCQs.
type Question struct {
	ID             string        `json:"id"`
	Subject        string        `json:"subject"`
	ExamStage      string        `json:"examStage"`
	Year           string        `json:"year"`
	Month          string        `json:"month"`
	Group          string        `json:"group"`
	PaperNo        string        `json:"paperNo"`
	QuestionNumber string        `json:"questionNumber"`
	QuestionText   string        `json:"questionText"`
	AnswerText     string        `json:"answerText"`
	PageNumber     string        `json:"pageNumber"`
	SubQuestions   []SubQuestion `json:"subQuestions"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// QuestionFilter narrows question listings. Zero valued fields match
// everything.
type QuestionFilter struct {
	Subject        string
	ExamStage      string
	Year           string
	Month          string
	Group          string
	PaperNo        string
	QuestionNumber string
	Search         string
	Bookmarked     []string
	Page           int
	PageSize       int
}
