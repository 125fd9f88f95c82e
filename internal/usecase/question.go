package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/repository"
)

var (
	// ErrQuestionNotFound is returned for an unknown question ID.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidQuestion is returned for a question failing validation.
	ErrInvalidQuestion = errors.New("invalid question")
)

// QuestionService manages the exam question bank. Mutations invalidate the
// question listings in the response cache.
type QuestionService struct {
	questions port.QuestionRepository
	cache     port.ResponseCache
	logger    *zap.Logger
	now       func() time.Time
}

func NewQuestionService(questions port.QuestionRepository, cache port.ResponseCache, log *zap.Logger) *QuestionService {
	return &QuestionService{
		questions: questions,
		cache:     cache,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock overrides the service's time source. Test helper.
func (s *QuestionService) WithClock(now func() time.Time) *QuestionService {
	s.now = now
	return s
}

func validateQuestion(q *domain.Question) error {
	if strings.TrimSpace(q.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidQuestion)
	}
	if strings.TrimSpace(q.ExamStage) == "" {
		return fmt.Errorf("%w: exam stage is required", ErrInvalidQuestion)
	}
	if strings.TrimSpace(q.QuestionText) == "" {
		return fmt.Errorf("%w: question text is required", ErrInvalidQuestion)
	}
	for i, sub := range q.SubQuestions {
		correct := 0
		for _, opt := range sub.SubOptions {
			if opt.IsCorrect {
				correct++
			}
		}
		if len(sub.SubOptions) > 0 && correct != 1 {
			return fmt.Errorf("%w: sub question %d needs exactly one correct option", ErrInvalidQuestion, i)
		}
	}
	return nil
}

func (s *QuestionService) Create(ctx context.Context, question *domain.Question) (*domain.Question, error) {
	if err := validateQuestion(question); err != nil {
		return nil, err
	}

	now := s.now()
	question.ID = uuid.NewString()
	question.CreatedAt = now
	question.UpdatedAt = now

	if err := s.questions.Create(ctx, question); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	s.cache.Invalidate("/api/questions")
	s.logger.Info("question created", zap.String("question_id", question.ID))
	return question, nil
}

func (s *QuestionService) Get(ctx context.Context, id string) (*domain.Question, error) {
	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("load question: %w", err)
	}
	return question, nil
}

func (s *QuestionService) Update(ctx context.Context, question *domain.Question) (*domain.Question, error) {
	if err := validateQuestion(question); err != nil {
		return nil, err
	}

	question.UpdatedAt = s.now()
	if err := s.questions.Update(ctx, question); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("update question: %w", err)
	}

	s.cache.Invalidate("/api/questions")
	return question, nil
}

func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if err := s.questions.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}

	s.cache.Invalidate("/api/questions")
	s.logger.Info("question deleted", zap.String("question_id", id))
	return nil
}

func (s *QuestionService) List(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, int, error) {
	questions, total, err := s.questions.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}
	return questions, total, nil
}

const (
	defaultSampleSize = 10
	maxSampleSize     = 50
)

// RandomSample draws count questions matching the filter in random order.
// The result changes per call, so callers must not cache it.
func (s *QuestionService) RandomSample(ctx context.Context, filter domain.QuestionFilter, count int) ([]domain.Question, error) {
	if count <= 0 {
		count = defaultSampleSize
	}
	if count > maxSampleSize {
		count = maxSampleSize
	}

	questions, err := s.questions.RandomSample(ctx, filter, count)
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	return questions, nil
}
