package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/core/port"
)

// ErrInvalidQuizRequest is returned for a rejected quiz request.
var ErrInvalidQuizRequest = errors.New("invalid quiz request")

// QuizService generates practice quizzes on demand. Quiz responses are
// never cached; each request produces a fresh set of questions.
type QuizService struct {
	generator port.QuizGenerator
	logger    *zap.Logger
}

func NewQuizService(generator port.QuizGenerator, log *zap.Logger) *QuizService {
	return &QuizService{generator: generator, logger: log}
}

func (s *QuizService) Generate(ctx context.Context, req domain.QuizRequest) ([]domain.QuizQuestion, error) {
	if strings.TrimSpace(req.Subject) == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidQuizRequest)
	}
	if req.Count < 1 || req.Count > 10 {
		return nil, fmt.Errorf("%w: count must be between 1 and 10", ErrInvalidQuizRequest)
	}

	questions, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	s.logger.Info("quiz generated",
		zap.String("subject", req.Subject),
		zap.Int("questions", len(questions)),
	)
	return questions, nil
}

// Answer fields a free-form exam preparation question.
func (s *QuizService) Answer(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is required", ErrInvalidQuizRequest)
	}

	answer, err := s.generator.Answer(ctx, question)
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	return answer, nil
}
