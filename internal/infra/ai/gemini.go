// Package ai generates practice quizzes through the Gemini REST API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/infra/config"
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("ai quiz generation is not configured")
	// ErrBadResponse is returned when the model output cannot be parsed.
	ErrBadResponse = errors.New("unparseable model response")
	// ErrUpstream is returned when the model endpoint fails.
	ErrUpstream = errors.New("model endpoint failure")
)

const generateURLFormat = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// GeminiClient calls the generateContent endpoint and parses the JSON quiz
// out of the model's reply.
type GeminiClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
}

func NewGeminiClient(cfg config.AISettings) *GeminiClient {
	return &GeminiClient{
		apiKey:     cfg.GeminiAPIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// WithBaseURL points the client at a different endpoint. Test helper.
func (c *GeminiClient) WithBaseURL(baseURL string) *GeminiClient {
	c.baseURL = baseURL
	return c
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate asks the model for quiz questions on the requested topic.
func (c *GeminiClient) Generate(ctx context.Context, req domain.QuizRequest) ([]domain.QuizQuestion, error) {
	count := req.Count
	if count < 1 || count > 10 {
		count = 5
	}

	prompt := fmt.Sprintf(
		"Generate %d multiple choice questions for the %s exam stage on the subject %q",
		count, req.ExamStage, req.Subject,
	)
	if req.Topic != "" {
		prompt += fmt.Sprintf(", focused on the topic %q", req.Topic)
	}
	if req.Difficulty != "" {
		prompt += fmt.Sprintf(" at %s difficulty", req.Difficulty)
	}
	prompt += `. Respond with only a JSON array, no prose, where each element is ` +
		`{"question": string, "options": [4 strings], "answerIndex": int, "explanation": string}.`

	text, err := c.generateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseQuizJSON(text)
}

// Answer produces a free-form answer to an exam preparation question.
func (c *GeminiClient) Answer(ctx context.Context, question string) (string, error) {
	prompt := "You are a tutor for Chartered Accountancy exam preparation. " +
		"Answer the following question concisely and accurately:\n\n" + question

	text, err := c.generateText(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (c *GeminiClient) generateText(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	endpoint := c.baseURL
	if endpoint == "" {
		endpoint = fmt.Sprintf(generateURLFormat, c.model)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, payload)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidates", ErrBadResponse)
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// parseQuizJSON extracts the JSON array from the model text, tolerating
// markdown code fences around it.
func parseQuizJSON(text string) ([]domain.QuizQuestion, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array found", ErrBadResponse)
	}

	var questions []domain.QuizQuestion
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: empty quiz", ErrBadResponse)
	}

	for i, q := range questions {
		if q.Question == "" || len(q.Options) < 2 {
			return nil, fmt.Errorf("%w: malformed question at index %d", ErrBadResponse, i)
		}
		if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
			return nil, fmt.Errorf("%w: answer index out of range at %d", ErrBadResponse, i)
		}
	}
	return questions, nil
}
