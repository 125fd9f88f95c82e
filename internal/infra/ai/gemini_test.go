package ai

import (
	"errors"
	"testing"
)

func TestParseQuizJSON(t *testing.T) {
	raw := "```json\n[{\"question\":\"What is GST?\",\"options\":[\"A\",\"B\",\"C\",\"D\"],\"answerIndex\":1,\"explanation\":\"because\"}]\n```"

	questions, err := parseQuizJSON(raw)
	if err != nil {
		t.Fatalf("parseQuizJSON() error = %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("parseQuizJSON() returned %d questions, want 1", len(questions))
	}
	if questions[0].AnswerIndex != 1 {
		t.Errorf("AnswerIndex = %d, want 1", questions[0].AnswerIndex)
	}
}

func TestParseQuizJSON_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "no array", text: "sorry, I cannot do that"},
		{name: "answer index out of range", text: `[{"question":"q","options":["a","b"],"answerIndex":5}]`},
		{name: "too few options", text: `[{"question":"q","options":["a"],"answerIndex":0}]`},
		{name: "empty array", text: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseQuizJSON(tt.text); !errors.Is(err, ErrBadResponse) {
				t.Errorf("parseQuizJSON() error = %v, want ErrBadResponse", err)
			}
		})
	}
}
