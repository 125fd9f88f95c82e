package domain

// QuizQuestion is a single AI generated multiple choice question.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation"`
}

// QuizRequest describes the quiz a user asked for.
type QuizRequest struct {
	Subject    string
	ExamStage  string
	Topic      string
	Difficulty string
	Count      int
}
