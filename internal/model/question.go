package model

import "github.com/google/uuid"

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
)

// Question is a single gradable question as sent with a submission.
// Points defaults to 1 when left at zero.
type Question struct {
	ID            uuid.UUID    `json:"id"`
	Prompt        string       `json:"prompt"`
	Type          QuestionType `json:"type" binding:"omitempty,oneof=multiple_choice true_false short_answer"`
	CorrectAnswer string       `json:"correct_answer"`
	Points        float64      `json:"points" binding:"min=0"`
}
