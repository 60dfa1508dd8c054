package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamResult is the graded outcome of one submission. At most one exists per
// (exam, student) pair and it is never modified after creation.
type ExamResult struct {
	ID              uuid.UUID      `json:"id"`
	ExamID          uuid.UUID      `json:"exam_id"`
	StudentID       uuid.UUID      `json:"student_id"`
	Answers         map[int]string `json:"answers"`
	SubmittedAt     time.Time      `json:"submitted_at"`
	IsTimeUp        bool           `json:"is_time_up"`
	TotalQuestions  int            `json:"total_questions"`
	CorrectAnswers  int            `json:"correct_answers"`
	EarnedPoints    float64        `json:"earned_points"`
	TotalPoints     float64        `json:"total_points"`
	PercentageScore float64        `json:"percentage_score"`
	QuestionResults map[int]bool   `json:"question_results"`
	GradedAt        time.Time      `json:"graded_at"`
}

// SubmitAnswersRequest is the payload for submitting a student's answers.
// Answers are keyed by question index in Questions.
type SubmitAnswersRequest struct {
	ExamID    uuid.UUID      `json:"exam_id" binding:"required"`
	StudentID uuid.UUID      `json:"student_id" binding:"required"`
	Answers   map[int]string `json:"answers" binding:"required"`
	Questions []Question     `json:"questions" binding:"required,dive"`
	IsTimeUp  bool           `json:"is_time_up"`
}

// SubmitAnswersResponse is the grading summary returned to the submitter.
type SubmitAnswersResponse struct {
	ResultID        uuid.UUID `json:"result_id"`
	TotalQuestions  int       `json:"total_questions"`
	CorrectAnswers  int       `json:"correct_answers"`
	EarnedPoints    float64   `json:"earned_points"`
	TotalPoints     float64   `json:"total_points"`
	PercentageScore float64   `json:"percentage_score"`
}
