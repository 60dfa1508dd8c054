package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus is the administrative status of an exam, set by staff.
// It is unrelated to the exam's time window, which is always computed.
type ExamStatus string

const (
	ExamStatusScheduled ExamStatus = "scheduled"
	ExamStatusDelayed   ExamStatus = "delayed"
	ExamStatusCancelled ExamStatus = "cancelled"
	ExamStatusCompleted ExamStatus = "completed"
)

// Valid reports whether s is one of the known administrative statuses.
func (s ExamStatus) Valid() bool {
	switch s {
	case ExamStatusScheduled, ExamStatusDelayed, ExamStatusCancelled, ExamStatusCompleted:
		return true
	}
	return false
}

// Difficulty labels an exam for display purposes.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

const (
	DefaultDifficulty  = DifficultyMedium
	DefaultMaxStudents = 30
)

// Exam represents an exam entity.
type Exam struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	Subject         string      `json:"subject"`
	Description     string      `json:"description"`
	Difficulty      Difficulty  `json:"difficulty"`
	ScheduledAt     time.Time   `json:"scheduled_at"`
	DurationMinutes int         `json:"duration_minutes"`
	MaxStudents     int         `json:"max_students"`
	Status          ExamStatus  `json:"status"`
	CreatorID       *uuid.UUID  `json:"creator_id,omitempty"`
	QuestionIDs     []uuid.UUID `json:"question_ids"`
	IsDummy         bool        `json:"is_dummy"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// EndsAt returns the instant the exam window closes.
func (e *Exam) EndsAt() time.Time {
	return e.ScheduledAt.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string      `json:"title" binding:"required,notblank,max=255"`
	Subject         string      `json:"subject" binding:"omitempty,max=255"`
	Description     string      `json:"description" binding:"omitempty,max=5000"`
	Difficulty      Difficulty  `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	ScheduledAt     *time.Time  `json:"scheduled_at" binding:"required"`
	DurationMinutes int         `json:"duration_minutes" binding:"required,min=1"`
	MaxStudents     int         `json:"max_students" binding:"omitempty,min=1"`
	Status          ExamStatus  `json:"status"`
	CreatorID       *uuid.UUID  `json:"creator_id" binding:"omitempty"`
	QuestionIDs     []uuid.UUID `json:"question_ids" binding:"omitempty"`
	IsDummy         bool        `json:"is_dummy"`
}

// UpdateExamRequest is the payload for a partial exam update.
// Nil fields are left untouched; status is changed only through UpdateExamStatusRequest.
type UpdateExamRequest struct {
	Title           *string      `json:"title" binding:"omitempty,notblank,max=255"`
	Subject         *string      `json:"subject" binding:"omitempty,max=255"`
	Description     *string      `json:"description" binding:"omitempty,max=5000"`
	Difficulty      *Difficulty  `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	ScheduledAt     *time.Time   `json:"scheduled_at" binding:"omitempty"`
	DurationMinutes *int         `json:"duration_minutes" binding:"omitempty,min=1"`
	MaxStudents     *int         `json:"max_students" binding:"omitempty,min=1"`
	QuestionIDs     *[]uuid.UUID `json:"question_ids" binding:"omitempty"`
	IsDummy         *bool        `json:"is_dummy" binding:"omitempty"`
}

// UpdateExamStatusRequest is the payload for changing the administrative status.
// NewDate is mandatory when moving to delayed.
type UpdateExamStatusRequest struct {
	Status  ExamStatus `json:"status" binding:"required"`
	NewDate *time.Time `json:"new_date" binding:"omitempty"`
}

// ListExamsQuery filters the exam list.
type ListExamsQuery struct {
	CreatorID string `form:"creator_id" binding:"omitempty,uuid"`
}
