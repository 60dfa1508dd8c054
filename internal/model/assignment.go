package model

import (
	"time"

	"github.com/google/uuid"
)

// Assignment links one student to one exam and carries the session start.
// StartedAt is written once, on the first session start.
type Assignment struct {
	ExamID     uuid.UUID  `json:"exam_id"`
	StudentID  uuid.UUID  `json:"student_id"`
	AssignedAt time.Time  `json:"assigned_at"`
	StartedAt  *time.Time `json:"started_at"`
}

// AssignedStudent is an assignment enriched with the student's display identity.
type AssignedStudent struct {
	Assignment
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
}

// StartSessionResponse is returned after a session start (first or repeated).
type StartSessionResponse struct {
	ExamID    uuid.UUID `json:"exam_id"`
	StudentID uuid.UUID `json:"student_id"`
	StartedAt time.Time `json:"started_at"`
}
