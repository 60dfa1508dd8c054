package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExamEventType enumerates exam activity log entries.
type ExamEventType string

const (
	EventExamCreated       ExamEventType = "exam_created"
	EventExamUpdated       ExamEventType = "exam_updated"
	EventExamStatusChanged ExamEventType = "exam_status_changed"
	EventExamDeleted       ExamEventType = "exam_deleted"
	EventStudentAssigned   ExamEventType = "student_assigned"
	EventStudentUnassigned ExamEventType = "student_unassigned"
	EventSessionStarted    ExamEventType = "session_started"
	EventAnswersSubmitted  ExamEventType = "answers_submitted"
)

// ExamEvent is an append-only activity record. It feeds the live monitor and
// the exam_events log; it never drives exam state.
type ExamEvent struct {
	ID         uuid.UUID       `json:"id"`
	ExamID     uuid.UUID       `json:"exam_id"`
	StudentID  *uuid.UUID      `json:"student_id,omitempty"`
	Type       ExamEventType   `json:"type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewExamEvent builds an event stamped with a fresh id and the current time.
// payload may be nil.
func NewExamEvent(examID uuid.UUID, studentID *uuid.UUID, typ ExamEventType, payload any) ExamEvent {
	ev := ExamEvent{
		ID:         uuid.New(),
		ExamID:     examID,
		StudentID:  studentID,
		Type:       typ,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			ev.Payload = raw
		}
	}
	return ev
}
