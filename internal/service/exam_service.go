package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-exam-service/internal/model"
	"github.com/stemsi/exstem-exam-service/internal/repository"
)

// DeleteSummary reports what a cascading exam delete removed.
type DeleteSummary struct {
	ExamID             uuid.UUID `json:"exam_id"`
	DeletedAssignments int64     `json:"deleted_assignments"`
}

// ExamService owns exam records and their administrative status.
type ExamService struct {
	exams repository.ExamStore
}

// NewExamService creates a new ExamService.
func NewExamService(exams repository.ExamStore) *ExamService {
	return &ExamService{exams: exams}
}

// Create validates and inserts a new exam. Status defaults to scheduled.
func (s *ExamService) Create(ctx context.Context, req model.CreateExamRequest) (*model.Exam, error) {
	if req.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if req.ScheduledAt == nil || req.ScheduledAt.IsZero() {
		return nil, ErrInvalidSchedule
	}

	status := req.Status
	if status == "" {
		status = model.ExamStatusScheduled
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = model.DefaultDifficulty
	}
	maxStudents := req.MaxStudents
	if maxStudents <= 0 {
		maxStudents = model.DefaultMaxStudents
	}
	questionIDs := req.QuestionIDs
	if questionIDs == nil {
		questionIDs = []uuid.UUID{}
	}

	exam := &model.Exam{
		Title:           req.Title,
		Subject:         req.Subject,
		Description:     req.Description,
		Difficulty:      difficulty,
		ScheduledAt:     normalize(*req.ScheduledAt),
		DurationMinutes: req.DurationMinutes,
		MaxStudents:     maxStudents,
		Status:          status,
		CreatorID:       req.CreatorID,
		QuestionIDs:     questionIDs,
		IsDummy:         req.IsDummy,
	}
	if err := s.exams.CreateExam(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	return exam, nil
}

// Get retrieves an exam by id.
func (s *ExamService) Get(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetExam(ctx, id)
	if err != nil {
		return nil, examErr(err)
	}
	return exam, nil
}

// List returns exams newest first, optionally only those of one creator.
func (s *ExamService) List(ctx context.Context, creatorID *uuid.UUID) ([]model.Exam, error) {
	exams, err := s.exams.ListExams(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

// Update applies a partial update. Status is never changed here.
func (s *ExamService) Update(ctx context.Context, id uuid.UUID, req model.UpdateExamRequest) (*model.Exam, error) {
	if req.DurationMinutes != nil && *req.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if req.ScheduledAt != nil && req.ScheduledAt.IsZero() {
		return nil, ErrInvalidSchedule
	}

	exam, err := s.exams.GetExam(ctx, id)
	if err != nil {
		return nil, examErr(err)
	}

	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Subject != nil {
		exam.Subject = *req.Subject
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.Difficulty != nil {
		exam.Difficulty = *req.Difficulty
	}
	if req.ScheduledAt != nil {
		exam.ScheduledAt = normalize(*req.ScheduledAt)
	}
	if req.DurationMinutes != nil {
		exam.DurationMinutes = *req.DurationMinutes
	}
	if req.MaxStudents != nil {
		exam.MaxStudents = *req.MaxStudents
	}
	if req.QuestionIDs != nil {
		exam.QuestionIDs = *req.QuestionIDs
	}
	if req.IsDummy != nil {
		exam.IsDummy = *req.IsDummy
	}

	if err := s.exams.UpdateExam(ctx, exam); err != nil {
		return nil, examErr(err)
	}
	return exam, nil
}

// SetStatus moves the exam to any administrative status. Moving to delayed
// requires newDate, which replaces scheduled_at. A date sent with any other
// status is ignored.
func (s *ExamService) SetStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus, newDate *time.Time) (*model.Exam, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var scheduledAt *time.Time
	if status == model.ExamStatusDelayed {
		if newDate == nil || newDate.IsZero() {
			return nil, ErrInvalidSchedule
		}
		t := normalize(*newDate)
		scheduledAt = &t
	}

	exam, err := s.exams.UpdateExamStatus(ctx, id, status, scheduledAt)
	if err != nil {
		return nil, examErr(err)
	}
	return exam, nil
}

// Delete removes the exam and every assignment of it. Results are kept.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) (*DeleteSummary, error) {
	removed, err := s.exams.DeleteExam(ctx, id)
	if err != nil {
		return nil, examErr(err)
	}
	return &DeleteSummary{ExamID: id, DeletedAssignments: removed}, nil
}

// examErr translates a store miss into ErrExamNotFound and wraps anything else.
func examErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrExamNotFound
	}
	return fmt.Errorf("exam store: %w", err)
}
