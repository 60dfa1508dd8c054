package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-exam-service/internal/grading"
	"github.com/stemsi/exstem-exam-service/internal/model"
	"github.com/stemsi/exstem-exam-service/internal/repository"
)

// ResultService grades submissions and serves stored results.
type ResultService struct {
	exams   repository.ExamStore
	results repository.ResultStore
	now     Clock
}

// NewResultService creates a new ResultService.
func NewResultService(exams repository.ExamStore, results repository.ResultStore) *ResultService {
	return &ResultService{exams: exams, results: results, now: SystemClock}
}

// Submit grades the answers against the question snapshot sent with them and
// stores the result. A pair that already has a result yields ErrResultExists
// and the stored result is left as it was.
func (s *ResultService) Submit(ctx context.Context, req model.SubmitAnswersRequest) (*model.ExamResult, error) {
	if req.Answers == nil {
		return nil, ErrMissingAnswers
	}
	if req.Questions == nil {
		return nil, ErrMissingQuestions
	}

	if _, err := s.exams.GetExam(ctx, req.ExamID); err != nil {
		return nil, examErr(err)
	}

	questions := make([]grading.Question, len(req.Questions))
	for i, q := range req.Questions {
		questions[i] = grading.Question{CorrectAnswer: q.CorrectAnswer, Points: q.Points}
	}
	graded := grading.Grade(questions, grading.Answers(req.Answers))

	now := s.now()
	result := &model.ExamResult{
		ID:              uuid.New(),
		ExamID:          req.ExamID,
		StudentID:       req.StudentID,
		Answers:         req.Answers,
		SubmittedAt:     now,
		IsTimeUp:        req.IsTimeUp,
		TotalQuestions:  graded.TotalQuestions,
		CorrectAnswers:  graded.CorrectAnswers,
		EarnedPoints:    graded.EarnedPoints,
		TotalPoints:     graded.TotalPoints,
		PercentageScore: graded.PercentageScore,
		QuestionResults: graded.QuestionResults,
		GradedAt:        now,
	}

	if err := s.results.CreateResult(ctx, result); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrResultExists
		}
		return nil, fmt.Errorf("create result: %w", err)
	}
	return result, nil
}

// Get retrieves the result of one student for one exam.
func (s *ResultService) Get(ctx context.Context, examID, studentID uuid.UUID) (*model.ExamResult, error) {
	result, err := s.results.GetResult(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return result, nil
}

// ListForStudent returns every result of a student, newest first.
func (s *ResultService) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]model.ExamResult, error) {
	results, err := s.results.ListResultsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

// ListForExam returns every result of an exam in submission order.
func (s *ResultService) ListForExam(ctx context.Context, examID uuid.UUID) ([]model.ExamResult, error) {
	results, err := s.results.ListResultsByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}
