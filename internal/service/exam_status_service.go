package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-exam-service/internal/model"
	"github.com/stemsi/exstem-exam-service/internal/repository"
	"github.com/stemsi/exstem-exam-service/internal/sessionclock"
)

// StudentSession is the derived status of one assigned student.
type StudentSession struct {
	StudentID         uuid.UUID           `json:"student_id"`
	StudentName       string              `json:"student_name"`
	StudentRollNumber string              `json:"student_roll_number"`
	SessionStatus     sessionclock.Status `json:"session_status"`
	StartedAt         *time.Time          `json:"started_at"`
	RemainingTime     *int64              `json:"remaining_time"`
	AssignedAt        time.Time           `json:"assigned_at"`
	Score             *float64            `json:"score"`
	PercentageScore   *float64            `json:"percentage_score"`
	CompletedAt       *time.Time          `json:"completed_at"`
}

// ExamStatusDocument is the live status of an exam and all its students.
type ExamStatusDocument struct {
	ExamID        uuid.UUID                `json:"exam_id"`
	ExamTitle     string                   `json:"exam_title"`
	ExamStatus    model.ExamStatus         `json:"exam_status"`
	ExamState     sessionclock.WindowState `json:"exam_state"`
	ExamStartTime time.Time                `json:"exam_start_time"`
	ExamEndTime   time.Time                `json:"exam_end_time"`
	ExamDuration  int                      `json:"exam_duration"`
	CurrentTime   time.Time                `json:"current_time"`
	Students      []StudentSession         `json:"students"`
}

// ExamStatusService aggregates window state and per-student sessions.
type ExamStatusService struct {
	exams       repository.ExamStore
	assignments repository.AssignmentStore
	results     repository.ResultStore
	students    repository.StudentDirectory
	now         Clock
}

// NewExamStatusService creates a new ExamStatusService.
func NewExamStatusService(stores repository.Stores) *ExamStatusService {
	return &ExamStatusService{
		exams:       stores.Exams,
		assignments: stores.Assignments,
		results:     stores.Results,
		students:    stores.Students,
		now:         SystemClock,
	}
}

// GetExamStatus computes the exam's window state and each assigned student's
// session status against a single instant.
func (s *ExamStatusService) GetExamStatus(ctx context.Context, examID uuid.UUID) (*ExamStatusDocument, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		return nil, examErr(err)
	}

	assignments, err := s.assignments.ListAssignmentsByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	results, err := s.results.ListResultsByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	students, err := s.students.GetStudentsByIDs(ctx, studentIDs(assignments))
	if err != nil {
		return nil, fmt.Errorf("get students: %w", err)
	}

	resultByStudent := make(map[uuid.UUID]model.ExamResult, len(results))
	for _, r := range results {
		resultByStudent[r.StudentID] = r
	}

	now := s.now()
	schedule := sessionclock.Schedule{ScheduledAt: exam.ScheduledAt, DurationMinutes: exam.DurationMinutes}
	window := schedule.Window(now)

	doc := &ExamStatusDocument{
		ExamID:        exam.ID,
		ExamTitle:     exam.Title,
		ExamStatus:    exam.Status,
		ExamState:     window,
		ExamStartTime: exam.ScheduledAt,
		ExamEndTime:   schedule.End(),
		ExamDuration:  exam.DurationMinutes,
		CurrentTime:   now,
		Students:      make([]StudentSession, 0, len(assignments)),
	}

	for _, a := range assignments {
		result, graded := resultByStudent[a.StudentID]
		session := schedule.Session(window, a.StartedAt, graded, now)

		entry := StudentSession{
			StudentID:     a.StudentID,
			StudentName:   UnknownStudentName,
			SessionStatus: session.Status,
			StartedAt:     a.StartedAt,
			RemainingTime: session.Remaining,
			AssignedAt:    a.AssignedAt,
		}
		if st, ok := students[a.StudentID]; ok {
			entry.StudentName = st.Name
			entry.StudentRollNumber = st.RollNumber
		}
		if graded {
			score, pct, at := result.EarnedPoints, result.PercentageScore, result.SubmittedAt
			entry.Score = &score
			entry.PercentageScore = &pct
			entry.CompletedAt = &at
		}
		doc.Students = append(doc.Students, entry)
	}
	return doc, nil
}
