package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-exam-service/internal/model"
	"github.com/stemsi/exstem-exam-service/internal/repository"
)

// UnknownStudentName is shown for assignments whose student is not in the directory.
const UnknownStudentName = "Unknown"

// AssignmentService links students to exams and records session starts.
type AssignmentService struct {
	exams       repository.ExamStore
	assignments repository.AssignmentStore
	students    repository.StudentDirectory
	now         Clock
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	exams repository.ExamStore,
	assignments repository.AssignmentStore,
	students repository.StudentDirectory,
) *AssignmentService {
	return &AssignmentService{
		exams:       exams,
		assignments: assignments,
		students:    students,
		now:         SystemClock,
	}
}

// Assign links a student to an exam. Assigning an existing pair succeeds with
// created=false and returns the stored assignment.
func (s *AssignmentService) Assign(ctx context.Context, examID, studentID uuid.UUID) (*model.Assignment, bool, error) {
	existing, err := s.assignments.GetAssignment(ctx, examID, studentID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("get assignment: %w", err)
	}

	if _, err := s.exams.GetExam(ctx, examID); err != nil {
		return nil, false, examErr(err)
	}

	a := &model.Assignment{
		ExamID:     examID,
		StudentID:  studentID,
		AssignedAt: s.now(),
	}
	created, err := s.assignments.CreateAssignment(ctx, a)
	if err != nil {
		return nil, false, fmt.Errorf("create assignment: %w", err)
	}
	return a, created, nil
}

// Unassign removes the link between a student and an exam.
func (s *AssignmentService) Unassign(ctx context.Context, examID, studentID uuid.UUID) error {
	if err := s.assignments.DeleteAssignment(ctx, examID, studentID); err != nil {
		return assignmentErr(err)
	}
	return nil
}

// StartSession records the first start of a student's attempt and returns the
// effective start. Later calls return the original start unchanged and report
// started=false.
func (s *AssignmentService) StartSession(ctx context.Context, examID, studentID uuid.UUID) (*model.StartSessionResponse, bool, error) {
	startedAt, started, err := s.assignments.StartAssignment(ctx, examID, studentID, s.now())
	if err != nil {
		return nil, false, assignmentErr(err)
	}
	return &model.StartSessionResponse{
		ExamID:    examID,
		StudentID: studentID,
		StartedAt: startedAt.UTC(),
	}, started, nil
}

// ListAssignedStudents returns every assignment of an exam with the student's
// display identity.
func (s *AssignmentService) ListAssignedStudents(ctx context.Context, examID uuid.UUID) ([]model.AssignedStudent, error) {
	if _, err := s.exams.GetExam(ctx, examID); err != nil {
		return nil, examErr(err)
	}

	assignments, err := s.assignments.ListAssignmentsByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	students, err := s.students.GetStudentsByIDs(ctx, studentIDs(assignments))
	if err != nil {
		return nil, fmt.Errorf("get students: %w", err)
	}

	out := make([]model.AssignedStudent, 0, len(assignments))
	for _, a := range assignments {
		st, ok := students[a.StudentID]
		if !ok {
			st.Name = UnknownStudentName
		}
		out = append(out, model.AssignedStudent{
			Assignment: a,
			Name:       st.Name,
			RollNumber: st.RollNumber,
		})
	}
	return out, nil
}

// ListAssignedExams returns the exams a student is assigned to, latest
// scheduled first.
func (s *AssignmentService) ListAssignedExams(ctx context.Context, studentID uuid.UUID) ([]model.Exam, error) {
	assignments, err := s.assignments.ListAssignmentsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	ids := make([]uuid.UUID, len(assignments))
	for i, a := range assignments {
		ids[i] = a.ExamID
	}
	exams, err := s.exams.ListExamsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

func studentIDs(assignments []model.Assignment) []uuid.UUID {
	ids := make([]uuid.UUID, len(assignments))
	for i, a := range assignments {
		ids[i] = a.StudentID
	}
	return ids
}

func assignmentErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrAssignmentNotFound
	}
	return fmt.Errorf("assignment store: %w", err)
}
