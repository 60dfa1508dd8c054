// Package repository defines the record-store capabilities the exam services
// depend on, with a PostgreSQL implementation in this package and MongoDB and
// in-memory implementations in sub-packages.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-exam-service/internal/model"
)

// Store-level errors. Implementations translate driver errors into these.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// ExamStore persists exams.
type ExamStore interface {
	CreateExam(ctx context.Context, e *model.Exam) error
	GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	// ListExams returns exams newest first, optionally only those created by creatorID.
	ListExams(ctx context.Context, creatorID *uuid.UUID) ([]model.Exam, error)
	// ListExamsByIDs returns the exams that exist among ids, latest scheduled first.
	ListExamsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Exam, error)
	// UpdateExam writes every editable field of e except Status.
	UpdateExam(ctx context.Context, e *model.Exam) error
	// UpdateExamStatus sets the administrative status and, when scheduledAt is
	// non-nil, the new schedule. It returns the updated exam.
	UpdateExamStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus, scheduledAt *time.Time) (*model.Exam, error)
	// DeleteExam removes the exam together with all of its assignments and
	// reports how many assignments were removed. Results are kept.
	DeleteExam(ctx context.Context, id uuid.UUID) (int64, error)
}

// AssignmentStore persists exam/student links and session starts.
type AssignmentStore interface {
	// CreateAssignment inserts a unless the pair already exists, in which case
	// it reports created=false and leaves the stored row untouched.
	CreateAssignment(ctx context.Context, a *model.Assignment) (created bool, err error)
	GetAssignment(ctx context.Context, examID, studentID uuid.UUID) (*model.Assignment, error)
	DeleteAssignment(ctx context.Context, examID, studentID uuid.UUID) error
	// StartAssignment sets started_at to at only if it is still unset, in a
	// single conditional write, and returns the stored value either way.
	// started reports whether this call was the one that set it.
	StartAssignment(ctx context.Context, examID, studentID uuid.UUID, at time.Time) (startedAt time.Time, started bool, err error)
	ListAssignmentsByExam(ctx context.Context, examID uuid.UUID) ([]model.Assignment, error)
	ListAssignmentsByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Assignment, error)
}

// ResultStore persists graded results. Results are create-only.
type ResultStore interface {
	// CreateResult returns ErrDuplicate when the pair already has a result.
	CreateResult(ctx context.Context, r *model.ExamResult) error
	GetResult(ctx context.Context, examID, studentID uuid.UUID) (*model.ExamResult, error)
	ListResultsByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamResult, error)
	ListResultsByStudent(ctx context.Context, studentID uuid.UUID) ([]model.ExamResult, error)
}

// StudentDirectory resolves student display identities. Unknown ids are
// simply absent from the returned map.
type StudentDirectory interface {
	GetStudentsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Student, error)
	// UpsertStudents inserts or replaces display identities by id.
	UpsertStudents(ctx context.Context, students []model.Student) error
}

// EventSink appends exam activity events.
type EventSink interface {
	InsertEvents(ctx context.Context, events []model.ExamEvent) error
}

// Stores bundles one implementation of every capability.
type Stores struct {
	Exams       ExamStore
	Assignments AssignmentStore
	Results     ResultStore
	Students    StudentDirectory
	Events      EventSink
}
