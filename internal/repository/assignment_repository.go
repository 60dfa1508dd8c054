package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-exam-service/internal/model"
)

// AssignmentRepository handles exam_assignments data access.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// CreateAssignment links a student to an exam. A concurrent or repeated insert
// for the same pair is absorbed by ON CONFLICT and reported as created=false,
// with a overwritten by the stored row.
func (r *AssignmentRepository) CreateAssignment(ctx context.Context, a *model.Assignment) (bool, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exam_assignments (exam_id, student_id, assigned_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (exam_id, student_id) DO NOTHING
		 RETURNING assigned_at`,
		a.ExamID, a.StudentID, a.AssignedAt,
	).Scan(&a.AssignedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	existing, err := r.GetAssignment(ctx, a.ExamID, a.StudentID)
	if err != nil {
		return false, err
	}
	*a = *existing
	return false, nil
}

// GetAssignment retrieves the assignment for an exam-student pair.
func (r *AssignmentRepository) GetAssignment(ctx context.Context, examID, studentID uuid.UUID) (*model.Assignment, error) {
	a := &model.Assignment{}
	err := r.pool.QueryRow(ctx,
		`SELECT exam_id, student_id, assigned_at, started_at
		 FROM exam_assignments
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	).Scan(&a.ExamID, &a.StudentID, &a.AssignedAt, &a.StartedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAssignment removes the link between a student and an exam.
func (r *AssignmentRepository) DeleteAssignment(ctx context.Context, examID, studentID uuid.UUID) error {
	cmdTag, err := r.pool.Exec(ctx,
		`DELETE FROM exam_assignments WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// StartAssignment records the session start once. The row lock taken by UPDATE
// serializes racing starts and the started_at IS NULL guard is re-checked
// after the lock, so only the first caller matches. Later callers read the
// winner's timestamp.
func (r *AssignmentRepository) StartAssignment(ctx context.Context, examID, studentID uuid.UUID, at time.Time) (time.Time, bool, error) {
	var startedAt time.Time
	err := r.pool.QueryRow(ctx,
		`UPDATE exam_assignments
		 SET started_at = $3
		 WHERE exam_id = $1 AND student_id = $2 AND started_at IS NULL
		 RETURNING started_at`,
		examID, studentID, at,
	).Scan(&startedAt)
	if err == nil {
		return startedAt, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, err
	}

	var existing *time.Time
	err = r.pool.QueryRow(ctx,
		`SELECT started_at FROM exam_assignments WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID,
	).Scan(&existing)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, ErrNotFound
	}
	if err != nil {
		return time.Time{}, false, err
	}
	if existing == nil {
		return time.Time{}, false, fmt.Errorf("assignment %s/%s has no start after conditional write", examID, studentID)
	}
	return *existing, false, nil
}

// ListAssignmentsByExam retrieves every assignment of an exam.
func (r *AssignmentRepository) ListAssignmentsByExam(ctx context.Context, examID uuid.UUID) ([]model.Assignment, error) {
	return r.list(ctx,
		`SELECT exam_id, student_id, assigned_at, started_at
		 FROM exam_assignments
		 WHERE exam_id = $1
		 ORDER BY assigned_at`, examID)
}

// ListAssignmentsByStudent retrieves every assignment of a student.
func (r *AssignmentRepository) ListAssignmentsByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Assignment, error) {
	return r.list(ctx,
		`SELECT exam_id, student_id, assigned_at, started_at
		 FROM exam_assignments
		 WHERE student_id = $1
		 ORDER BY assigned_at DESC`, studentID)
}

func (r *AssignmentRepository) list(ctx context.Context, query string, args ...any) ([]model.Assignment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := []model.Assignment{}
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ExamID, &a.StudentID, &a.AssignedAt, &a.StartedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
