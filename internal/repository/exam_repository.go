package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-exam-service/internal/model"
)

const examColumns = `id, title, subject, description, difficulty, scheduled_at,
	duration_minutes, max_students, status, creator_id, question_ids, is_dummy,
	created_at, updated_at`

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(&e.ID, &e.Title, &e.Subject, &e.Description, &e.Difficulty, &e.ScheduledAt,
		&e.DurationMinutes, &e.MaxStudents, &e.Status, &e.CreatorID, &e.QuestionIDs, &e.IsDummy,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if e.QuestionIDs == nil {
		e.QuestionIDs = []uuid.UUID{}
	}
	return e, nil
}

func collectExams(rows pgx.Rows) ([]model.Exam, error) {
	defer rows.Close()

	exams := []model.Exam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// CreateExam inserts a new exam. ID and audit timestamps are filled in by the database.
func (r *ExamRepository) CreateExam(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, subject, description, difficulty, scheduled_at,
		                    duration_minutes, max_students, status, creator_id, question_ids, is_dummy)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.Subject, e.Description, e.Difficulty, e.ScheduledAt,
		e.DurationMinutes, e.MaxStudents, e.Status, e.CreatorID, nonNilIDs(e.QuestionIDs), e.IsDummy,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetExam retrieves an exam by its UUID.
func (r *ExamRepository) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
}

// ListExams retrieves exams newest first. A nil creatorID lists all exams.
func (r *ExamRepository) ListExams(ctx context.Context, creatorID *uuid.UUID) ([]model.Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exams`
	var args []any
	if creatorID != nil {
		query += ` WHERE creator_id = $1`
		args = append(args, *creatorID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectExams(rows)
}

// ListExamsByIDs retrieves the given exams, latest scheduled first.
func (r *ExamRepository) ListExamsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Exam, error) {
	if len(ids) == 0 {
		return []model.Exam{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = ANY($1::uuid[])
		 ORDER BY scheduled_at DESC`, ids)
	if err != nil {
		return nil, err
	}
	return collectExams(rows)
}

// UpdateExam writes the editable fields. Status is left as stored.
func (r *ExamRepository) UpdateExam(ctx context.Context, e *model.Exam) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE exams
		 SET title = $1, subject = $2, description = $3, difficulty = $4, scheduled_at = $5,
		     duration_minutes = $6, max_students = $7, question_ids = $8, is_dummy = $9,
		     updated_at = NOW()
		 WHERE id = $10
		 RETURNING updated_at`,
		e.Title, e.Subject, e.Description, e.Difficulty, e.ScheduledAt,
		e.DurationMinutes, e.MaxStudents, nonNilIDs(e.QuestionIDs), e.IsDummy, e.ID,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// UpdateExamStatus sets the administrative status, and the schedule when given.
func (r *ExamRepository) UpdateExamStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus, scheduledAt *time.Time) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`UPDATE exams
		 SET status = $1, scheduled_at = COALESCE($2::timestamptz, scheduled_at), updated_at = NOW()
		 WHERE id = $3
		 RETURNING `+examColumns,
		status, scheduledAt, id))
}

// DeleteExam removes the exam and its assignments in one transaction.
// Exam results are not touched.
func (r *ExamRepository) DeleteExam(ctx context.Context, id uuid.UUID) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	assignTag, err := tx.Exec(ctx, `DELETE FROM exam_assignments WHERE exam_id = $1`, id)
	if err != nil {
		return 0, err
	}

	examTag, err := tx.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	if examTag.RowsAffected() == 0 {
		return 0, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return assignTag.RowsAffected(), nil
}

// nonNilIDs keeps NOT NULL uuid[] columns from receiving NULL.
func nonNilIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
