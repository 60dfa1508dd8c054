package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-exam-service/internal/model"
)

const resultColumns = `id, exam_id, student_id, answers, submitted_at, is_time_up,
	total_questions, correct_answers, earned_points, total_points, percentage_score,
	question_results, graded_at`

// ResultRepository handles exam_results data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// CreateResult inserts a graded result. The unique (exam_id, student_id) key
// turns a second submission into ErrDuplicate without touching the first.
func (r *ResultRepository) CreateResult(ctx context.Context, res *model.ExamResult) error {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	questionResults, err := json.Marshal(res.QuestionResults)
	if err != nil {
		return fmt.Errorf("marshal question results: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO exam_results (id, exam_id, student_id, answers, submitted_at, is_time_up,
		                           total_questions, correct_answers, earned_points, total_points,
		                           percentage_score, question_results, graded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (exam_id, student_id) DO NOTHING
		 RETURNING id`,
		res.ID, res.ExamID, res.StudentID, answers, res.SubmittedAt, res.IsTimeUp,
		res.TotalQuestions, res.CorrectAnswers, res.EarnedPoints, res.TotalPoints,
		res.PercentageScore, questionResults, res.GradedAt,
	).Scan(&res.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicate
	}
	return err
}

func scanResult(row pgx.Row) (*model.ExamResult, error) {
	var (
		res             model.ExamResult
		answers         []byte
		questionResults []byte
	)
	err := row.Scan(&res.ID, &res.ExamID, &res.StudentID, &answers, &res.SubmittedAt, &res.IsTimeUp,
		&res.TotalQuestions, &res.CorrectAnswers, &res.EarnedPoints, &res.TotalPoints,
		&res.PercentageScore, &questionResults, &res.GradedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(answers, &res.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	if err := json.Unmarshal(questionResults, &res.QuestionResults); err != nil {
		return nil, fmt.Errorf("unmarshal question results: %w", err)
	}
	return &res, nil
}

// GetResult retrieves the result for an exam-student pair.
func (r *ResultRepository) GetResult(ctx context.Context, examID, studentID uuid.UUID) (*model.ExamResult, error) {
	return scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM exam_results WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID))
}

// ListResultsByExam retrieves every result of an exam.
func (r *ResultRepository) ListResultsByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamResult, error) {
	return r.list(ctx,
		`SELECT `+resultColumns+` FROM exam_results WHERE exam_id = $1 ORDER BY submitted_at`, examID)
}

// ListResultsByStudent retrieves every result of a student, including results
// of exams that were deleted since.
func (r *ResultRepository) ListResultsByStudent(ctx context.Context, studentID uuid.UUID) ([]model.ExamResult, error) {
	return r.list(ctx,
		`SELECT `+resultColumns+` FROM exam_results WHERE student_id = $1 ORDER BY submitted_at DESC`, studentID)
}

func (r *ResultRepository) list(ctx context.Context, query string, args ...any) ([]model.ExamResult, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []model.ExamResult{}
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}
