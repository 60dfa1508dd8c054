package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-exam-service/internal/model"
)

// StudentRepository resolves student display identities.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetStudentsByIDs returns the known students among ids keyed by id.
func (r *StudentRepository) GetStudentsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Student, error) {
	students := make(map[uuid.UUID]model.Student, len(ids))
	if len(ids) == 0 {
		return students, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, roll_number FROM students WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.RollNumber); err != nil {
			return nil, err
		}
		students[s.ID] = s
	}
	return students, rows.Err()
}

// UpsertStudents writes the identities in one batch round trip.
func (r *StudentRepository) UpsertStudents(ctx context.Context, students []model.Student) error {
	if len(students) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range students {
		batch.Queue(
			`INSERT INTO students (id, name, roll_number) VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, roll_number = EXCLUDED.roll_number`,
			s.ID, s.Name, s.RollNumber)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}
