package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-exam-service/internal/model"
)

// EventRepository appends to the exam_events activity log.
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// InsertEvents writes a batch in a single statement using UNNEST.
// Re-inserting an event id is a no-op, so a requeued batch is safe.
func (r *EventRepository) InsertEvents(ctx context.Context, events []model.ExamEvent) error {
	if len(events) == 0 {
		return nil
	}

	n := len(events)
	ids := make([]uuid.UUID, n)
	examIDs := make([]uuid.UUID, n)
	studentIDs := make([]pgtype.UUID, n)
	types := make([]string, n)
	payloads := make([]string, n)
	occurredAts := make([]time.Time, n)

	for i, ev := range events {
		ids[i] = ev.ID
		examIDs[i] = ev.ExamID
		if ev.StudentID != nil {
			studentIDs[i] = pgtype.UUID{Bytes: *ev.StudentID, Valid: true}
		}
		types[i] = string(ev.Type)
		payloads[i] = "{}"
		if len(ev.Payload) > 0 {
			payloads[i] = string(ev.Payload)
		}
		occurredAts[i] = ev.OccurredAt
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO exam_events (id, exam_id, student_id, type, payload, occurred_at)
		SELECT u.id, u.exam_id, u.student_id, u.type, u.payload::jsonb, u.occurred_at
		FROM UNNEST(
			$1::uuid[],
			$2::uuid[],
			$3::uuid[],
			$4::text[],
			$5::text[],
			$6::timestamptz[]
		) AS u (id, exam_id, student_id, type, payload, occurred_at)
		ON CONFLICT (id) DO NOTHING
	`, ids, examIDs, studentIDs, types, payloads, occurredAts)
	return err
}

// NewPostgresStores wires every PostgreSQL repository onto one pool.
func NewPostgresStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Exams:       NewExamRepository(pool),
		Assignments: NewAssignmentRepository(pool),
		Results:     NewResultRepository(pool),
		Students:    NewStudentRepository(pool),
		Events:      NewEventRepository(pool),
	}
}
