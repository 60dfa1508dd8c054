// Package mongostore implements the repository capabilities on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-exam-service/internal/model"
	"github.com/stemsi/exstem-exam-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	ExamsCollection       = "exams"
	AssignmentsCollection = "exam_assignments"
	ResultsCollection     = "exam_results"
	StudentsCollection    = "students"
	EventsCollection      = "exam_events"
)

// Store holds the collection handles of one database.
type Store struct {
	exams       *mongo.Collection
	assignments *mongo.Collection
	results     *mongo.Collection
	students    *mongo.Collection
	events      *mongo.Collection
}

// New creates a Store over db. Call EnsureIndexes once at startup.
func New(db *mongo.Database) *Store {
	return &Store{
		exams:       db.Collection(ExamsCollection),
		assignments: db.Collection(AssignmentsCollection),
		results:     db.Collection(ResultsCollection),
		students:    db.Collection(StudentsCollection),
		events:      db.Collection(EventsCollection),
	}
}

// Stores exposes s through every repository capability.
func (s *Store) Stores() repository.Stores {
	return repository.Stores{
		Exams:       s,
		Assignments: s,
		Results:     s,
		Students:    s,
		Events:      s,
	}
}

// EnsureIndexes creates the unique pair indexes that back assignment and
// result uniqueness, plus the lookup indexes used by list queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	pair := bson.D{{Key: "exam_id", Value: 1}, {Key: "student_id", Value: 1}}

	if _, err := s.assignments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: pair, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "student_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("assignment indexes: %w", err)
	}
	if _, err := s.results.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: pair, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "student_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("result indexes: %w", err)
	}
	if _, err := s.exams.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "creator_id", Value: 1}, {Key: "created_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("exam indexes: %w", err)
	}
	if _, err := s.events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "exam_id", Value: 1}, {Key: "occurred_at", Value: 1}},
	}); err != nil {
		return fmt.Errorf("event indexes: %w", err)
	}
	return nil
}

func pairFilter(examID, studentID uuid.UUID) bson.M {
	return bson.M{"exam_id": examID.String(), "student_id": studentID.String()}
}

// ─── Exams ───────────────────────────────────────────────────────────

func (s *Store) CreateExam(ctx context.Context, e *model.Exam) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	e.CreatedAt, e.UpdatedAt = now, now
	if e.QuestionIDs == nil {
		e.QuestionIDs = []uuid.UUID{}
	}
	if _, err := s.exams.InsertOne(ctx, toExamDoc(e)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	var doc examDoc
	err := s.exams.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e := doc.model()
	return &e, nil
}

func (s *Store) findExams(ctx context.Context, filter bson.M, sort bson.D) ([]model.Exam, error) {
	cursor, err := s.exams.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	exams := []model.Exam{}
	for cursor.Next(ctx) {
		var doc examDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		exams = append(exams, doc.model())
	}
	return exams, cursor.Err()
}

func (s *Store) ListExams(ctx context.Context, creatorID *uuid.UUID) ([]model.Exam, error) {
	filter := bson.M{}
	if creatorID != nil {
		filter["creator_id"] = creatorID.String()
	}
	return s.findExams(ctx, filter, bson.D{{Key: "created_at", Value: -1}})
}

func (s *Store) ListExamsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Exam, error) {
	if len(ids) == 0 {
		return []model.Exam{}, nil
	}
	return s.findExams(ctx,
		bson.M{"_id": bson.M{"$in": idStrings(ids)}},
		bson.D{{Key: "scheduled_at", Value: -1}})
}

func (s *Store) UpdateExam(ctx context.Context, e *model.Exam) error {
	e.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	doc := toExamDoc(e)
	res, err := s.exams.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{
		"$set": bson.M{
			"title":            doc.Title,
			"subject":          doc.Subject,
			"description":      doc.Description,
			"difficulty":       doc.Difficulty,
			"scheduled_at":     doc.ScheduledAt,
			"duration_minutes": doc.DurationMinutes,
			"max_students":     doc.MaxStudents,
			"creator_id":       doc.CreatorID,
			"question_ids":     doc.QuestionIDs,
			"is_dummy":         doc.IsDummy,
			"updated_at":       doc.UpdatedAt,
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateExamStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus, scheduledAt *time.Time) (*model.Exam, error) {
	set := bson.M{
		"status":     string(status),
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if scheduledAt != nil {
		set["scheduled_at"] = *scheduledAt
	}

	var doc examDoc
	err := s.exams.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e := doc.model()
	return &e, nil
}

// DeleteExam removes the exam document, then its assignments. Results are kept.
// DeleteExam removes the exam document, then sweeps its assignments. The sweep
// runs even when the exam is already gone, so retrying a delete whose sweep
// failed still clears the leftover assignments before reporting ErrNotFound.
func (s *Store) DeleteExam(ctx context.Context, id uuid.UUID) (int64, error) {
	res, err := s.exams.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return 0, err
	}

	assigned, err := s.assignments.DeleteMany(ctx, bson.M{"exam_id": id.String()})
	if err != nil {
		return 0, fmt.Errorf("delete assignments: %w", err)
	}
	if res.DeletedCount == 0 {
		return 0, repository.ErrNotFound
	}
	return assigned.DeletedCount, nil
}

// ─── Assignments ─────────────────────────────────────────────────────

func (s *Store) CreateAssignment(ctx context.Context, a *model.Assignment) (bool, error) {
	doc := assignmentDoc{
		ExamID:     a.ExamID.String(),
		StudentID:  a.StudentID.String(),
		AssignedAt: a.AssignedAt,
		StartedAt:  a.StartedAt,
	}
	_, err := s.assignments.InsertOne(ctx, doc)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, err
	}

	existing, err := s.GetAssignment(ctx, a.ExamID, a.StudentID)
	if err != nil {
		return false, err
	}
	*a = *existing
	return false, nil
}

func (s *Store) GetAssignment(ctx context.Context, examID, studentID uuid.UUID) (*model.Assignment, error) {
	var doc assignmentDoc
	err := s.assignments.FindOne(ctx, pairFilter(examID, studentID)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a := doc.model()
	return &a, nil
}

func (s *Store) DeleteAssignment(ctx context.Context, examID, studentID uuid.UUID) error {
	res, err := s.assignments.DeleteOne(ctx, pairFilter(examID, studentID))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// StartAssignment sets started_at with a filter on started_at being null, so
// only the first writer matches. Later callers fall through to a plain read.
func (s *Store) StartAssignment(ctx context.Context, examID, studentID uuid.UUID, at time.Time) (time.Time, bool, error) {
	filter := pairFilter(examID, studentID)
	filter["started_at"] = nil

	var doc assignmentDoc
	err := s.assignments.FindOneAndUpdate(ctx, filter,
		bson.M{"$set": bson.M{"started_at": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil && doc.StartedAt != nil {
		return doc.StartedAt.UTC(), true, nil
	}
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return time.Time{}, false, err
	}

	existing, err := s.GetAssignment(ctx, examID, studentID)
	if err != nil {
		return time.Time{}, false, err
	}
	if existing.StartedAt == nil {
		return time.Time{}, false, fmt.Errorf("assignment %s/%s has no start after conditional write", examID, studentID)
	}
	return *existing.StartedAt, false, nil
}

func (s *Store) findAssignments(ctx context.Context, filter bson.M, sort bson.D) ([]model.Assignment, error) {
	cursor, err := s.assignments.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []model.Assignment{}
	for cursor.Next(ctx) {
		var doc assignmentDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.model())
	}
	return out, cursor.Err()
}

func (s *Store) ListAssignmentsByExam(ctx context.Context, examID uuid.UUID) ([]model.Assignment, error) {
	return s.findAssignments(ctx, bson.M{"exam_id": examID.String()},
		bson.D{{Key: "assigned_at", Value: 1}})
}

func (s *Store) ListAssignmentsByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Assignment, error) {
	return s.findAssignments(ctx, bson.M{"student_id": studentID.String()},
		bson.D{{Key: "assigned_at", Value: -1}})
}

// ─── Results ─────────────────────────────────────────────────────────

func (s *Store) CreateResult(ctx context.Context, r *model.ExamResult) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if _, err := s.results.InsertOne(ctx, toResultDoc(r)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) GetResult(ctx context.Context, examID, studentID uuid.UUID) (*model.ExamResult, error) {
	var doc resultDoc
	err := s.results.FindOne(ctx, pairFilter(examID, studentID)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r := doc.model()
	return &r, nil
}

func (s *Store) findResults(ctx context.Context, filter bson.M, sort bson.D) ([]model.ExamResult, error) {
	cursor, err := s.results.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []model.ExamResult{}
	for cursor.Next(ctx) {
		var doc resultDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.model())
	}
	return out, cursor.Err()
}

func (s *Store) ListResultsByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamResult, error) {
	return s.findResults(ctx, bson.M{"exam_id": examID.String()},
		bson.D{{Key: "submitted_at", Value: 1}})
}

func (s *Store) ListResultsByStudent(ctx context.Context, studentID uuid.UUID) ([]model.ExamResult, error) {
	return s.findResults(ctx, bson.M{"student_id": studentID.String()},
		bson.D{{Key: "submitted_at", Value: -1}})
}

// ─── Students ────────────────────────────────────────────────────────

func (s *Store) GetStudentsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Student, error) {
	out := make(map[uuid.UUID]model.Student, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cursor, err := s.students.Find(ctx, bson.M{"_id": bson.M{"$in": idStrings(ids)}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc studentDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			continue
		}
		out[id] = model.Student{ID: id, Name: doc.Name, RollNumber: doc.RollNumber}
	}
	return out, cursor.Err()
}

func (s *Store) UpsertStudents(ctx context.Context, students []model.Student) error {
	if len(students) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, len(students))
	for i, st := range students {
		writes[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": st.ID.String()}).
			SetReplacement(studentDoc{ID: st.ID.String(), Name: st.Name, RollNumber: st.RollNumber}).
			SetUpsert(true)
	}
	_, err := s.students.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}

// ─── Events ──────────────────────────────────────────────────────────

// InsertEvents appends a batch. Unordered inserts let the rest of a requeued
// batch land when some ids were already written.
func (s *Store) InsertEvents(ctx context.Context, events []model.ExamEvent) error {
	if len(events) == 0 {
		return nil
	}
	docs := make([]interface{}, len(events))
	for i, ev := range events {
		docs[i] = toEventDoc(ev)
	}

	_, err := s.events.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !onlyDuplicates(err) {
		return err
	}
	return nil
}

func onlyDuplicates(err error) bool {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != 11000 {
			return false
		}
	}
	return true
}
