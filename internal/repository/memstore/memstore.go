// Package memstore is a process-local implementation of the repository
// capabilities. It backs DB_DRIVER=memory and the service and handler tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-exam-service/internal/model"
	"github.com/stemsi/exstem-exam-service/internal/repository"
)

type pairKey struct {
	examID    uuid.UUID
	studentID uuid.UUID
}

// Store keeps every record in maps guarded by a single mutex.
// Returned records are copies; callers cannot mutate stored state.
type Store struct {
	mu          sync.RWMutex
	exams       map[uuid.UUID]model.Exam
	assignments map[pairKey]model.Assignment
	results     map[pairKey]model.ExamResult
	students    map[uuid.UUID]model.Student
	events      []model.ExamEvent
	seenEvents  map[uuid.UUID]struct{}
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		exams:       make(map[uuid.UUID]model.Exam),
		assignments: make(map[pairKey]model.Assignment),
		results:     make(map[pairKey]model.ExamResult),
		students:    make(map[uuid.UUID]model.Student),
		seenEvents:  make(map[uuid.UUID]struct{}),
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

// ─── Exams ───────────────────────────────────────────────────────────

func copyExam(e model.Exam) model.Exam {
	ids := make([]uuid.UUID, len(e.QuestionIDs))
	copy(ids, e.QuestionIDs)
	e.QuestionIDs = ids
	if e.CreatorID != nil {
		id := *e.CreatorID
		e.CreatorID = &id
	}
	return e
}

func (s *Store) CreateExam(_ context.Context, e *model.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if _, ok := s.exams[e.ID]; ok {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	if e.QuestionIDs == nil {
		e.QuestionIDs = []uuid.UUID{}
	}
	s.exams[e.ID] = copyExam(*e)
	return nil
}

func (s *Store) GetExam(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyExam(e)
	return &out, nil
}

func (s *Store) ListExams(_ context.Context, creatorID *uuid.UUID) ([]model.Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exams := []model.Exam{}
	for _, e := range s.exams {
		if creatorID != nil && (e.CreatorID == nil || *e.CreatorID != *creatorID) {
			continue
		}
		exams = append(exams, copyExam(e))
	}
	sort.SliceStable(exams, func(i, j int) bool {
		return exams[i].CreatedAt.After(exams[j].CreatedAt)
	})
	return exams, nil
}

func (s *Store) ListExamsByIDs(_ context.Context, ids []uuid.UUID) ([]model.Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exams := []model.Exam{}
	for _, id := range ids {
		if e, ok := s.exams[id]; ok {
			exams = append(exams, copyExam(e))
		}
	}
	sort.SliceStable(exams, func(i, j int) bool {
		return exams[i].ScheduledAt.After(exams[j].ScheduledAt)
	})
	return exams, nil
}

func (s *Store) UpdateExam(_ context.Context, e *model.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.exams[e.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := copyExam(*e)
	updated.Status = stored.Status
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	s.exams[e.ID] = updated
	e.UpdatedAt = updated.UpdatedAt
	return nil
}

func (s *Store) UpdateExamStatus(_ context.Context, id uuid.UUID, status model.ExamStatus, scheduledAt *time.Time) (*model.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	e.Status = status
	if scheduledAt != nil {
		e.ScheduledAt = *scheduledAt
	}
	e.UpdatedAt = time.Now().UTC()
	s.exams[id] = e
	out := copyExam(e)
	return &out, nil
}

func (s *Store) DeleteExam(_ context.Context, id uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.exams[id]; !ok {
		return 0, repository.ErrNotFound
	}
	delete(s.exams, id)

	var removed int64
	for k := range s.assignments {
		if k.examID == id {
			delete(s.assignments, k)
			removed++
		}
	}
	return removed, nil
}

// ─── Assignments ─────────────────────────────────────────────────────

func copyAssignment(a model.Assignment) model.Assignment {
	if a.StartedAt != nil {
		t := *a.StartedAt
		a.StartedAt = &t
	}
	return a
}

func (s *Store) CreateAssignment(_ context.Context, a *model.Assignment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pairKey{a.ExamID, a.StudentID}
	if existing, ok := s.assignments[k]; ok {
		*a = copyAssignment(existing)
		return false, nil
	}
	s.assignments[k] = copyAssignment(*a)
	return true, nil
}

func (s *Store) GetAssignment(_ context.Context, examID, studentID uuid.UUID) (*model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assignments[pairKey{examID, studentID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyAssignment(a)
	return &out, nil
}

func (s *Store) DeleteAssignment(_ context.Context, examID, studentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pairKey{examID, studentID}
	if _, ok := s.assignments[k]; !ok {
		return repository.ErrNotFound
	}
	delete(s.assignments, k)
	return nil
}

func (s *Store) StartAssignment(_ context.Context, examID, studentID uuid.UUID, at time.Time) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pairKey{examID, studentID}
	a, ok := s.assignments[k]
	if !ok {
		return time.Time{}, false, repository.ErrNotFound
	}
	if a.StartedAt != nil {
		return *a.StartedAt, false, nil
	}
	t := at
	a.StartedAt = &t
	s.assignments[k] = a
	return t, true, nil
}

func (s *Store) ListAssignmentsByExam(_ context.Context, examID uuid.UUID) ([]model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Assignment{}
	for k, a := range s.assignments {
		if k.examID == examID {
			out = append(out, copyAssignment(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AssignedAt.Equal(out[j].AssignedAt) {
			return out[i].StudentID.String() < out[j].StudentID.String()
		}
		return out[i].AssignedAt.Before(out[j].AssignedAt)
	})
	return out, nil
}

func (s *Store) ListAssignmentsByStudent(_ context.Context, studentID uuid.UUID) ([]model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Assignment{}
	for k, a := range s.assignments {
		if k.studentID == studentID {
			out = append(out, copyAssignment(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AssignedAt.After(out[j].AssignedAt)
	})
	return out, nil
}

// ─── Results ─────────────────────────────────────────────────────────

func copyResult(r model.ExamResult) model.ExamResult {
	answers := make(map[int]string, len(r.Answers))
	for k, v := range r.Answers {
		answers[k] = v
	}
	qr := make(map[int]bool, len(r.QuestionResults))
	for k, v := range r.QuestionResults {
		qr[k] = v
	}
	r.Answers, r.QuestionResults = answers, qr
	return r
}

func (s *Store) CreateResult(_ context.Context, r *model.ExamResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pairKey{r.ExamID, r.StudentID}
	if _, ok := s.results[k]; ok {
		return repository.ErrDuplicate
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	s.results[k] = copyResult(*r)
	return nil
}

func (s *Store) GetResult(_ context.Context, examID, studentID uuid.UUID) (*model.ExamResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.results[pairKey{examID, studentID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyResult(r)
	return &out, nil
}

func (s *Store) ListResultsByExam(_ context.Context, examID uuid.UUID) ([]model.ExamResult, error) {
	return s.listResults(func(k pairKey) bool { return k.examID == examID }, false), nil
}

func (s *Store) ListResultsByStudent(_ context.Context, studentID uuid.UUID) ([]model.ExamResult, error) {
	return s.listResults(func(k pairKey) bool { return k.studentID == studentID }, true), nil
}

func (s *Store) listResults(match func(pairKey) bool, newestFirst bool) []model.ExamResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.ExamResult{}
	for k, r := range s.results {
		if match(k) {
			out = append(out, copyResult(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if newestFirst {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out
}

// ─── Students ────────────────────────────────────────────────────────

// PutStudent registers or replaces a student's display identity.
func (s *Store) PutStudent(st model.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[st.ID] = st
}

func (s *Store) UpsertStudents(_ context.Context, students []model.Student) error {
	for _, st := range students {
		s.PutStudent(st)
	}
	return nil
}

func (s *Store) GetStudentsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID]model.Student, len(ids))
	for _, id := range ids {
		if st, ok := s.students[id]; ok {
			out[id] = st
		}
	}
	return out, nil
}

// ─── Events ──────────────────────────────────────────────────────────

func (s *Store) InsertEvents(_ context.Context, events []model.ExamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range events {
		if _, ok := s.seenEvents[ev.ID]; ok {
			continue
		}
		s.seenEvents[ev.ID] = struct{}{}
		s.events = append(s.events, ev)
	}
	return nil
}

// Events returns a snapshot of the appended events in insertion order.
func (s *Store) Events() []model.ExamEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ExamEvent, len(s.events))
	copy(out, s.events)
	return out
}
