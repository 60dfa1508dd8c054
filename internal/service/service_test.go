package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-exam-service/internal/model"
	"github.com/stemsi/exstem-exam-service/internal/repository/memstore"
	"github.com/stemsi/exstem-exam-service/internal/sessionclock"
)

var t0 = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store       *memstore.Store
	exams       *ExamService
	assignments *AssignmentService
	results     *ResultService
	status      *ExamStatusService
	clock       time.Time
}

func newFixture() *fixture {
	store := memstore.New()
	stores := store.Stores()
	f := &fixture{
		store:       store,
		exams:       NewExamService(stores.Exams),
		assignments: NewAssignmentService(stores.Exams, stores.Assignments, stores.Students),
		results:     NewResultService(stores.Exams, stores.Results),
		status:      NewExamStatusService(stores),
		clock:       t0,
	}
	now := func() time.Time { return f.clock }
	f.assignments.now, f.results.now, f.status.now = now, now, now
	return f
}

func (f *fixture) createExam(t *testing.T, duration int) *model.Exam {
	t.Helper()
	at := t0
	exam, err := f.exams.Create(context.Background(), model.CreateExamRequest{
		Title:           "Algebra",
		Subject:         "Math",
		ScheduledAt:     &at,
		DurationMinutes: duration,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return exam
}

func (f *fixture) assign(t *testing.T, examID uuid.UUID) uuid.UUID {
	t.Helper()
	studentID := uuid.New()
	if _, _, err := f.assignments.Assign(context.Background(), examID, studentID); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	return studentID
}

// ─── ExamService ─────────────────────────────────────────────────────

func TestCreateExamDefaults(t *testing.T) {
	f := newFixture()
	exam := f.createExam(t, 60)

	if exam.Status != model.ExamStatusScheduled {
		t.Errorf("status = %q, want scheduled", exam.Status)
	}
	if exam.Difficulty != model.DifficultyMedium || exam.MaxStudents != 30 {
		t.Errorf("defaults = %q/%d, want medium/30", exam.Difficulty, exam.MaxStudents)
	}
	if exam.ID == uuid.Nil {
		t.Error("id was not assigned")
	}
}

func TestCreateExamValidation(t *testing.T) {
	at := t0
	tests := []struct {
		name string
		req  model.CreateExamRequest
		want error
	}{
		{"zero duration", model.CreateExamRequest{ScheduledAt: &at, DurationMinutes: 0}, ErrInvalidDuration},
		{"negative duration", model.CreateExamRequest{ScheduledAt: &at, DurationMinutes: -5}, ErrInvalidDuration},
		{"missing schedule", model.CreateExamRequest{DurationMinutes: 30}, ErrInvalidSchedule},
		{"unknown status", model.CreateExamRequest{ScheduledAt: &at, DurationMinutes: 30, Status: "archived"}, ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.exams.Create(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err %v does not wrap ErrInvalidInput", err)
			}
		})
	}
}

func TestCreateExamStatusOverride(t *testing.T) {
	f := newFixture()
	at := t0
	exam, err := f.exams.Create(context.Background(), model.CreateExamRequest{
		ScheduledAt: &at, DurationMinutes: 30, Status: model.ExamStatusCancelled,
	})
	if err != nil {
		t.Fatal(err)
	}
	if exam.Status != model.ExamStatusCancelled {
		t.Errorf("status = %q, want cancelled", exam.Status)
	}
}

func TestSetStatusDelayedRequiresDate(t *testing.T) {
	f := newFixture()
	exam := f.createExam(t, 60)

	_, err := f.exams.SetStatus(context.Background(), exam.ID, model.ExamStatusDelayed, nil)
	if !errors.Is(err, ErrInvalidSchedule) {
		t.Fatalf("err = %v, want ErrInvalidSchedule", err)
	}

	got, _ := f.exams.Get(context.Background(), exam.ID)
	if got.Status != model.ExamStatusScheduled || !got.ScheduledAt.Equal(t0) {
		t.Errorf("exam changed after rejected delay: %+v", got)
	}
}

func TestSetStatusDelayedRewritesSchedule(t *testing.T) {
	f := newFixture()
	exam := f.createExam(t, 60)
	newDate := t0.Add(48 * time.Hour)

	updated, err := f.exams.SetStatus(context.Background(), exam.ID, model.ExamStatusDelayed, &newDate)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != model.ExamStatusDelayed || !updated.ScheduledAt.Equal(newDate) {
		t.Errorf("got %q at %v, want delayed at %v", updated.Status, updated.ScheduledAt, newDate)
	}
}

func TestSetStatusFreeForm(t *testing.T) {
	f := newFixture()
	exam := f.createExam(t, 60)
	ignored := t0.Add(time.Hour)

	for _, st := range []model.ExamStatus{
		model.ExamStatusCompleted, model.ExamStatusScheduled,
		model.ExamStatusCancelled, model.ExamStatusCompleted,
	} {
		got, err := f.exams.SetStatus(context.Background(), exam.ID, st, &ignored)
		if err != nil {
			t.Fatalf("SetStatus(%s): %v", st, err)
		}
		if got.Status != st {
			t.Errorf("status = %q, want %q", got.Status, st)
		}
		if !got.ScheduledAt.Equal(t0) {
			t.Errorf("scheduled_at = %v, want date ignored for %s", got.ScheduledAt, st)
		}
	}
}

func TestSetStatusErrors(t *testing.T) {
	f := newFixture()
	exam := f.createExam(t, 60)

	if _, err := f.exams.SetStatus(context.Background(), exam.ID, "paused", nil); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
	if _, err := f.exams.SetStatus(context.Background(), uuid.New(), model.ExamStatusCancelled, nil); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("err = %v, want ErrExamNotFound", err)
	}
}

func TestUpdateExamPartial(t *testing.T) {
	f := newFixture()
	exam := f.createExam(t, 60)
	if _, err := f.exams.SetStatus(context.Background(), exam.ID, model.ExamStatusCancelled, nil); err != nil {
		t.Fatal(err)
	}

	duration := 90
	title := "Linear Algebra"
	updated, err := f.exams.Update(context.Background(), exam.ID, model.UpdateExamRequest{
		Title: &title, DurationMinutes: &duration,
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != title || updated.DurationMinutes != 90 || updated.Subject != "Math" {
		t.Errorf("updated = %+v", updated)
	}

	stored, _ := f.exams.Get(context.Background(), exam.ID)
	if stored.Status != model.ExamStatusCancelled {
		t.Errorf("status = %q, want update to leave cancelled", stored.Status)
	}

	zero := 0
	if _, err := f.exams.Update(context.Background(), exam.ID, model.UpdateExamRequest{DurationMinutes: &zero}); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("err = %v, want ErrInvalidDuration", err)
	}
	if _, err := f.exams.Update(context.Background(), uuid.New(), model.UpdateExamRequest{Title: &title}); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("err = %v, want ErrExamNotFound", err)
	}
}

func TestDeleteExamCascade(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	exam := f.createExam(t, 60)
	students := []uuid.UUID{f.assign(t, exam.ID), f.assign(t, exam.ID), f.assign(t, exam.ID)}

	if _, err := f.results.Submit(ctx, model.SubmitAnswersRequest{
		ExamID: exam.ID, StudentID: students[0],
		Answers:   map[int]string{0: "A"},
		Questions: []model.Question{{CorrectAnswer: "A"}},
	}); err != nil {
		t.Fatal(err)
	}

	summary, err := f.exams.Delete(ctx, exam.ID)
	if err != nil {
		t.Fatal(err)
	}
	if summary.DeletedAssignments != 3 {
		t.Errorf("deleted assignments = %d, want 3", summary.DeletedAssignments)
	}
	for _, s := range students {
		if _, _, err := f.assignments.StartSession(ctx, exam.ID, s); !errors.Is(err, ErrAssignmentNotFound) {
			t.Errorf("assignment for %s survived delete: %v", s, err)
		}
		exams, err := f.assignments.ListAssignedExams(ctx, s)
		if err != nil {
			t.Fatalf("ListAssignedExams(%s): %v", s, err)
		}
		if len(exams) != 0 {
			t.Errorf("student %s still lists %d exams after delete", s, len(exams))
		}
	}
	if _, err := f.results.Get(ctx, exam.ID, students[0]); err != nil {
		t.Errorf("result should survive exam delete: %v", err)
	}
	if _, err := f.exams.Delete(ctx, exam.ID); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("second delete err = %v, want ErrExamNotFound", err)
	}
}

// ─── AssignmentService ───────────────────────────────────────────────

func TestAssignIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	exam := f.createExam(t, 60)
	student := uuid.New()

	first, created, err := f.assignments.Assign(ctx, exam.ID, student)
	if err != nil || !created {
		t.Fatalf("first Assign = (%v, %v)", created, err)
	}
	f.clock = t0.Add(time.Hour)
	second, created, err := f.assignments.Assign(ctx, exam.ID, student)
	if err != nil || created {
		t.Fatalf("second Assign = (%v, %v), want existing", created, err)
	}
	if !second.AssignedAt.Equal(first.AssignedAt) {
		t.Errorf("assigned_at changed from %v to %v", first.AssignedAt, second.AssignedAt)
	}

	list, _ := f.assignments.ListAssignedStudents(ctx, exam.ID)
	if len(list) != 1 {
		t.Errorf("assignments = %d, want 1", len(list))
	}
}

func TestAssignUnknownExam(t *testing.T) {
	f := newFixture()
	if _, _, err := f.assignments.Assign(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, ErrExamNotFound) {
		t.Fatalf("err = %v, want ErrExamNotFound", err)
	}
}

func TestUnassign(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	exam := f.createExam(t, 60)
	student := f.assign(t, exam.ID)

	if err := f.assignments.Unassign(ctx, exam.ID, student); err != nil {
		t.Fatal(err)
	}
	if err := f.assignments.Unassign(ctx, exam.ID, student); !errors.Is(err, ErrAssignmentNotFound) {
		t.Errorf("err = %v, want ErrAssignmentNotFound", err)
	}
}

func TestStartSessionIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	exam := f.createExam(t, 60)
	student := f.assign(t, exam.ID)

	f.clock = t0.Add(5 * time.Minute)
	first, started, err := f.assignments.StartSession(ctx, exam.ID, student)
	if err != nil || !started {
		t.Fatalf("first StartSession = (%v, %v)", started, err)
	}
	f.clock = t0.Add(20 * time.Minute)
	second, started, err := f.assignments.StartSession(ctx, exam.ID, student)
	if err != nil || started {
		t.Fatalf("second StartSession = (%v, %v), want existing start", started, err)
	}
	if !first.StartedAt.Equal(t0.Add(5*time.Minute)) || !second.StartedAt.Equal(first.StartedAt) {
		t.Errorf("starts = %v, %v; want both %v", first.StartedAt, second.StartedAt, t0.Add(5*time.Minute))
	}
}

func TestStartSessionConcurrent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	exam := f.createExam(t, 60)
	student := f.assign(t, exam.ID)

	var wg sync.WaitGroup
	starts := make([]time.Time, 16)
	won := make([]bool, len(starts))
	for i := range starts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, started, err := f.assignments.StartSession(ctx, exam.ID, student)
			if err != nil {
				t.Errorf("StartSession: %v", err)
				return
			}
			starts[i], won[i] = res.StartedAt, started
		}(i)
	}
	wg.Wait()
	winners := 0
	for i := range starts {
		if !starts[i].Equal(starts[0]) {
			t.Fatalf("start %d = %v, want %v", i, starts[i], starts[0])
		}
		if won[i] {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("%d calls reported the first start, want 1", winners)
	}
}

func TestStartSessionNotAssigned(t *testing.T) {
	f := newFixture()
	exam := f.createExam(t, 60)
	if _, _, err := f.assignments.StartSession(context.Background(), exam.ID, uuid.New()); !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("err = %v, want ErrAssignmentNotFound", err)
	}
}

func TestListAssignedStudentsAndExams(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	early := f.createExam(t, 60)
	later := f.createExam(t, 60)
	next := t0.Add(24 * time.Hour)
	if _, err := f.exams.Update(ctx, later.ID, model.UpdateExamRequest{ScheduledAt: &next}); err != nil {
		t.Fatal(err)
	}

	known := uuid.New()
	f.store.PutStudent(model.Student{ID: known, Name: "Ayu", RollNumber: "R-01"})
	for _, examID := range []uuid.UUID{early.ID, later.ID} {
		if _, _, err := f.assignments.Assign(ctx, examID, known); err != nil {
			t.Fatal(err)
		}
	}
	stranger := f.assign(t, early.ID)

	students, err := f.assignments.ListAssignedStudents(ctx, early.ID)
	if err != nil {
		t.Fatal(err)
	}
	names := map[uuid.UUID]string{}
	for _, s := range students {
		names[s.StudentID] = s.Name
	}
	if names[known] != "Ayu" || names[stranger] != UnknownStudentName {
		t.Errorf("names = %v", names)
	}

	exams, err := f.assignments.ListAssignedExams(ctx, known)
	if err != nil {
		t.Fatal(err)
	}
	if len(exams) != 2 || exams[0].ID != later.ID {
		t.Errorf("exams = %v, want later scheduled first", exams)
	}
}

// ─── ResultService ───────────────────────────────────────────────────

func TestSubmitGradesAndStores(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	exam := f.createExam(t, 60)
	student := uuid.New()

	res, err := f.results.Submit(ctx, model.SubmitAnswersRequest{
		ExamID:    exam.ID,
		StudentID: student,
		Answers:   map[int]string{0: "A", 1: "true", 2: "x"},
		Questions: []model.Question{
			{CorrectAnswer: "A", Points: 2},
			{CorrectAnswer: "false", Points: 1},
			{CorrectAnswer: "y", Points: 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.CorrectAnswers != 1 || res.EarnedPoints != 2 || res.TotalPoints != 4 {
		t.Errorf("graded = %d correct, %v/%v points", res.CorrectAnswers, res.EarnedPoints, res.TotalPoints)
	}
	if res.PercentageScore != 33.33 {
		t.Errorf("percentage = %v, want 33.33", res.PercentageScore)
	}
	if !res.SubmittedAt.Equal(t0) {
		t.Errorf("submitted_at = %v, want %v", res.SubmittedAt, t0)
	}

	stored, err := f.results.Get(ctx, exam.ID, student)
	if err != nil {
		t.Fatal(err)
	}
	if stored.PercentageScore != res.PercentageScore || !stored.QuestionResults[0] || stored.QuestionResults[1] {
		t.Errorf("stored = %+v", stored)
	}
}

func TestSubmitTwiceConflicts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	exam := f.createExam(t, 60)
	student := uuid.New()
	req := model.SubmitAnswersRequest{
		ExamID: exam.ID, StudentID: student,
		Answers:   map[int]string{0: "A"},
		Questions: []model.Question{{CorrectAnswer: "A"}},
	}
	if _, err := f.results.Submit(ctx, req); err != nil {
		t.Fatal(err)
	}

	req.Answers = map[int]string{0: "B"}
	_, err := f.results.Submit(ctx, req)
	if !errors.Is(err, ErrResultExists) || !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrResultExists", err)
	}

	stored, _ := f.results.Get(ctx, exam.ID, student)
	if stored.Answers[0] != "A" || stored.PercentageScore != 100 {
		t.Errorf("first result was overwritten: %+v", stored)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture()
	exam := f.createExam(t, 60)
	tests := []struct {
		name string
		req  model.SubmitAnswersRequest
		want error
	}{
		{"no answers", model.SubmitAnswersRequest{ExamID: exam.ID, Questions: []model.Question{{}}}, ErrMissingAnswers},
		{"nil questions", model.SubmitAnswersRequest{ExamID: exam.ID, Answers: map[int]string{}}, ErrMissingQuestions},
		{"unknown exam", model.SubmitAnswersRequest{ExamID: uuid.New(), Answers: map[int]string{}, Questions: []model.Question{{}}}, ErrExamNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.results.Submit(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSubmitEmptyQuestionSet(t *testing.T) {
	f := newFixture()
	exam := f.createExam(t, 60)

	res, err := f.results.Submit(context.Background(), model.SubmitAnswersRequest{
		ExamID: exam.ID, StudentID: uuid.New(),
		Answers:   map[int]string{},
		Questions: []model.Question{},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalQuestions != 0 || res.CorrectAnswers != 0 || res.PercentageScore != 0 {
		t.Errorf("empty submission graded as %+v", res)
	}
}

func TestGetResultNotFound(t *testing.T) {
	f := newFixture()
	if _, err := f.results.Get(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("err = %v, want ErrResultNotFound", err)
	}
}

// ─── ExamStatusService ───────────────────────────────────────────────

func TestExamStatusScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	exam := f.createExam(t, 60)

	idle := f.assign(t, exam.ID)
	started := f.assign(t, exam.ID)
	done := f.assign(t, exam.ID)
	f.store.PutStudent(model.Student{ID: started, Name: "Budi", RollNumber: "R-02"})

	f.clock = t0.Add(10 * time.Minute)
	if _, _, err := f.assignments.StartSession(ctx, exam.ID, started); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.assignments.StartSession(ctx, exam.ID, done); err != nil {
		t.Fatal(err)
	}
	if _, err := f.results.Submit(ctx, model.SubmitAnswersRequest{
		ExamID: exam.ID, StudentID: done,
		Answers:   map[int]string{0: "A", 1: "B"},
		Questions: []model.Question{{CorrectAnswer: "A", Points: 3}, {CorrectAnswer: "C"}},
	}); err != nil {
		t.Fatal(err)
	}

	f.clock = t0.Add(30 * time.Minute)
	doc, err := f.status.GetExamStatus(ctx, exam.ID)
	if err != nil {
		t.Fatal(err)
	}
	if doc.ExamState != sessionclock.WindowInProgress || !doc.CurrentTime.Equal(f.clock) {
		t.Errorf("state = %q at %v", doc.ExamState, doc.CurrentTime)
	}
	if !doc.ExamEndTime.Equal(t0.Add(time.Hour)) || doc.ExamDuration != 60 {
		t.Errorf("end = %v duration = %d", doc.ExamEndTime, doc.ExamDuration)
	}

	byID := map[uuid.UUID]StudentSession{}
	for _, s := range doc.Students {
		byID[s.StudentID] = s
	}
	if len(byID) != 3 {
		t.Fatalf("students = %d, want 3", len(byID))
	}

	if s := byID[idle]; s.SessionStatus != sessionclock.StatusNotStarted || s.RemainingTime != nil || s.StudentName != UnknownStudentName {
		t.Errorf("idle = %+v", s)
	}
	s := byID[started]
	if s.SessionStatus != sessionclock.StatusInProgress || s.RemainingTime == nil || *s.RemainingTime != 40*60 {
		t.Errorf("started = %+v", s)
	}
	if s.StudentName != "Budi" || s.StudentRollNumber != "R-02" {
		t.Errorf("started identity = %q/%q", s.StudentName, s.StudentRollNumber)
	}
	d := byID[done]
	if d.SessionStatus != sessionclock.StatusCompleted || d.RemainingTime != nil {
		t.Errorf("done = %+v", d)
	}
	if d.Score == nil || *d.Score != 3 || d.PercentageScore == nil || *d.PercentageScore != 50 || d.CompletedAt == nil {
		t.Errorf("done score = %+v", d)
	}

	f.clock = t0.Add(2 * time.Hour)
	doc, err = f.status.GetExamStatus(ctx, exam.ID)
	if err != nil {
		t.Fatal(err)
	}
	byID = map[uuid.UUID]StudentSession{}
	for _, s := range doc.Students {
		byID[s.StudentID] = s
	}
	if doc.ExamState != sessionclock.WindowFinished {
		t.Errorf("state = %q, want finished", doc.ExamState)
	}
	if byID[idle].SessionStatus != sessionclock.StatusFinished {
		t.Errorf("idle after window = %q, want finished", byID[idle].SessionStatus)
	}
	if st := byID[started]; st.SessionStatus != sessionclock.StatusTimeUp || *st.RemainingTime != 0 {
		t.Errorf("started after deadline = %+v", st)
	}
	if byID[done].SessionStatus != sessionclock.StatusCompleted {
		t.Errorf("done after window = %q", byID[done].SessionStatus)
	}
}

func TestExamStatusLateStarterKeepsFullDuration(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	exam := f.createExam(t, 60)
	student := f.assign(t, exam.ID)

	f.clock = t0.Add(50 * time.Minute)
	if _, _, err := f.assignments.StartSession(ctx, exam.ID, student); err != nil {
		t.Fatal(err)
	}

	f.clock = t0.Add(70 * time.Minute)
	doc, err := f.status.GetExamStatus(ctx, exam.ID)
	if err != nil {
		t.Fatal(err)
	}
	s := doc.Students[0]
	if doc.ExamState != sessionclock.WindowFinished {
		t.Errorf("window = %q, want finished", doc.ExamState)
	}
	if s.SessionStatus != sessionclock.StatusInProgress || *s.RemainingTime != 40*60 {
		t.Errorf("late starter = %q with %v s left, want in_progress with 2400", s.SessionStatus, *s.RemainingTime)
	}
}

func TestExamStatusUnknownExam(t *testing.T) {
	f := newFixture()
	if _, err := f.status.GetExamStatus(context.Background(), uuid.New()); !errors.Is(err, ErrExamNotFound) {
		t.Fatalf("err = %v, want ErrExamNotFound", err)
	}
}
