package mongostore

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-exam-service/internal/model"
)

// Ids are stored as canonical UUID strings so documents stay readable in the shell.

type examDoc struct {
	ID              string    `bson:"_id"`
	Title           string    `bson:"title"`
	Subject         string    `bson:"subject"`
	Description     string    `bson:"description"`
	Difficulty      string    `bson:"difficulty"`
	ScheduledAt     time.Time `bson:"scheduled_at"`
	DurationMinutes int       `bson:"duration_minutes"`
	MaxStudents     int       `bson:"max_students"`
	Status          string    `bson:"status"`
	CreatorID       *string   `bson:"creator_id,omitempty"`
	QuestionIDs     []string  `bson:"question_ids"`
	IsDummy         bool      `bson:"is_dummy"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

type assignmentDoc struct {
	ExamID     string     `bson:"exam_id"`
	StudentID  string     `bson:"student_id"`
	AssignedAt time.Time  `bson:"assigned_at"`
	StartedAt  *time.Time `bson:"started_at"`
}

// Map keys are question indexes rendered as strings; BSON keys must be strings.
type resultDoc struct {
	ID              string            `bson:"_id"`
	ExamID          string            `bson:"exam_id"`
	StudentID       string            `bson:"student_id"`
	Answers         map[string]string `bson:"answers"`
	SubmittedAt     time.Time         `bson:"submitted_at"`
	IsTimeUp        bool              `bson:"is_time_up"`
	TotalQuestions  int               `bson:"total_questions"`
	CorrectAnswers  int               `bson:"correct_answers"`
	EarnedPoints    float64           `bson:"earned_points"`
	TotalPoints     float64           `bson:"total_points"`
	PercentageScore float64           `bson:"percentage_score"`
	QuestionResults map[string]bool   `bson:"question_results"`
	GradedAt        time.Time         `bson:"graded_at"`
}

type studentDoc struct {
	ID         string `bson:"_id"`
	Name       string `bson:"name"`
	RollNumber string `bson:"roll_number"`
}

type eventDoc struct {
	ID         string    `bson:"_id"`
	ExamID     string    `bson:"exam_id"`
	StudentID  *string   `bson:"student_id,omitempty"`
	Type       string    `bson:"type"`
	Payload    string    `bson:"payload"`
	OccurredAt time.Time `bson:"occurred_at"`
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseIDs(raw []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.Parse(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func optionalID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseOptionalID(s *string) *uuid.UUID {
	if s == nil {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}

func toExamDoc(e *model.Exam) examDoc {
	return examDoc{
		ID:              e.ID.String(),
		Title:           e.Title,
		Subject:         e.Subject,
		Description:     e.Description,
		Difficulty:      string(e.Difficulty),
		ScheduledAt:     e.ScheduledAt,
		DurationMinutes: e.DurationMinutes,
		MaxStudents:     e.MaxStudents,
		Status:          string(e.Status),
		CreatorID:       optionalID(e.CreatorID),
		QuestionIDs:     idStrings(e.QuestionIDs),
		IsDummy:         e.IsDummy,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func (d examDoc) model() model.Exam {
	id, _ := uuid.Parse(d.ID)
	return model.Exam{
		ID:              id,
		Title:           d.Title,
		Subject:         d.Subject,
		Description:     d.Description,
		Difficulty:      model.Difficulty(d.Difficulty),
		ScheduledAt:     d.ScheduledAt.UTC(),
		DurationMinutes: d.DurationMinutes,
		MaxStudents:     d.MaxStudents,
		Status:          model.ExamStatus(d.Status),
		CreatorID:       parseOptionalID(d.CreatorID),
		QuestionIDs:     parseIDs(d.QuestionIDs),
		IsDummy:         d.IsDummy,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
}

func (d assignmentDoc) model() model.Assignment {
	examID, _ := uuid.Parse(d.ExamID)
	studentID, _ := uuid.Parse(d.StudentID)
	a := model.Assignment{
		ExamID:     examID,
		StudentID:  studentID,
		AssignedAt: d.AssignedAt.UTC(),
	}
	if d.StartedAt != nil {
		t := d.StartedAt.UTC()
		a.StartedAt = &t
	}
	return a
}

func toResultDoc(r *model.ExamResult) resultDoc {
	answers := make(map[string]string, len(r.Answers))
	for k, v := range r.Answers {
		answers[strconv.Itoa(k)] = v
	}
	qr := make(map[string]bool, len(r.QuestionResults))
	for k, v := range r.QuestionResults {
		qr[strconv.Itoa(k)] = v
	}
	return resultDoc{
		ID:              r.ID.String(),
		ExamID:          r.ExamID.String(),
		StudentID:       r.StudentID.String(),
		Answers:         answers,
		SubmittedAt:     r.SubmittedAt,
		IsTimeUp:        r.IsTimeUp,
		TotalQuestions:  r.TotalQuestions,
		CorrectAnswers:  r.CorrectAnswers,
		EarnedPoints:    r.EarnedPoints,
		TotalPoints:     r.TotalPoints,
		PercentageScore: r.PercentageScore,
		QuestionResults: qr,
		GradedAt:        r.GradedAt,
	}
}

func (d resultDoc) model() model.ExamResult {
	id, _ := uuid.Parse(d.ID)
	examID, _ := uuid.Parse(d.ExamID)
	studentID, _ := uuid.Parse(d.StudentID)
	answers := make(map[int]string, len(d.Answers))
	for k, v := range d.Answers {
		if i, err := strconv.Atoi(k); err == nil {
			answers[i] = v
		}
	}
	qr := make(map[int]bool, len(d.QuestionResults))
	for k, v := range d.QuestionResults {
		if i, err := strconv.Atoi(k); err == nil {
			qr[i] = v
		}
	}
	return model.ExamResult{
		ID:              id,
		ExamID:          examID,
		StudentID:       studentID,
		Answers:         answers,
		SubmittedAt:     d.SubmittedAt.UTC(),
		IsTimeUp:        d.IsTimeUp,
		TotalQuestions:  d.TotalQuestions,
		CorrectAnswers:  d.CorrectAnswers,
		EarnedPoints:    d.EarnedPoints,
		TotalPoints:     d.TotalPoints,
		PercentageScore: d.PercentageScore,
		QuestionResults: qr,
		GradedAt:        d.GradedAt.UTC(),
	}
}

func toEventDoc(ev model.ExamEvent) eventDoc {
	payload := "{}"
	if len(ev.Payload) > 0 {
		payload = string(ev.Payload)
	}
	return eventDoc{
		ID:         ev.ID.String(),
		ExamID:     ev.ExamID.String(),
		StudentID:  optionalID(ev.StudentID),
		Type:       string(ev.Type),
		Payload:    payload,
		OccurredAt: ev.OccurredAt,
	}
}

func (d eventDoc) model() model.ExamEvent {
	id, _ := uuid.Parse(d.ID)
	examID, _ := uuid.Parse(d.ExamID)
	return model.ExamEvent{
		ID:         id,
		ExamID:     examID,
		StudentID:  parseOptionalID(d.StudentID),
		Type:       model.ExamEventType(d.Type),
		Payload:    json.RawMessage(d.Payload),
		OccurredAt: d.OccurredAt.UTC(),
	}
}
