package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-exam-service/internal/config"
	"github.com/stemsi/exstem-exam-service/internal/events"
	"github.com/stemsi/exstem-exam-service/internal/handler"
	"github.com/stemsi/exstem-exam-service/internal/metrics"
	"github.com/stemsi/exstem-exam-service/internal/model"
	"github.com/stemsi/exstem-exam-service/internal/repository/memstore"
	"github.com/stemsi/exstem-exam-service/internal/router"
	"github.com/stemsi/exstem-exam-service/internal/service"
	"github.com/stemsi/exstem-exam-service/internal/validator"
	ws "github.com/stemsi/exstem-exam-service/internal/websocket"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
	Metadata struct {
		RequestID string `json:"request_id"`
		Count     *int   `json:"count"`
	} `json:"metadata"`
}

type testServer struct {
	engine *gin.Engine
	store  *memstore.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Setup()

	log := zerolog.Nop()
	store := memstore.New()
	stores := store.Stores()
	bus := events.NewLocalBus(stores.Events)
	emitter := events.NewEmitter(bus, log)
	m := metrics.New()

	statusService := service.NewExamStatusService(stores)
	handlers := &router.Handlers{
		Exam:       handler.NewExamHandler(service.NewExamService(stores.Exams), statusService, emitter, m, log),
		Assignment: handler.NewAssignmentHandler(service.NewAssignmentService(stores.Exams, stores.Assignments, stores.Students), emitter, m, log),
		Result:     handler.NewResultHandler(service.NewResultService(stores.Exams, stores.Results), emitter, m, log),
		Monitor:    handler.NewMonitorHandler(statusService, bus, m, log, nil),
		System:     handler.NewSystemHandler(config.DriverMemory, map[string]handler.HealthCheck{}, nil, log),
	}
	cfg := &config.Config{GinMode: gin.TestMode}
	return &testServer{engine: router.SetupRouter(handlers, cfg, log, m), store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode data %s: %v", raw, err)
	}
	return v
}

func (s *testServer) createExam(t *testing.T, scheduledAt time.Time, duration int) model.Exam {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/v1/exams", map[string]any{
		"title":            "Physics midterm",
		"subject":          "Physics",
		"scheduled_at":     scheduledAt,
		"duration_minutes": duration,
	})
	if code != http.StatusCreated {
		t.Fatalf("create exam: status %d, error %+v", code, env.Error)
	}
	return decode[struct {
		Exam model.Exam `json:"exam"`
	}](t, env.Data).Exam
}

func errCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

// ─── Exams ───────────────────────────────────────────────────────────

func TestCreateExamDefaultsAndValidation(t *testing.T) {
	s := newTestServer(t)

	exam := s.createExam(t, time.Now().Add(time.Hour), 90)
	if exam.Status != model.ExamStatusScheduled {
		t.Errorf("status = %q, want scheduled", exam.Status)
	}
	if exam.Difficulty != model.DefaultDifficulty || exam.MaxStudents != model.DefaultMaxStudents {
		t.Errorf("defaults not applied: %+v", exam)
	}

	code, env := s.do(t, http.MethodPost, "/api/v1/exams", map[string]any{
		"title":        "   ",
		"scheduled_at": time.Now(),
	})
	if code != http.StatusBadRequest || errCode(env) != "VALIDATION_ERROR" {
		t.Fatalf("blank title: got %d %s", code, errCode(env))
	}
	if _, ok := env.Error.Fields["title"]; !ok {
		t.Errorf("expected title field error, got %v", env.Error.Fields)
	}
	if _, ok := env.Error.Fields["duration_minutes"]; !ok {
		t.Errorf("expected duration_minutes field error, got %v", env.Error.Fields)
	}

	code, env = s.do(t, http.MethodPost, "/api/v1/exams", map[string]any{
		"title":            "Chemistry",
		"scheduled_at":     time.Now(),
		"duration_minutes": 30,
		"status":           "archived",
	})
	if code != http.StatusBadRequest || errCode(env) != "INVALID_STATUS" {
		t.Fatalf("unknown status: got %d %s", code, errCode(env))
	}

	code, env = s.do(t, http.MethodPost, "/api/v1/exams", `{"title":`)
	if code != http.StatusBadRequest {
		t.Fatalf("malformed body: got %d %s", code, errCode(env))
	}
}

func TestGetExamErrors(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/v1/exams/not-a-uuid", nil)
	if code != http.StatusBadRequest || errCode(env) != "INVALID_ID" {
		t.Errorf("bad id: got %d %s", code, errCode(env))
	}

	code, env = s.do(t, http.MethodGet, "/api/v1/exams/"+uuid.NewString(), nil)
	if code != http.StatusNotFound || errCode(env) != "EXAM_NOT_FOUND" {
		t.Errorf("unknown exam: got %d %s", code, errCode(env))
	}
}

func TestListExamsFiltersByCreator(t *testing.T) {
	s := newTestServer(t)
	creator := uuid.New()

	s.createExam(t, time.Now(), 30)
	code, _ := s.do(t, http.MethodPost, "/api/v1/exams", map[string]any{
		"title":            "Owned",
		"scheduled_at":     time.Now(),
		"duration_minutes": 30,
		"creator_id":       creator,
	})
	if code != http.StatusCreated {
		t.Fatalf("create owned exam: %d", code)
	}

	_, env := s.do(t, http.MethodGet, "/api/v1/exams", nil)
	if env.Metadata.Count == nil || *env.Metadata.Count != 2 {
		t.Errorf("all exams count = %v, want 2", env.Metadata.Count)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/exams?creator_id="+creator.String(), nil)
	list := decode[struct {
		Exams []model.Exam `json:"exams"`
	}](t, env.Data).Exams
	if len(list) != 1 || list[0].Title != "Owned" {
		t.Errorf("filtered list = %+v", list)
	}

	code, env = s.do(t, http.MethodGet, "/api/v1/exams?creator_id=nope", nil)
	if code != http.StatusBadRequest || errCode(env) != "INVALID_ID" {
		t.Errorf("bad creator_id: got %d %s", code, errCode(env))
	}
}

func TestUpdateExamStatus(t *testing.T) {
	s := newTestServer(t)
	exam := s.createExam(t, time.Now().Add(time.Hour), 60)
	path := "/api/v1/exams/" + exam.ID.String() + "/status"

	code, env := s.do(t, http.MethodPatch, path, map[string]any{"status": "delayed"})
	if code != http.StatusBadRequest || errCode(env) != "INVALID_SCHEDULE" {
		t.Fatalf("delay without date: got %d %s", code, errCode(env))
	}

	newDate := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Millisecond)
	code, env = s.do(t, http.MethodPatch, path, map[string]any{"status": "delayed", "new_date": newDate})
	if code != http.StatusOK {
		t.Fatalf("delay: got %d %s", code, errCode(env))
	}
	updated := decode[struct {
		Exam model.Exam `json:"exam"`
	}](t, env.Data).Exam
	if updated.Status != model.ExamStatusDelayed || !updated.ScheduledAt.Equal(newDate) {
		t.Errorf("after delay: status %q scheduled %v", updated.Status, updated.ScheduledAt)
	}

	code, env = s.do(t, http.MethodPatch, path, map[string]any{"status": "paused"})
	if code != http.StatusBadRequest || errCode(env) != "INVALID_STATUS" {
		t.Errorf("unknown status: got %d %s", code, errCode(env))
	}
}

func TestDeleteExamKeepsResults(t *testing.T) {
	s := newTestServer(t)
	exam := s.createExam(t, time.Now().Add(-time.Minute), 60)
	studentID := uuid.New()
	s.do(t, http.MethodPost, "/api/v1/exams/"+exam.ID.String()+"/students/"+studentID.String(), nil)
	code, _ := s.do(t, http.MethodPost, "/api/v1/results", map[string]any{
		"exam_id":    exam.ID,
		"student_id": studentID,
		"answers":    map[string]string{"0": "A"},
		"questions":  []map[string]any{{"correct_answer": "A"}},
	})
	if code != http.StatusCreated {
		t.Fatalf("submit: %d", code)
	}

	code, env := s.do(t, http.MethodDelete, "/api/v1/exams/"+exam.ID.String(), nil)
	if code != http.StatusOK {
		t.Fatalf("delete: %d %s", code, errCode(env))
	}
	summary := decode[service.DeleteSummary](t, env.Data)
	if summary.DeletedAssignments != 1 {
		t.Errorf("deleted assignments = %d, want 1", summary.DeletedAssignments)
	}

	code, _ = s.do(t, http.MethodGet, "/api/v1/results/exams/"+exam.ID.String()+"/students/"+studentID.String(), nil)
	if code != http.StatusOK {
		t.Errorf("result after exam delete: got %d, want 200", code)
	}

	code, env = s.do(t, http.MethodDelete, "/api/v1/exams/"+exam.ID.String(), nil)
	if code != http.StatusNotFound || errCode(env) != "EXAM_NOT_FOUND" {
		t.Errorf("second delete: got %d %s", code, errCode(env))
	}
}

// ─── Assignments ─────────────────────────────────────────────────────

func TestAssignIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	exam := s.createExam(t, time.Now(), 60)
	path := "/api/v1/exams/" + exam.ID.String() + "/students/" + uuid.NewString()

	code, _ := s.do(t, http.MethodPost, path, nil)
	if code != http.StatusCreated {
		t.Fatalf("first assign: %d", code)
	}
	code, env := s.do(t, http.MethodPost, path, nil)
	if code != http.StatusOK {
		t.Fatalf("repeat assign: %d", code)
	}
	if created := decode[struct {
		Created bool `json:"created"`
	}](t, env.Data).Created; created {
		t.Error("repeat assign reported created")
	}

	code, env = s.do(t, http.MethodPost, "/api/v1/exams/"+uuid.NewString()+"/students/"+uuid.NewString(), nil)
	if code != http.StatusNotFound || errCode(env) != "EXAM_NOT_FOUND" {
		t.Errorf("assign to unknown exam: got %d %s", code, errCode(env))
	}
}

func TestUnassignUnknownPair(t *testing.T) {
	s := newTestServer(t)
	exam := s.createExam(t, time.Now(), 60)

	code, env := s.do(t, http.MethodDelete, "/api/v1/exams/"+exam.ID.String()+"/students/"+uuid.NewString(), nil)
	if code != http.StatusNotFound || errCode(env) != "ASSIGNMENT_NOT_FOUND" {
		t.Errorf("got %d %s", code, errCode(env))
	}
}

func TestStartSessionReturnsFirstStart(t *testing.T) {
	s := newTestServer(t)
	exam := s.createExam(t, time.Now().Add(-time.Minute), 60)
	base := "/api/v1/exams/" + exam.ID.String() + "/students/" + uuid.NewString()

	code, env := s.do(t, http.MethodPost, base+"/start", nil)
	if code != http.StatusNotFound || errCode(env) != "ASSIGNMENT_NOT_FOUND" {
		t.Fatalf("start before assign: got %d %s", code, errCode(env))
	}

	s.do(t, http.MethodPost, base, nil)
	_, env = s.do(t, http.MethodPost, base+"/start", nil)
	first := decode[model.StartSessionResponse](t, env.Data)
	time.Sleep(5 * time.Millisecond)
	_, env = s.do(t, http.MethodPost, base+"/start", nil)
	second := decode[model.StartSessionResponse](t, env.Data)

	if !first.StartedAt.Equal(second.StartedAt) {
		t.Errorf("started_at changed: %v then %v", first.StartedAt, second.StartedAt)
	}
}

func TestRepeatedStartRecordsOneEvent(t *testing.T) {
	s := newTestServer(t)
	exam := s.createExam(t, time.Now().Add(-time.Minute), 60)
	base := "/api/v1/exams/" + exam.ID.String() + "/students/" + uuid.NewString()
	s.do(t, http.MethodPost, base, nil)

	for i := 0; i < 3; i++ {
		if code, env := s.do(t, http.MethodPost, base+"/start", nil); code != http.StatusOK {
			t.Fatalf("start %d: got %d %s", i, code, errCode(env))
		}
	}

	starts := 0
	for _, ev := range s.store.Events() {
		if ev.Type == model.EventSessionStarted {
			starts++
		}
	}
	if starts != 1 {
		t.Errorf("session_started events after 3 starts = %d, want 1", starts)
	}
}

func TestListAssignedStudentsAndExams(t *testing.T) {
	s := newTestServer(t)
	exam := s.createExam(t, time.Now(), 60)
	known := uuid.New()
	s.store.PutStudent(model.Student{ID: known, Name: "Sari", RollNumber: "R-07"})
	unknown := uuid.New()

	for _, id := range []uuid.UUID{known, unknown} {
		s.do(t, http.MethodPost, "/api/v1/exams/"+exam.ID.String()+"/students/"+id.String(), nil)
	}

	_, env := s.do(t, http.MethodGet, "/api/v1/exams/"+exam.ID.String()+"/students", nil)
	students := decode[struct {
		Students []model.AssignedStudent `json:"students"`
	}](t, env.Data).Students
	names := map[uuid.UUID]string{}
	for _, st := range students {
		names[st.StudentID] = st.Name
	}
	if names[known] != "Sari" || names[unknown] != service.UnknownStudentName {
		t.Errorf("names = %v", names)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/students/"+known.String()+"/exams", nil)
	if env.Metadata.Count == nil || *env.Metadata.Count != 1 {
		t.Errorf("assigned exams count = %v, want 1", env.Metadata.Count)
	}
}

// ─── Results ─────────────────────────────────────────────────────────

func TestSubmitAnswersGradesAndRejectsResubmission(t *testing.T) {
	s := newTestServer(t)
	exam := s.createExam(t, time.Now().Add(-time.Minute), 60)
	studentID := uuid.New()
	body := map[string]any{
		"exam_id":    exam.ID,
		"student_id": studentID,
		"answers":    map[string]string{"0": "A", "1": "b", "2": "C"},
		"questions": []map[string]any{
			{"correct_answer": "A", "points": 2},
			{"correct_answer": "B", "points": 1},
			{"correct_answer": "D", "points": 1},
		},
	}

	code, env := s.do(t, http.MethodPost, "/api/v1/results", body)
	if code != http.StatusCreated {
		t.Fatalf("submit: %d %s", code, errCode(env))
	}
	summary := decode[model.SubmitAnswersResponse](t, env.Data)
	// Matching is exact, so "b" does not match "B".
	if summary.CorrectAnswers != 1 || summary.EarnedPoints != 2 || summary.TotalPoints != 4 || summary.PercentageScore != 33.33 {
		t.Errorf("summary = %+v", summary)
	}

	code, env = s.do(t, http.MethodPost, "/api/v1/results", body)
	if code != http.StatusConflict || errCode(env) != "RESULT_ALREADY_SUBMITTED" {
		t.Errorf("resubmit: got %d %s", code, errCode(env))
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/results/students/"+studentID.String(), nil)
	if env.Metadata.Count == nil || *env.Metadata.Count != 1 {
		t.Errorf("student results count = %v, want 1", env.Metadata.Count)
	}
	_, env = s.do(t, http.MethodGet, "/api/v1/results/exams/"+exam.ID.String(), nil)
	if env.Metadata.Count == nil || *env.Metadata.Count != 1 {
		t.Errorf("exam results count = %v, want 1", env.Metadata.Count)
	}
}

func TestSubmitAnswersValidation(t *testing.T) {
	s := newTestServer(t)
	exam := s.createExam(t, time.Now(), 60)

	code, env := s.do(t, http.MethodPost, "/api/v1/results", map[string]any{
		"exam_id":    exam.ID,
		"student_id": uuid.New(),
		"answers":    map[string]string{"0": "A"},
	})
	if code != http.StatusBadRequest || errCode(env) != "VALIDATION_ERROR" {
		t.Errorf("missing questions: got %d %s", code, errCode(env))
	}

	code, env = s.do(t, http.MethodPost, "/api/v1/results", map[string]any{
		"exam_id":    exam.ID,
		"student_id": uuid.New(),
		"answers":    map[string]string{},
		"questions":  []map[string]any{},
	})
	if code != http.StatusCreated {
		t.Fatalf("empty question set: got %d %s", code, errCode(env))
	}
	if summary := decode[model.SubmitAnswersResponse](t, env.Data); summary.TotalQuestions != 0 || summary.PercentageScore != 0 {
		t.Errorf("empty question set summary = %+v", summary)
	}

	code, env = s.do(t, http.MethodPost, "/api/v1/results", map[string]any{
		"exam_id":    uuid.New(),
		"student_id": uuid.New(),
		"answers":    map[string]string{"0": "A"},
		"questions":  []map[string]any{{"correct_answer": "A"}},
	})
	if code != http.StatusNotFound || errCode(env) != "EXAM_NOT_FOUND" {
		t.Errorf("unknown exam: got %d %s", code, errCode(env))
	}
}

func TestGetResultNotFound(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(t, http.MethodGet, "/api/v1/results/exams/"+uuid.NewString()+"/students/"+uuid.NewString(), nil)
	if code != http.StatusNotFound || errCode(env) != "RESULT_NOT_FOUND" {
		t.Errorf("got %d %s", code, errCode(env))
	}
}

// ─── Status ──────────────────────────────────────────────────────────

func TestGetExamStatus(t *testing.T) {
	s := newTestServer(t)
	exam := s.createExam(t, time.Now().Add(-10*time.Minute), 60)
	idle, active, done := uuid.New(), uuid.New(), uuid.New()
	examPath := "/api/v1/exams/" + exam.ID.String()
	for _, id := range []uuid.UUID{idle, active, done} {
		s.do(t, http.MethodPost, examPath+"/students/"+id.String(), nil)
	}
	s.do(t, http.MethodPost, examPath+"/students/"+active.String()+"/start", nil)
	s.do(t, http.MethodPost, examPath+"/students/"+done.String()+"/start", nil)
	s.do(t, http.MethodPost, "/api/v1/results", map[string]any{
		"exam_id":    exam.ID,
		"student_id": done,
		"answers":    map[string]string{"0": "A"},
		"questions":  []map[string]any{{"correct_answer": "A"}},
	})

	code, env := s.do(t, http.MethodGet, examPath+"/status", nil)
	if code != http.StatusOK {
		t.Fatalf("status: %d %s", code, errCode(env))
	}
	doc := decode[service.ExamStatusDocument](t, env.Data)
	if doc.ExamState != "in_progress" {
		t.Errorf("exam_state = %q, want in_progress", doc.ExamState)
	}

	byID := map[uuid.UUID]service.StudentSession{}
	for _, st := range doc.Students {
		byID[st.StudentID] = st
	}
	if got := byID[idle].SessionStatus; got != "not_started" {
		t.Errorf("idle student = %q", got)
	}
	if got := byID[active]; got.SessionStatus != "in_progress" || got.RemainingTime == nil {
		t.Errorf("active student = %+v", got)
	}
	if got := byID[done]; got.SessionStatus != "completed" || got.PercentageScore == nil || *got.PercentageScore != 100 {
		t.Errorf("completed student = %+v", got)
	}
}

// ─── Ops ─────────────────────────────────────────────────────────────

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/health", nil)
	if code != http.StatusOK {
		t.Fatalf("health: %d", code)
	}
	health := decode[struct {
		Status   string `json:"status"`
		DBDriver string `json:"db_driver"`
	}](t, env.Data)
	if health.Status != "ok" || health.DBDriver != config.DriverMemory {
		t.Errorf("health = %+v", health)
	}

	s.createExam(t, time.Now(), 30)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "exam_service_http_requests_total") {
		t.Errorf("metrics scrape missing request counter")
	}
}

func TestHealthReportsFailingDependency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := handler.NewSystemHandler(config.DriverPostgres, map[string]handler.HealthCheck{
		"postgres": func(context.Context) error { return context.DeadlineExceeded },
	}, nil, zerolog.Nop())

	r := gin.New()
	r.GET("/health", h.Health)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// ─── Monitor ─────────────────────────────────────────────────────────

func TestMonitorStreamsSnapshotAndActivity(t *testing.T) {
	s := newTestServer(t)
	exam := s.createExam(t, time.Now().Add(-time.Minute), 60)

	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/exams/" + exam.ID.String() + "/monitor"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first struct {
		Event ws.Event `json:"event"`
	}
	if err := conn.ReadJSON(&first); err != nil || first.Event != ws.EventSnapshot {
		t.Fatalf("first message = %+v, err %v", first, err)
	}

	// Assigning triggers an activity message followed by a fresh snapshot.
	studentID := uuid.New()
	resp, err := http.Post(srv.URL+"/api/v1/exams/"+exam.ID.String()+"/students/"+studentID.String(), "application/json", nil)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	resp.Body.Close()

	var activity ws.ActivityResponse
	if err := conn.ReadJSON(&activity); err != nil {
		t.Fatalf("read activity: %v", err)
	}
	if activity.Event != ws.EventActivity || activity.Activity.Type != model.EventStudentAssigned {
		t.Errorf("activity = %+v", activity)
	}

	var snapshot struct {
		Event  ws.Event                   `json:"event"`
		Status service.ExamStatusDocument `json:"status"`
	}
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snapshot.Event != ws.EventSnapshot || len(snapshot.Status.Students) != 1 {
		t.Errorf("snapshot after assign = %+v", snapshot)
	}

	if err := conn.WriteJSON(ws.RequestEnvelope{Action: ws.ActionPing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	var pong ws.PongResponse
	if err := conn.ReadJSON(&pong); err != nil || pong.Event != ws.EventPong {
		t.Errorf("pong = %+v, err %v", pong, err)
	}
}

func TestMonitorUnknownExam(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(t, http.MethodGet, "/ws/v1/exams/"+uuid.NewString()+"/monitor", nil)
	if code != http.StatusNotFound || errCode(env) != "EXAM_NOT_FOUND" {
		t.Errorf("got %d %s", code, errCode(env))
	}
}
