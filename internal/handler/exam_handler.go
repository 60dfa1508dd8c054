package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-exam-service/internal/events"
	"github.com/stemsi/exstem-exam-service/internal/metrics"
	"github.com/stemsi/exstem-exam-service/internal/model"
	"github.com/stemsi/exstem-exam-service/internal/response"
	"github.com/stemsi/exstem-exam-service/internal/service"
	"github.com/stemsi/exstem-exam-service/internal/validator"
)

// ExamHandler handles exam management endpoints.
type ExamHandler struct {
	examService   *service.ExamService
	statusService *service.ExamStatusService
	emitter       *events.Emitter
	metrics       *metrics.Metrics
	log           zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(
	examService *service.ExamService,
	statusService *service.ExamStatusService,
	emitter *events.Emitter,
	m *metrics.Metrics,
	log zerolog.Logger,
) *ExamHandler {
	return &ExamHandler{
		examService:   examService,
		statusService: statusService,
		emitter:       emitter,
		metrics:       m,
		log:           log.With().Str("component", "exam_handler").Logger(),
	}
}

// CreateExam godoc
// POST /api/v1/exams
// Creates a new exam. Status defaults to scheduled.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	h.log.Info().Str("exam_id", exam.ID.String()).Str("status", string(exam.Status)).Msg("Exam created")
	h.emitter.Emit(c.Request.Context(), exam.ID, nil, model.EventExamCreated, gin.H{
		"title":        exam.Title,
		"scheduled_at": exam.ScheduledAt,
	})
	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// ListExams godoc
// GET /api/v1/exams?creator_id=
// Lists exams newest first, optionally filtered by creator.
func (h *ExamHandler) ListExams(c *gin.Context) {
	var q model.ListExamsQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidID, fields)
		return
	}

	var creatorID *uuid.UUID
	if q.CreatorID != "" {
		id := uuid.MustParse(q.CreatorID)
		creatorID = &id
	}

	exams, err := h.examService.List(c.Request.Context(), creatorID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.SuccessList(c, http.StatusOK, gin.H{"exams": exams}, len(exams))
}

// GetExam godoc
// GET /api/v1/exams/:exam_id
func (h *ExamHandler) GetExam(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	exam, err := h.examService.Get(c.Request.Context(), examID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// UpdateExam godoc
// PUT /api/v1/exams/:exam_id
// Partially updates schedule and details. Status is changed through UpdateExamStatus.
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), examID, req)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	h.emitter.Emit(c.Request.Context(), exam.ID, nil, model.EventExamUpdated, gin.H{
		"scheduled_at":     exam.ScheduledAt,
		"duration_minutes": exam.DurationMinutes,
	})
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// UpdateExamStatus godoc
// PATCH /api/v1/exams/:exam_id/status
// Sets the administrative status. Delaying requires new_date.
func (h *ExamHandler) UpdateExamStatus(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	var req model.UpdateExamStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.SetStatus(c.Request.Context(), examID, req.Status, req.NewDate)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	if h.metrics != nil {
		h.metrics.StatusChanges.WithLabelValues(string(exam.Status)).Inc()
	}
	h.log.Info().
		Str("exam_id", exam.ID.String()).
		Str("status", string(exam.Status)).
		Time("scheduled_at", exam.ScheduledAt).
		Msg("Exam status changed")
	h.emitter.Emit(c.Request.Context(), exam.ID, nil, model.EventExamStatusChanged, gin.H{
		"status":       exam.Status,
		"scheduled_at": exam.ScheduledAt,
	})
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/v1/exams/:exam_id
// Deletes the exam and its assignments. Results are kept.
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	summary, err := h.examService.Delete(c.Request.Context(), examID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	h.log.Info().
		Str("exam_id", examID.String()).
		Int64("deleted_assignments", summary.DeletedAssignments).
		Msg("Exam deleted")
	h.emitter.Emit(c.Request.Context(), examID, nil, model.EventExamDeleted, summary)
	response.Success(c, http.StatusOK, summary)
}

// GetExamStatus godoc
// GET /api/v1/exams/:exam_id/status
// Returns the exam window state and every assigned student's session status.
func (h *ExamHandler) GetExamStatus(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	doc, err := h.statusService.GetExamStatus(c.Request.Context(), examID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	response.Success(c, http.StatusOK, doc)
}
