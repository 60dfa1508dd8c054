package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-exam-service/internal/events"
	"github.com/stemsi/exstem-exam-service/internal/metrics"
	"github.com/stemsi/exstem-exam-service/internal/model"
	"github.com/stemsi/exstem-exam-service/internal/response"
	"github.com/stemsi/exstem-exam-service/internal/service"
	"github.com/stemsi/exstem-exam-service/internal/validator"
)

// ResultHandler handles answer submission and result lookups.
type ResultHandler struct {
	resultService *service.ResultService
	emitter       *events.Emitter
	metrics       *metrics.Metrics
	log           zerolog.Logger
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(
	resultService *service.ResultService,
	emitter *events.Emitter,
	m *metrics.Metrics,
	log zerolog.Logger,
) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
		emitter:       emitter,
		metrics:       m,
		log:           log.With().Str("component", "result_handler").Logger(),
	}
}

// SubmitAnswers godoc
// POST /api/v1/results
// Grades the submitted answers against the question snapshot and stores the
// result. A second submission for the same exam and student answers 409.
func (h *ResultHandler) SubmitAnswers(c *gin.Context) {
	var req model.SubmitAnswersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.resultService.Submit(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrResultExists) && h.metrics != nil {
			h.metrics.SubmissionConflict.Inc()
		}
		failWithError(c, h.log, err)
		return
	}

	if h.metrics != nil {
		h.metrics.Submissions.Inc()
		h.metrics.GradedPercentage.Observe(result.PercentageScore)
	}
	h.log.Info().
		Str("exam_id", result.ExamID.String()).
		Str("student_id", result.StudentID.String()).
		Float64("percentage_score", result.PercentageScore).
		Bool("is_time_up", result.IsTimeUp).
		Msg("Answers submitted and graded")
	h.emitter.Emit(c.Request.Context(), result.ExamID, &result.StudentID, model.EventAnswersSubmitted, gin.H{
		"percentage_score": result.PercentageScore,
		"is_time_up":       result.IsTimeUp,
	})

	response.Success(c, http.StatusCreated, model.SubmitAnswersResponse{
		ResultID:        result.ID,
		TotalQuestions:  result.TotalQuestions,
		CorrectAnswers:  result.CorrectAnswers,
		EarnedPoints:    result.EarnedPoints,
		TotalPoints:     result.TotalPoints,
		PercentageScore: result.PercentageScore,
	})
}

// GetResult godoc
// GET /api/v1/results/exams/:exam_id/students/:student_id
func (h *ResultHandler) GetResult(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}
	studentID, ok := paramUUID(c, "student_id")
	if !ok {
		return
	}

	result, err := h.resultService.Get(c.Request.Context(), examID, studentID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// ListStudentResults godoc
// GET /api/v1/results/students/:student_id
func (h *ResultHandler) ListStudentResults(c *gin.Context) {
	studentID, ok := paramUUID(c, "student_id")
	if !ok {
		return
	}

	results, err := h.resultService.ListForStudent(c.Request.Context(), studentID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.SuccessList(c, http.StatusOK, gin.H{"results": results}, len(results))
}

// ListExamResults godoc
// GET /api/v1/results/exams/:exam_id
func (h *ResultHandler) ListExamResults(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	results, err := h.resultService.ListForExam(c.Request.Context(), examID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.SuccessList(c, http.StatusOK, gin.H{"results": results}, len(results))
}
