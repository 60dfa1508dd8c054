package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-exam-service/internal/events"
	"github.com/stemsi/exstem-exam-service/internal/metrics"
	"github.com/stemsi/exstem-exam-service/internal/model"
	"github.com/stemsi/exstem-exam-service/internal/response"
	"github.com/stemsi/exstem-exam-service/internal/service"
)

// AssignmentHandler handles exam/student assignment and session start endpoints.
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
	emitter           *events.Emitter
	metrics           *metrics.Metrics
	log               zerolog.Logger
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(
	assignmentService *service.AssignmentService,
	emitter *events.Emitter,
	m *metrics.Metrics,
	log zerolog.Logger,
) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		emitter:           emitter,
		metrics:           m,
		log:               log.With().Str("component", "assignment_handler").Logger(),
	}
}

// AssignStudent godoc
// POST /api/v1/exams/:exam_id/students/:student_id
// Assigns a student. Repeating the call is a no-op answered with 200.
func (h *AssignmentHandler) AssignStudent(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}
	studentID, ok := paramUUID(c, "student_id")
	if !ok {
		return
	}

	assignment, created, err := h.assignmentService.Assign(c.Request.Context(), examID, studentID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		if h.metrics != nil {
			h.metrics.AssignmentChanges.WithLabelValues("assigned").Inc()
		}
		h.emitter.Emit(c.Request.Context(), examID, &studentID, model.EventStudentAssigned, nil)
	}
	response.Success(c, status, gin.H{"assignment": assignment, "created": created})
}

// UnassignStudent godoc
// DELETE /api/v1/exams/:exam_id/students/:student_id
func (h *AssignmentHandler) UnassignStudent(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}
	studentID, ok := paramUUID(c, "student_id")
	if !ok {
		return
	}

	if err := h.assignmentService.Unassign(c.Request.Context(), examID, studentID); err != nil {
		failWithError(c, h.log, err)
		return
	}

	if h.metrics != nil {
		h.metrics.AssignmentChanges.WithLabelValues("unassigned").Inc()
	}
	h.emitter.Emit(c.Request.Context(), examID, &studentID, model.EventStudentUnassigned, nil)
	response.Success(c, http.StatusOK, gin.H{"exam_id": examID, "student_id": studentID})
}

// StartSession godoc
// POST /api/v1/exams/:exam_id/students/:student_id/start
// Records the student's start time on the first call and returns it on every call.
func (h *AssignmentHandler) StartSession(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}
	studentID, ok := paramUUID(c, "student_id")
	if !ok {
		return
	}

	res, started, err := h.assignmentService.StartSession(c.Request.Context(), examID, studentID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	if started {
		if h.metrics != nil {
			h.metrics.SessionStarts.Inc()
		}
		h.emitter.Emit(c.Request.Context(), examID, &studentID, model.EventSessionStarted, gin.H{
			"started_at": res.StartedAt,
		})
	}
	response.Success(c, http.StatusOK, res)
}

// ListAssignedStudents godoc
// GET /api/v1/exams/:exam_id/students
func (h *AssignmentHandler) ListAssignedStudents(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	students, err := h.assignmentService.ListAssignedStudents(c.Request.Context(), examID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.SuccessList(c, http.StatusOK, gin.H{"students": students}, len(students))
}

// ListAssignedExams godoc
// GET /api/v1/students/:student_id/exams
func (h *AssignmentHandler) ListAssignedExams(c *gin.Context) {
	studentID, ok := paramUUID(c, "student_id")
	if !ok {
		return
	}

	exams, err := h.assignmentService.ListAssignedExams(c.Request.Context(), studentID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.SuccessList(c, http.StatusOK, gin.H{"exams": exams}, len(exams))
}
