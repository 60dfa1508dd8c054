package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-exam-service/internal/config"
	"github.com/stemsi/exstem-exam-service/internal/handler"
	"github.com/stemsi/exstem-exam-service/internal/metrics"
	"github.com/stemsi/exstem-exam-service/internal/middleware"
	"github.com/stemsi/exstem-exam-service/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam       *handler.ExamHandler
	Assignment *handler.AssignmentHandler
	Result     *handler.ResultHandler
	Monitor    *handler.MonitorHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// m may be nil, in which case /metrics is not mounted.
func SetupRouter(handlers *Handlers, cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log, m))

	compression := middleware.DefaultCompressionConfig
	compression.SkipPaths = []string{"/metrics"}
	router.Use(middleware.Compression(compression))

	// ─── Ops ───────────────────────────────────────────────────────────
	router.GET("/health", handlers.System.Health)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := router.Group("/api/v1")

	// ─── 1. Exams ──────────────────────────────────────────────────────
	exams := api.Group("/exams")
	{
		exams.POST("", handlers.Exam.CreateExam)
		exams.GET("", handlers.Exam.ListExams)
		exams.GET("/:exam_id", handlers.Exam.GetExam)
		exams.PUT("/:exam_id", handlers.Exam.UpdateExam)
		exams.DELETE("/:exam_id", handlers.Exam.DeleteExam)
		exams.PATCH("/:exam_id/status", handlers.Exam.UpdateExamStatus)
		exams.GET("/:exam_id/status", handlers.Exam.GetExamStatus)

		// Assignments and sessions
		exams.GET("/:exam_id/students", handlers.Assignment.ListAssignedStudents)
		exams.POST("/:exam_id/students/:student_id", handlers.Assignment.AssignStudent)
		exams.DELETE("/:exam_id/students/:student_id", handlers.Assignment.UnassignStudent)
		exams.POST("/:exam_id/students/:student_id/start", handlers.Assignment.StartSession)
	}

	// ─── 2. Students ───────────────────────────────────────────────────
	api.GET("/students/:student_id/exams", handlers.Assignment.ListAssignedExams)

	// ─── 3. Results ────────────────────────────────────────────────────
	results := api.Group("/results")
	{
		results.POST("", handlers.Result.SubmitAnswers)
		results.GET("/exams/:exam_id", handlers.Result.ListExamResults)
		results.GET("/exams/:exam_id/students/:student_id", handlers.Result.GetResult)
		results.GET("/students/:student_id", handlers.Result.ListStudentResults)
	}

	// ─── 4. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/exams/:exam_id/monitor", handlers.Monitor.MonitorExam)
	}

	return router
}
