package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-exam-service/internal/response"
)

const checkTimeout = 2 * time.Second

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// QueueDepth reports how many events wait for persistence.
type QueueDepth func(ctx context.Context) (int64, error)

// SystemHandler reports process health and dependency reachability.
type SystemHandler struct {
	startTime  time.Time
	driver     string
	checks     map[string]HealthCheck
	queueDepth QueueDepth
	log        zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler. queueDepth may be nil when
// events are not buffered in Redis.
func NewSystemHandler(driver string, checks map[string]HealthCheck, queueDepth QueueDepth, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		startTime:  time.Now(),
		driver:     driver,
		checks:     checks,
		queueDepth: queueDepth,
		log:        log.With().Str("component", "system_handler").Logger(),
	}
}

type dependencyStatus struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

type runtimeStats struct {
	GoVersion  string `json:"go_version"`
	NumCPU     int    `json:"num_cpu"`
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	NumGC      uint32 `json:"num_gc"`
}

// Health godoc
// GET /health
// Answers 200 when every dependency responds and 503 otherwise.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	deps := make([]dependencyStatus, 0, len(names))
	for _, name := range names {
		start := time.Now()
		err := h.checks[name](ctx)
		dep := dependencyStatus{Name: name, Healthy: err == nil, Latency: time.Since(start).String()}
		if err != nil {
			healthy = false
			dep.Error = err.Error()
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
		}
		deps = append(deps, dep)
	}

	data := gin.H{
		"status":       "ok",
		"db_driver":    h.driver,
		"uptime":       formatDuration(time.Since(h.startTime)),
		"dependencies": deps,
		"runtime":      collectRuntime(),
	}
	if h.queueDepth != nil {
		if depth, err := h.queueDepth(ctx); err == nil {
			data["event_queue_depth"] = depth
		}
	}

	if !healthy {
		data["status"] = "degraded"
		response.Success(c, http.StatusServiceUnavailable, data)
		return
	}
	response.Success(c, http.StatusOK, data)
}

func collectRuntime() runtimeStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return runtimeStats{
		GoVersion:  runtime.Version(),
		NumCPU:     runtime.NumCPU(),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		HeapSys:    ms.HeapSys,
		NumGC:      ms.NumGC,
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
