package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-exam-service/internal/events"
	"github.com/stemsi/exstem-exam-service/internal/metrics"
	"github.com/stemsi/exstem-exam-service/internal/service"
	ws "github.com/stemsi/exstem-exam-service/internal/websocket"
)

const (
	refreshInterval = 15 * time.Second
	refreshTimeout  = 5 * time.Second // keeps a slow store from stalling the write loop
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams live exam status to staff dashboards over WebSocket.
type MonitorHandler struct {
	statusService *service.ExamStatusService
	subscriber    events.Subscriber
	metrics       *metrics.Metrics
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(
	statusService *service.ExamStatusService,
	subscriber events.Subscriber,
	m *metrics.Metrics,
	log zerolog.Logger,
	allowedOrigins []string,
) *MonitorHandler {
	return &MonitorHandler{
		statusService: statusService,
		subscriber:    subscriber,
		metrics:       m,
		log:           log.With().Str("component", "monitor_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// MonitorExam godoc
// WS /ws/v1/exams/:exam_id/monitor
// Sends a status snapshot on connect, relays every activity event followed by
// a fresh snapshot, and refreshes the snapshot periodically.
func (h *MonitorHandler) MonitorExam(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	// Resolve the exam before upgrading so unknown ids get a normal 404.
	first, err := h.statusService.GetExamStatus(c.Request.Context(), examID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.MonitorClients.Inc()
		defer h.metrics.MonitorClients.Dec()
	}

	// The request context is not cancelled when a hijacked client goes away,
	// so the read loop owns cancellation.
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	stream, unsubscribe, err := h.subscriber.Subscribe(ctx, examID)
	if err != nil {
		h.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Monitor subscribe failed")
		_ = ws.WriteError(conn, "live updates unavailable")
		return
	}
	defer unsubscribe()

	log := h.log.With().Str("exam_id", examID.String()).Logger()
	log.Info().Msg("Monitor attached")
	defer log.Info().Msg("Monitor detached")

	if err := ws.WriteTyped(conn, ws.SnapshotResponse{Event: ws.EventSnapshot, Status: first}); err != nil {
		return
	}

	// gorilla/websocket allows a single writer, so client requests are
	// handed to the write loop instead of being answered here.
	requests := make(chan ws.Action, 4)
	go h.readLoop(conn, requests, cancel)

	refresh := time.NewTicker(refreshInterval)
	defer refresh.Stop()
	ping := time.NewTicker(ws.PingPeriod)
	defer ping.Stop()

	for {
		var werr error
		select {
		case <-ctx.Done():
			return

		case ev, open := <-stream:
			if !open {
				_ = ws.WriteError(conn, "live updates closed")
				return
			}
			if werr = ws.WriteTyped(conn, ws.ActivityResponse{Event: ws.EventActivity, Activity: ev}); werr == nil {
				werr = h.sendSnapshot(ctx, conn, examID)
			}

		case action := <-requests:
			switch action {
			case ws.ActionPing:
				werr = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionRefresh:
				werr = h.sendSnapshot(ctx, conn, examID)
			default:
				werr = ws.WriteError(conn, "unknown action")
			}

		case <-refresh.C:
			werr = h.sendSnapshot(ctx, conn, examID)

		case <-ping.C:
			werr = ws.WritePing(conn)
		}

		if werr != nil {
			if errors.Is(werr, service.ErrExamNotFound) {
				_ = ws.WriteError(conn, "exam deleted")
				return
			}
			if !errors.Is(werr, errSnapshotSkipped) {
				log.Debug().Err(werr).Msg("Monitor write failed")
				return
			}
		}
	}
}

var errSnapshotSkipped = errors.New("snapshot skipped")

// sendSnapshot recomputes the status document and writes it. A transient
// store failure is logged and skipped so the stream stays open.
func (h *MonitorHandler) sendSnapshot(ctx context.Context, conn *websocket.Conn, examID uuid.UUID) error {
	fetchCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	doc, err := h.statusService.GetExamStatus(fetchCtx, examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			return err
		}
		h.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Failed to refresh exam status")
		return errSnapshotSkipped
	}
	return ws.WriteTyped(conn, ws.SnapshotResponse{Event: ws.EventSnapshot, Status: doc})
}

// readLoop forwards client actions until the connection fails, then cancels.
func (h *MonitorHandler) readLoop(conn *websocket.Conn, requests chan<- ws.Action, cancel context.CancelFunc) {
	defer cancel()
	ws.KeepAlive(conn)

	for {
		var env ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Msg("Monitor read failed")
			}
			return
		}
		select {
		case requests <- env.Action:
		default:
			// The write loop is busy; dropping a ping or refresh is harmless.
		}
	}
}
