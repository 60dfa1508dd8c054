package websocket

import (
	"github.com/stemsi/exstem-exam-service/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing    Action = "ping"
	ActionRefresh Action = "refresh"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventSnapshot Event = "snapshot"
	EventActivity Event = "activity"
	EventPong     Event = "pong"
)

// SnapshotResponse carries a full exam status document.
type SnapshotResponse struct {
	Event  Event `json:"event"`
	Status any   `json:"status"`
}

// ActivityResponse relays one exam activity event as it happens.
type ActivityResponse struct {
	Event    Event           `json:"event"`
	Activity model.ExamEvent `json:"activity"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
