// Package events fans exam activity out to live monitors and the event log.
package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-exam-service/internal/model"
)

// Publisher accepts exam events for delivery.
type Publisher interface {
	Publish(ctx context.Context, ev model.ExamEvent) error
}

// Subscriber streams the events of one exam until the returned cancel is called.
type Subscriber interface {
	Subscribe(ctx context.Context, examID uuid.UUID) (<-chan model.ExamEvent, func(), error)
}

// Bus is both ends of the event stream.
type Bus interface {
	Publisher
	Subscriber
}

// Emitter publishes events on behalf of request handlers. Delivery is best
// effort: a failed publish is logged and never fails the request.
type Emitter struct {
	pub Publisher
	log zerolog.Logger
}

// NewEmitter creates a new Emitter.
func NewEmitter(pub Publisher, log zerolog.Logger) *Emitter {
	return &Emitter{
		pub: pub,
		log: log.With().Str("component", "event_emitter").Logger(),
	}
}

// Emit builds and publishes one event.
func (e *Emitter) Emit(ctx context.Context, examID uuid.UUID, studentID *uuid.UUID, typ model.ExamEventType, payload any) {
	if e == nil || e.pub == nil {
		return
	}
	ev := model.NewExamEvent(examID, studentID, typ, payload)
	if err := e.pub.Publish(context.WithoutCancel(ctx), ev); err != nil {
		e.log.Warn().Err(err).
			Str("exam_id", examID.String()).
			Str("type", string(typ)).
			Msg("Event publish failed")
	}
}
