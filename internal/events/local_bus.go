package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-exam-service/internal/model"
	"github.com/stemsi/exstem-exam-service/internal/repository"
)

// LocalBus delivers events inside one process. It is used when Redis is not
// configured: subscribers get events directly and, when a sink is set, each
// event is written to the event log synchronously.
type LocalBus struct {
	sink repository.EventSink

	mu   sync.Mutex
	subs map[uuid.UUID]map[chan model.ExamEvent]struct{}
}

// NewLocalBus creates a LocalBus. sink may be nil.
func NewLocalBus(sink repository.EventSink) *LocalBus {
	return &LocalBus{
		sink: sink,
		subs: make(map[uuid.UUID]map[chan model.ExamEvent]struct{}),
	}
}

// Publish persists the event when a sink is set, then fans it out.
// Slow subscribers miss events rather than block the publisher.
func (b *LocalBus) Publish(ctx context.Context, ev model.ExamEvent) error {
	if b.sink != nil {
		if err := b.sink.InsertEvents(ctx, []model.ExamEvent{ev}); err != nil {
			return err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[ev.ExamID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe registers a listener for one exam.
func (b *LocalBus) Subscribe(ctx context.Context, examID uuid.UUID) (<-chan model.ExamEvent, func(), error) {
	ch := make(chan model.ExamEvent, 16)

	b.mu.Lock()
	if b.subs[examID] == nil {
		b.subs[examID] = make(map[chan model.ExamEvent]struct{})
	}
	b.subs[examID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[examID], ch)
			if len(b.subs[examID]) == 0 {
				delete(b.subs, examID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel, nil
}
