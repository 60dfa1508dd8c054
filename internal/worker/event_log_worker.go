package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-exam-service/internal/config"
	"github.com/stemsi/exstem-exam-service/internal/model"
	"github.com/stemsi/exstem-exam-service/internal/repository"
)

const (
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
	RetryBackoff = 2 * time.Second
)

// Queue is the subset of Redis list commands the worker uses.
type Queue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LPop(ctx context.Context, key string) *redis.StringCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// EventLogWorker drains the event queue into the exam_events log in batches.
type EventLogWorker struct {
	queue         Queue
	sink          repository.EventSink
	batchSize     int
	flushInterval time.Duration
	log           zerolog.Logger
}

// NewEventLogWorker creates a new EventLogWorker.
func NewEventLogWorker(queue Queue, sink repository.EventSink, batchSize int, flushInterval time.Duration, log zerolog.Logger) *EventLogWorker {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &EventLogWorker{
		queue:         queue,
		sink:          sink,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		log:           log.With().Str("component", "event_log_worker").Logger(),
	}
}

// Start runs the worker loop until ctx is cancelled. Call in a goroutine.
func (w *EventLogWorker) Start(ctx context.Context) {
	w.log.Info().Int("batch_size", w.batchSize).Msg("Worker started")

	buffer := make([]model.ExamEvent, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		if len(buffer) > 0 && (len(buffer) >= w.batchSize || time.Since(lastFlush) >= w.flushInterval) {
			w.flush(ctx, buffer)
			buffer = buffer[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		ev, ok := w.next(ctx)
		if ok {
			buffer = append(buffer, ev)
		}
	}
}

// next pops one event. ok is false on timeout, error or a discarded message.
func (w *EventLogWorker) next(ctx context.Context) (model.ExamEvent, bool) {
	var ev model.ExamEvent

	result, err := w.queue.BLPop(ctx, PollTimeout, config.WorkerKey.PersistEventsQueue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return ev, false
		}
		w.log.Error().Err(err).Msg("Redis connection error, backing off")
		sleep(ctx, RetryBackoff)
		return ev, false
	}
	if len(result) < 2 {
		return ev, false
	}

	if err := json.Unmarshal([]byte(result[1]), &ev); err != nil {
		w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed event")
		return ev, false
	}
	return ev, true
}

// flush writes the batch, pushing it back onto the queue when the store fails.
func (w *EventLogWorker) flush(ctx context.Context, batch []model.ExamEvent) {
	if err := w.sink.InsertEvents(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Event batch insert failed, requeueing")
		w.requeue(context.WithoutCancel(ctx), batch)
		sleep(ctx, RetryBackoff)
		return
	}
	w.log.Debug().Int("count", len(batch)).Msg("Event batch persisted")
}

func (w *EventLogWorker) requeue(ctx context.Context, batch []model.ExamEvent) {
	values := make([]interface{}, 0, len(batch))
	for _, ev := range batch {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		values = append(values, data)
	}
	if err := w.queue.RPush(ctx, config.WorkerKey.PersistEventsQueue, values...).Err(); err != nil {
		w.log.Error().Err(err).Int("count", len(values)).Msg("Failed to requeue events, batch lost")
	}
}

// shutdown flushes the buffer and whatever is still queued, bounded by a timeout.
func (w *EventLogWorker) shutdown(buffer []model.ExamEvent) {
	w.log.Info().Msg("Worker stopping, flushing remaining events...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for len(buffer) < w.batchSize*10 {
		data, err := w.queue.LPop(ctx, config.WorkerKey.PersistEventsQueue).Result()
		if err != nil {
			break
		}
		var ev model.ExamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue
		}
		buffer = append(buffer, ev)
	}

	if len(buffer) == 0 {
		w.log.Info().Msg("Worker stopped")
		return
	}
	if err := w.sink.InsertEvents(ctx, buffer); err != nil {
		w.log.Error().Err(err).Int("count", len(buffer)).Msg("Final flush failed, requeueing")
		w.requeue(ctx, buffer)
		return
	}
	w.log.Info().Int("count", len(buffer)).Msg("Worker stopped")
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
