package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-exam-service/internal/config"
	"github.com/stemsi/exstem-exam-service/internal/model"
)

// RedisBus publishes each event to the exam's monitor channel and appends it
// to the persistence queue drained by the event log worker.
type RedisBus struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisBus creates a new RedisBus.
func NewRedisBus(rdb *redis.Client, log zerolog.Logger) *RedisBus {
	return &RedisBus{
		rdb: rdb,
		log: log.With().Str("component", "redis_bus").Logger(),
	}
}

// Publish sends the event in one pipeline round trip.
func (b *RedisBus) Publish(ctx context.Context, ev model.ExamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := b.rdb.Pipeline()
	pipe.RPush(ctx, config.WorkerKey.PersistEventsQueue, data)
	pipe.Publish(ctx, config.CacheKey.ExamMonitorChannel(ev.ExamID.String()), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe listens on the exam's monitor channel. Malformed messages are
// skipped. The channel closes when ctx ends or cancel is called.
func (b *RedisBus) Subscribe(ctx context.Context, examID uuid.UUID) (<-chan model.ExamEvent, func(), error) {
	pubsub := b.rdb.Subscribe(ctx, config.CacheKey.ExamMonitorChannel(examID.String()))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan model.ExamEvent, 16)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var ev model.ExamEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn().Err(err).Str("channel", msg.Channel).Msg("Skipping malformed event")
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { pubsub.Close() }, nil
}
