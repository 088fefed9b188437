package historian

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for game action logs.
const DefaultQueueName = "blackjack_actions"

// ActionRecord is one accepted game action. It identifies the actor by name
// only; secrets never leave the game.
type ActionRecord struct {
	ID          uuid.UUID `json:"id"`
	GameID      string    `json:"game_id"`
	ActionIndex int       `json:"action_index"`
	Actor       string    `json:"actor"`
	ActionType  string    `json:"action_type"`
	Timestamp   int64     `json:"timestamp"` // epoch millis
}

// Recorder receives accepted actions as they happen.
type Recorder interface {
	Record(ctx context.Context, rec ActionRecord) error
}

// NopRecorder discards every record. It is used when no Redis is configured.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, ActionRecord) error { return nil }

// RedisRecorder pushes records onto a Redis list for the historian to drain.
type RedisRecorder struct {
	client *redis.Client
	queue  string
}

// NewRedisRecorder creates a recorder that RPUSHes onto queue.
func NewRedisRecorder(client *redis.Client, queue string) *RedisRecorder {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &RedisRecorder{client: client, queue: queue}
}

// Record serializes the given record to JSON, then pushes it to the Redis queue.
func (r *RedisRecorder) Record(ctx context.Context, rec ActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := r.client.RPush(ctx, r.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", r.queue, err)
	}
	return nil
}
